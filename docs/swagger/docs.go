// Package swagger holds the sandbox API description served at /swagger/*.
package swagger

import (
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/sanctum/csrf-cookie": {
            "get": {"summary": "CSRF handshake", "description": "Sets the XSRF-TOKEN cookie echoed back in X-XSRF-TOKEN", "responses": {"204": {"description": "No content"}}}
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Login user",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "data: token, user, expires_at"}, "401": {"description": "Invalid credentials"}, "422": {"description": "Validation error"}}
            }
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Signed out"}}}
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Get current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "data: user, scopes"}}}
        },
        "/{resource}": {
            "get": {
                "tags": ["resources"], "summary": "List records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "per_page", "type": "integer"},
                    {"in": "query", "name": "sort", "type": "string"},
                    {"in": "query", "name": "order", "type": "string", "enum": ["asc", "desc"]},
                    {"in": "query", "name": "include", "type": "string"}
                ],
                "responses": {"200": {"description": "data, total; current_page and per_page when paged"}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "tags": ["resources"], "summary": "Create record",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/resource"}, {"in": "body", "name": "draft", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Validation error"}}
            }
        },
        "/{resource}/{id}": {
            "get": {
                "tags": ["resources"], "summary": "Get record", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/resource"}, {"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["resources"], "summary": "Update record", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/resource"}, {"$ref": "#/parameters/id"}, {"in": "body", "name": "draft", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "422": {"description": "Validation error"}}
            },
            "delete": {
                "tags": ["resources"], "summary": "Delete record", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/resource"}, {"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/emails/{id}/send": {
            "post": {
                "tags": ["emails"], "summary": "Send campaign", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"202": {"description": "Campaign is being sent"}, "409": {"description": "Already sent"}}
            }
        },
        "/files/upload": {
            "post": {
                "tags": ["files"], "summary": "Upload a file", "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"in": "formData", "name": "file", "type": "file", "required": true}, {"in": "formData", "name": "name", "type": "string"}],
                "responses": {"201": {"description": "data: path, url, name, size, type"}, "400": {"description": "No file provided"}}
            }
        }
    },
    "parameters": {
        "resource": {"in": "path", "name": "resource", "required": true, "type": "string",
            "enum": ["boats", "hotels", "customers", "faqs", "testimonials", "emails", "subscribers", "recipients", "users", "roles"]},
        "id": {"in": "path", "name": "id", "required": true, "type": "integer"}
    },
    "definitions": {
        "LoginRequest": {
            "type": "object", "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Tourdesk Sandbox API",
	Description:      "Development backend speaking the tourdesk console's REST contract.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

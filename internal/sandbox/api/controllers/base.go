package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"tourdesk/internal/sandbox/services"
	"tourdesk/internal/validation"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// reserved query parameters; everything else is an equality filter
var reserved = map[string]bool{
	"page": true, "per_page": true, "limit": true,
	"sort": true, "order": true, "direction": true,
	"include": true,
}

// Draft is the editable subset of T
type Draft[T any] interface {
	Apply(*T)
}

// Envelope is the response shape every resource endpoint returns
type Envelope struct {
	Data        interface{} `json:"data"`
	Message     string      `json:"message,omitempty"`
	Status      string      `json:"status,omitempty"`
	CurrentPage int         `json:"current_page,omitempty"`
	PerPage     int         `json:"per_page,omitempty"`
	Total       *int64      `json:"total,omitempty"`
}

// BaseController provides the CRUD endpoints for one resource. Writes bind
// the draft D, validate it and apply it to the stored record.
type BaseController[T any, D Draft[T]] struct {
	service   services.BaseService[T]
	validator *validation.Validator
	toDraft   func(T) D
	noun      string
	includes  []string
}

type Option[T any, D Draft[T]] func(*BaseController[T, D])

// WithIncludes preloads relations on every read
func WithIncludes[T any, D Draft[T]](includes ...string) Option[T, D] {
	return func(c *BaseController[T, D]) {
		c.includes = includes
	}
}

// NewBaseController creates a controller. toDraft seeds updates with the
// stored values so a PUT only needs the fields that change.
func NewBaseController[T any, D Draft[T]](service services.BaseService[T], noun string, toDraft func(T) D, opts ...Option[T, D]) *BaseController[T, D] {
	c := &BaseController[T, D]{
		service:   service,
		validator: validation.Default(),
		toDraft:   toDraft,
		noun:      noun,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func parseID(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id parameter")
	}
	return id, nil
}

// parseIncludes parses the include query parameter on top of the defaults
func (c *BaseController[T, D]) parseIncludes(ctx echo.Context) []string {
	out := append([]string(nil), c.includes...)
	if include := ctx.QueryParam("include"); include != "" {
		for _, name := range strings.Split(include, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func (c *BaseController[T, D]) notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s not found", c.noun))
	}
	return err
}

func (c *BaseController[T, D]) bind(ctx echo.Context, draft *D) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, draft); err != nil {
		return err
	}
	return c.validator.Struct(draft)
}

// List handles retrieval of multiple entities. Paging happens only when the
// caller asks for a page.
func (c *BaseController[T, D]) List(ctx echo.Context) error {
	q := services.ListQuery{
		Sort:     ctx.QueryParam("sort"),
		Order:    ctx.QueryParam("order"),
		Includes: c.parseIncludes(ctx),
		Filters:  map[string]string{},
	}
	if q.Order == "" {
		q.Order = ctx.QueryParam("direction")
	}
	for key, values := range ctx.QueryParams() {
		if !reserved[key] && len(values) > 0 {
			q.Filters[key] = values[0]
		}
	}

	paged := ctx.QueryParam("page") != ""
	if paged {
		q.Page, _ = strconv.Atoi(ctx.QueryParam("page"))
		if q.Page < 1 {
			q.Page = 1
		}
		perPage := ctx.QueryParam("per_page")
		if perPage == "" {
			perPage = ctx.QueryParam("limit")
		}
		q.PerPage, _ = strconv.Atoi(perPage)
		if q.PerPage < 1 {
			q.PerPage = defaultPerPage
		}
		if q.PerPage > maxPerPage {
			q.PerPage = maxPerPage
		}
	}

	entities, total, err := c.service.List(ctx.Request().Context(), q)
	if err != nil {
		return err
	}
	if entities == nil {
		entities = []T{}
	}

	resp := Envelope{Data: entities, Status: "success", Total: &total}
	if paged {
		resp.CurrentPage = q.Page
		resp.PerPage = q.PerPage
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Get handles retrieval of a single entity
func (c *BaseController[T, D]) Get(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	entity, err := c.service.Get(ctx.Request().Context(), id, c.parseIncludes(ctx)...)
	if err != nil {
		return c.notFound(err)
	}
	return ctx.JSON(http.StatusOK, Envelope{Data: entity, Status: "success"})
}

// Create handles creation of new entities
func (c *BaseController[T, D]) Create(ctx echo.Context) error {
	var draft D
	if err := c.bind(ctx, &draft); err != nil {
		return err
	}

	var entity T
	draft.Apply(&entity)
	if err := c.service.Create(ctx.Request().Context(), &entity); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, Envelope{
		Data:    &entity,
		Message: fmt.Sprintf("%s created", c.noun),
		Status:  "success",
	})
}

// Update handles updating an existing entity
func (c *BaseController[T, D]) Update(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	entity, err := c.service.Get(ctx.Request().Context(), id)
	if err != nil {
		return c.notFound(err)
	}

	draft := c.toDraft(*entity)
	if err := c.bind(ctx, &draft); err != nil {
		return err
	}
	draft.Apply(entity)

	if err := c.service.Update(ctx.Request().Context(), entity); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, Envelope{
		Data:    entity,
		Message: fmt.Sprintf("%s updated", c.noun),
		Status:  "success",
	})
}

// Delete handles deletion of an entity
func (c *BaseController[T, D]) Delete(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	if err := c.service.Delete(ctx.Request().Context(), id); err != nil {
		return c.notFound(err)
	}
	return ctx.JSON(http.StatusOK, Envelope{
		Data:    nil,
		Message: fmt.Sprintf("%s deleted", c.noun),
		Status:  "success",
	})
}

// RegisterRoutes registers CRUD routes for the controller
func (c *BaseController[T, D]) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("", c.List, mw...)
	g.GET("/:id", c.Get, mw...)
	g.POST("", c.Create, mw...)
	g.PUT("/:id", c.Update, mw...)
	g.PATCH("/:id", c.Update, mw...)
	g.DELETE("/:id", c.Delete, mw...)
}

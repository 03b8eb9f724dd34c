package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Status tolerates backends that send the envelope status as a string, a
// number or a boolean.
type Status string

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = Status(str)
		return nil
	}
	*s = Status(strings.Trim(string(b), `"`))
	return nil
}

// Page is the collection envelope {data, message?, status?, current_page?, per_page?, total?}
type Page[T any] struct {
	Data        []T    `json:"data"`
	Message     string `json:"message,omitempty"`
	Status      Status `json:"status,omitempty"`
	CurrentPage int    `json:"current_page,omitempty"`
	PerPage     int    `json:"per_page,omitempty"`
	Total       int    `json:"total,omitempty"`
}

// Paginated reports whether the backend paged the collection itself
func (p *Page[T]) Paginated() bool {
	return p.CurrentPage > 0 && p.PerPage > 0
}

// Resource is the typed view of one collection endpoint
type Resource[T any] struct {
	client *Client
	path   string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{client: c, path: "/" + strings.Trim(path, "/")}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) itemPath(id uint64) string {
	return r.path + "/" + strconv.FormatUint(id, 10)
}

func (r *Resource[T]) List(ctx context.Context, query url.Values) (*Page[T], error) {
	path := r.path
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := r.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{}
	body := bytes.TrimSpace(resp.Body)
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &page.Data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.path, err)
		}
		return page, nil
	}
	if err := resp.Decode(page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id uint64) (*T, error) {
	resp, err := r.client.Get(ctx, r.itemPath(id))
	if err != nil {
		return nil, err
	}
	return decodeItem[T](resp)
}

func (r *Resource[T]) Create(ctx context.Context, draft interface{}) (*T, error) {
	resp, err := r.client.Post(ctx, r.path, draft)
	if err != nil {
		return nil, err
	}
	return decodeItem[T](resp)
}

func (r *Resource[T]) Update(ctx context.Context, id uint64, draft interface{}) (*T, error) {
	resp, err := r.client.Put(ctx, r.itemPath(id), draft)
	if err != nil {
		return nil, err
	}
	return decodeItem[T](resp)
}

func (r *Resource[T]) Delete(ctx context.Context, id uint64) error {
	_, err := r.client.Delete(ctx, r.itemPath(id))
	return err
}

// Action triggers a custom row action: POST <path>/<id>/<name>
func (r *Resource[T]) Action(ctx context.Context, id uint64, name string) error {
	_, err := r.client.Call(ctx, http.MethodPost, r.itemPath(id)+"/"+url.PathEscape(name), nil)
	return err
}

// decodeItem accepts a bare record or one wrapped as {"data": {...}}.
// An empty body (204) yields nil.
func decodeItem[T any](resp *Response) (*T, error) {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if data, ok := envelope["data"]; ok && len(data) > 0 && data[0] == '{' {
			body = data
		}
	}

	item := new(T)
	if err := json.Unmarshal(body, item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}

// UploadResult describes a stored file
type UploadResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Upload posts a multipart form and returns what the backend stored
func (c *Client) Upload(ctx context.Context, path string, form *Form) (*UploadResult, error) {
	resp, err := c.Post(ctx, path, form)
	if err != nil {
		return nil, err
	}
	res, err := decodeItem[UploadResult](resp)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &UploadResult{}, nil
	}
	return res, nil
}

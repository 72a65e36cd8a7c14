package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"iotconsole/iot-ui/internal/apiclient"
)

var ErrUnsupported = errors.New("operation not supported for resource")

// Route builds a path relative to the API base URL. The argument is an entity id, a parent
// id, or ignored, depending on the operation.
type Route func(id string) string

// Static ignores its argument.
func Static(path string) Route {
	return func(string) string { return path }
}

// PathID appends the escaped id as the last path segment.
func PathID(prefix string) Route {
	return func(id string) string { return prefix + "/" + url.PathEscape(id) }
}

// QueryID passes the id as a single query parameter.
func QueryID(path, param string) Route {
	return func(id string) string {
		return path + "?" + url.Values{param: []string{id}}.Encode()
	}
}

// Endpoints holds the remote routes of one resource. A nil route marks an operation the
// remote API does not offer.
type Endpoints struct {
	List   Route
	Get    Route
	Create Route
	Update Route
	Delete Route
}

// Proxy maps list/get/create/update/delete onto remote API calls for one DTO type.
type Proxy[T any] struct {
	name   string
	api    *apiclient.Client
	routes Endpoints
	idOf   func(T) string
}

func NewProxy[T any](api *apiclient.Client, name string, routes Endpoints, idOf func(T) string) *Proxy[T] {
	return &Proxy[T]{name: name, api: api, routes: routes, idOf: idOf}
}

func (p *Proxy[T]) Name() string { return p.name }

func (p *Proxy[T]) ID(v T) string { return p.idOf(v) }

// List returns the resources under parentID (ignored for top-level resources). Every
// failure is returned as an error with a nil slice; on success the slice is never nil.
func (p *Proxy[T]) List(ctx context.Context, token, parentID string) ([]T, error) {
	if p.routes.List == nil {
		return nil, fmt.Errorf("list %s: %w", p.name, ErrUnsupported)
	}
	items, err := apiclient.GetData[[]T](ctx, p.api, p.routes.List(parentID), token)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p.name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get returns apiclient.ErrNotFound for any non-2xx, malformed or unsuccessful reply.
// Token rejection and transport failures keep their own sentinels.
func (p *Proxy[T]) Get(ctx context.Context, token, id string) (T, error) {
	var zero T
	if p.routes.Get == nil {
		return zero, fmt.Errorf("get %s: %w", p.name, ErrUnsupported)
	}
	if id == "" {
		return zero, fmt.Errorf("get %s: %w", p.name, apiclient.ErrNotFound)
	}
	v, err := apiclient.GetData[T](ctx, p.api, p.routes.Get(id), token)
	if err != nil {
		return zero, p.classify("get", id, err)
	}
	return v, nil
}

// Create posts v and returns the identifier the remote assigned, falling back to the id
// already on v when the reply does not carry one.
func (p *Proxy[T]) Create(ctx context.Context, token, parentID string, v T) (string, error) {
	if p.routes.Create == nil {
		return "", fmt.Errorf("create %s: %w", p.name, ErrUnsupported)
	}
	resp, err := p.api.Send(ctx, http.MethodPost, p.routes.Create(parentID), token, v)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", p.name, err)
	}
	if id := p.idFromReply(resp.Body); id != "" {
		return id, nil
	}
	return p.idOf(v), nil
}

// Update replaces the stored resource with v.
func (p *Proxy[T]) Update(ctx context.Context, token string, v T) error {
	if p.routes.Update == nil {
		return fmt.Errorf("update %s: %w", p.name, ErrUnsupported)
	}
	if _, err := p.api.Send(ctx, http.MethodPut, p.routes.Update(p.idOf(v)), token, v); err != nil {
		return fmt.Errorf("update %s: %w", p.name, err)
	}
	return nil
}

// Delete removes id. Any remote refusal, including a repeat delete, is reported as
// apiclient.ErrNotFound.
func (p *Proxy[T]) Delete(ctx context.Context, token, id string) error {
	if p.routes.Delete == nil {
		return fmt.Errorf("delete %s: %w", p.name, ErrUnsupported)
	}
	if id == "" {
		return fmt.Errorf("delete %s: %w", p.name, apiclient.ErrNotFound)
	}
	if _, err := p.api.Send(ctx, http.MethodDelete, p.routes.Delete(id), token, nil); err != nil {
		return p.classify("delete", id, err)
	}
	return nil
}

func (p *Proxy[T]) classify(op, id string, err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) ||
		errors.Is(err, apiclient.ErrUnavailable) ||
		errors.Is(err, apiclient.ErrNotFound) {
		return fmt.Errorf("%s %s %s: %w", op, p.name, id, err)
	}
	return fmt.Errorf("%s %s %s: %w: %w", op, p.name, id, apiclient.ErrNotFound, err)
}

func (p *Proxy[T]) idFromReply(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env apiclient.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Data, &s); err == nil {
		return s
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err == nil {
		return p.idOf(v)
	}
	return ""
}

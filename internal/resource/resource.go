// ABOUTME: Generic typed REST collection shared by every resource client
// ABOUTME: Provides list/get/create/update/delete plus custom sub-path actions

package resource

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/opsdesk/opsdesk/internal/client"
)

// Collection is a typed facade over one backend collection at a fixed base path.
// Every method propagates errors; callers that want degrade-on-failure wrap the
// result with OrEmpty, OrAbsent, or OrZero.
type Collection[T any] struct {
	client   *client.Client
	basePath string
}

// NewCollection binds a collection of T to basePath (e.g. "/templates-workflow-library").
func NewCollection[T any](c *client.Client, basePath string) *Collection[T] {
	return &Collection[T]{client: c, basePath: strings.TrimSuffix(basePath, "/")}
}

// Client returns the underlying HTTP client.
func (r *Collection[T]) Client() *client.Client {
	return r.client
}

// Path builds basePath/seg1/seg2..., escaping each segment.
func (r *Collection[T]) Path(segments ...string) string {
	var b strings.Builder
	b.WriteString(r.basePath)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// List fetches every record. A 204 or null body yields an empty slice.
func (r *Collection[T]) List(ctx context.Context) ([]T, error) {
	items, err := client.Get[[]T](ctx, r.client, r.Path())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get fetches one record by id. A 204 or null body yields nil.
func (r *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	return client.Get[*T](ctx, r.client, r.Path(id))
}

// Create posts input and returns the created record.
func (r *Collection[T]) Create(ctx context.Context, input any) (*T, error) {
	return client.Post[*T](ctx, r.client, r.Path(), input)
}

// Update patches the record with a partial input.
func (r *Collection[T]) Update(ctx context.Context, id string, patch any) (*T, error) {
	return client.Patch[*T](ctx, r.client, r.Path(id), patch)
}

// Delete removes the record. Deleting a missing record surfaces the backend's
// error (typically 404) rather than succeeding silently.
func (r *Collection[T]) Delete(ctx context.Context, id string) error {
	return client.Delete(ctx, r.client, r.Path(id))
}

// Action invokes a custom endpoint under the collection, e.g.
// POST /templates-workflow-library/{id}/duplicate, decoding the result as R.
func Action[R, T any](ctx context.Context, r *Collection[T], method string, body any, segments ...string) (R, error) {
	return client.Do[R](ctx, r.client, method, r.Path(segments...), body, nil)
}

// PostAction is Action with POST.
func PostAction[R, T any](ctx context.Context, r *Collection[T], body any, segments ...string) (R, error) {
	return Action[R](ctx, r, http.MethodPost, body, segments...)
}

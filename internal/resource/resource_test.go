package resource

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/mockapi"
)

type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newCollection(t *testing.T) (*mockapi.Server, *Collection[item]) {
	t.Helper()
	srv := mockapi.New()
	t.Cleanup(srv.Close)
	c := client.New(srv.BaseURL, nil, client.WithLogger(logger.Discard()))
	return srv, NewCollection[item](c, "/templates-workflow-library/")
}

func TestCollection_Path(t *testing.T) {
	_, col := newCollection(t)

	assert.Equal(t, "/templates-workflow-library", col.Path())
	assert.Equal(t, "/templates-workflow-library/t1/share", col.Path("t1", "share"))
	assert.Equal(t, "/templates-workflow-library/a%2Fb", col.Path("a/b"))
}

func TestCollection_CRUD(t *testing.T) {
	_, col := newCollection(t)
	ctx := context.Background()

	items, err := col.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	created, err := col.Create(ctx, map[string]string{"title": "Foo"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Foo", created.Title)
	assert.NotEmpty(t, created.ID)

	got, err := col.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := col.Update(ctx, created.ID, map[string]string{"title": "Bar"})
	require.NoError(t, err)
	assert.Equal(t, "Bar", updated.Title)
	assert.Equal(t, created.ID, updated.ID)

	items, err = col.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, col.Delete(ctx, created.ID))

	err = col.Delete(ctx, created.ID)
	require.Error(t, err, "deleting twice must not succeed silently")
	assert.True(t, client.IsNotFound(err))
}

func TestCollection_GetMissing(t *testing.T) {
	_, col := newCollection(t)

	got, err := col.Get(context.Background(), "nope")
	assert.Nil(t, got)
	assert.Equal(t, http.StatusNotFound, client.StatusCode(err))
}

func TestAction(t *testing.T) {
	srv, col := newCollection(t)
	id := srv.SeedTemplate(mockapi.Record{"title": "Origin"})

	dup, err := PostAction[*item](context.Background(), col, nil, id, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, "Origin (copy)", dup.Title)
	assert.NotEqual(t, id, dup.ID)

	last := srv.LastRequest()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/api/templates-workflow-library/"+id+"/duplicate", last.Path)
}

func TestDegradeHelpers(t *testing.T) {
	l := logger.Discard()
	boom := &client.APIError{Message: "Internal Server Error", Status: 500}

	assert.Equal(t, []int{}, OrEmpty[int](l, "op", nil, boom))
	assert.Equal(t, []int{}, OrEmpty[int](l, "op", nil, nil))
	assert.Equal(t, []int{1}, OrEmpty(l, "op", []int{1}, nil))

	v := 3
	assert.Nil(t, OrAbsent(l, "op", &v, boom))
	assert.Equal(t, &v, OrAbsent(l, "op", &v, nil))

	assert.Equal(t, "", OrZero(l, "op", "value", boom))
	assert.Equal(t, "value", OrZero(l, "op", "value", nil))

	// nil logger falls back to the default
	assert.Equal(t, []int{}, OrEmpty[int](nil, "op", nil, boom))
}

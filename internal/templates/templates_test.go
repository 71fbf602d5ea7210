// ABOUTME: Tests for the templates client
// ABOUTME: Exercises CRUD, custom actions and the not-found policy

package templates

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/credentials"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/mockapi"
)

func newClient(t *testing.T) (*mockapi.Server, *Client) {
	t.Helper()
	srv := mockapi.New()
	t.Cleanup(srv.Close)
	c := client.New(srv.BaseURL, credentials.NewMemoryStore("tok123"), client.WithLogger(logger.Discard()))
	return srv, New(c, logger.Discard())
}

func TestCreateTemplate(t *testing.T) {
	srv, c := newClient(t)

	created, err := c.Create(context.Background(), CreateInput{
		Title: "Foo",
		Phases: []Phase{{
			Name:      "Discovery",
			Order:     1,
			Tasks:     []Task{{Title: "Kickoff", EstimatedHours: 2}},
			Decisions: []Decision{{Title: "Scope sign-off", Approvers: []string{"pm"}}},
		}},
		Roles: []Role{{Name: "Consultant", AllocationPct: 50}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Foo", created.Title)
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Phases, 1)
	assert.Equal(t, "Kickoff", created.Phases[0].Tasks[0].Title)
	assert.Equal(t, "Scope sign-off", created.Phases[0].Decisions[0].Title)

	last := srv.LastRequest()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/api/templates-workflow-library", last.Path)
	assert.Equal(t, "Bearer tok123", last.Authorization)
}

func TestDeleteTemplate(t *testing.T) {
	srv, c := newClient(t)
	id := srv.SeedTemplate(mockapi.Record{"id": "t1", "title": "Old"})

	require.NoError(t, c.Delete(context.Background(), id))

	err := c.Delete(context.Background(), id)
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, "not found", apiErr.Message)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestListTemplates_Propagates(t *testing.T) {
	srv, c := newClient(t)
	srv.SeedTemplate(mockapi.Record{"title": "A"})
	srv.SeedTemplate(mockapi.Record{"title": "B"})

	items, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	srv.FailWith(http.MethodGet, BasePath, http.StatusInternalServerError, "")
	_, err = c.List(context.Background())
	assert.Equal(t, http.StatusInternalServerError, client.StatusCode(err))
}

func TestGetTemplate(t *testing.T) {
	srv, c := newClient(t)
	id := srv.SeedTemplate(mockapi.Record{"title": "A"})

	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)

	missing, err := c.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	srv.FailWith(http.MethodGet, BasePath+"/"+id, http.StatusForbidden, `{"message":"no access"}`)
	_, err = c.Get(context.Background(), id)
	assert.Equal(t, http.StatusForbidden, client.StatusCode(err))
}

func TestUpdateTemplate(t *testing.T) {
	srv, c := newClient(t)
	id := srv.SeedTemplate(mockapi.Record{"title": "A", "category": "consulting"})

	title := "Renamed"
	updated, err := c.Update(context.Background(), id, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "consulting", updated.Category)

	assert.JSONEq(t, `{"title":"Renamed"}`, srv.LastRequest().Body)
}

func TestDuplicateTemplate(t *testing.T) {
	srv, c := newClient(t)
	id := srv.SeedTemplate(mockapi.Record{"title": "A"})

	dup, err := c.Duplicate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "A (copy)", dup.Title)
	assert.NotEqual(t, id, dup.ID)

	_, err = c.Duplicate(context.Background(), "missing")
	assert.True(t, client.IsNotFound(err))
}

func TestApplyTemplate(t *testing.T) {
	srv, c := newClient(t)
	id := srv.SeedTemplate(mockapi.Record{"title": "A"})

	res, err := c.Apply(context.Background(), ApplyInput{TemplateID: id, ProjectID: "p1"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "p1", res.ProjectID)
	assert.Equal(t, "/api/templates-workflow-library/apply", srv.LastRequest().Path)

	_, err = c.Apply(context.Background(), ApplyInput{TemplateID: "missing"})
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "template_not_found", apiErr.Code)
}

func TestShareTemplate(t *testing.T) {
	srv, c := newClient(t)
	id := srv.SeedTemplate(mockapi.Record{"title": "A"})

	res, err := c.Share(context.Background(), id, SharePayload{Emails: []string{"x@y.com"}, Permission: "view"})
	require.NoError(t, err)
	assert.Equal(t, id, res.TemplateID)
	assert.Equal(t, []string{"x@y.com"}, res.SharedWith)
	assert.Equal(t, "view", res.Permission)
}

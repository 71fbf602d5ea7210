// ABOUTME: Client for the templates & workflow library resource
// ABOUTME: CRUD plus duplicate, apply-to-project, and share actions

package templates

import (
	"context"
	"log/slog"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/resource"
)

// BasePath is the collection endpoint.
const BasePath = "/templates-workflow-library"

// Template is a reusable project blueprint.
type Template struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Phases      []Phase  `json:"phases,omitempty"`
	Roles       []Role   `json:"roles,omitempty"`
	IsPublic    bool     `json:"is_public,omitempty"`
	UsageCount  int      `json:"usage_count,omitempty"`
	CreatedBy   string   `json:"created_by,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// Phase groups the tasks and decisions of one project stage.
type Phase struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name"`
	Order        int        `json:"order"`
	DurationDays int        `json:"duration_days,omitempty"`
	Tasks        []Task     `json:"tasks,omitempty"`
	Decisions    []Decision `json:"decisions,omitempty"`
}

// Task is a unit of work inside a phase.
type Task struct {
	ID             string  `json:"id,omitempty"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
	Role           string  `json:"role,omitempty"`
}

// Decision is an approval gate inside a phase.
type Decision struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Approvers   []string `json:"approvers,omitempty"`
}

// Role is a staffing slot the template expects.
type Role struct {
	ID            string  `json:"id,omitempty"`
	Name          string  `json:"name"`
	AllocationPct float64 `json:"allocation_pct,omitempty"`
	HourlyRate    float64 `json:"hourly_rate,omitempty"`
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Phases      []Phase  `json:"phases,omitempty"`
	Roles       []Role   `json:"roles,omitempty"`
	IsPublic    bool     `json:"is_public,omitempty"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Phases      []Phase  `json:"phases,omitempty"`
	Roles       []Role   `json:"roles,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// ApplyInput applies a template to a project.
type ApplyInput struct {
	TemplateID string `json:"template_id"`
	ProjectID  string `json:"project_id,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
}

// ApplyResult is returned by apply.
type ApplyResult struct {
	ProjectID  string `json:"project_id,omitempty"`
	TemplateID string `json:"template_id"`
	Applied    bool   `json:"applied"`
}

// SharePayload shares a template with other people.
type SharePayload struct {
	Emails     []string `json:"emails"`
	Permission string   `json:"permission,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// ShareResult is returned by share.
type ShareResult struct {
	TemplateID string   `json:"template_id"`
	SharedWith []string `json:"shared_with"`
	Permission string   `json:"permission,omitempty"`
}

// Client is the templates library resource client.
type Client struct {
	col    *resource.Collection[Template]
	logger *slog.Logger
}

// New creates a templates client.
func New(c *client.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{col: resource.NewCollection[Template](c, BasePath), logger: logger}
}

// List returns every template. Errors propagate: the library view is the
// primary content, not an optional widget.
func (c *Client) List(ctx context.Context) ([]Template, error) {
	return c.col.List(ctx)
}

// Get returns one template, or nil if the backend reports it missing.
// Other failures propagate.
func (c *Client) Get(ctx context.Context, id string) (*Template, error) {
	t, err := c.col.Get(ctx, id)
	if client.IsNotFound(err) {
		c.logger.Debug("Template not found", "id", id)
		return nil, nil
	}
	return t, err
}

func (c *Client) Create(ctx context.Context, input CreateInput) (*Template, error) {
	return c.col.Create(ctx, input)
}

func (c *Client) Update(ctx context.Context, id string, patch UpdateInput) (*Template, error) {
	return c.col.Update(ctx, id, patch)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.col.Delete(ctx, id)
}

// Duplicate copies a template, returning the new record.
func (c *Client) Duplicate(ctx context.Context, id string) (*Template, error) {
	return resource.PostAction[*Template](ctx, c.col, nil, id, "duplicate")
}

// Apply instantiates a template on a project.
func (c *Client) Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error) {
	return resource.PostAction[*ApplyResult](ctx, c.col, input, "apply")
}

// Share grants other people access to a template.
func (c *Client) Share(ctx context.Context, id string, payload SharePayload) (*ShareResult, error) {
	return resource.PostAction[*ShareResult](ctx, c.col, payload, id, "share")
}

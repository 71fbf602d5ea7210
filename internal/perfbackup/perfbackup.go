// ABOUTME: Client for the performance, caching and backup settings resource
// ABOUTME: Reads degrade to empty results so dashboards keep rendering; writes propagate

package perfbackup

import (
	"context"
	"log/slog"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/resource"
)

// BasePath is the collection endpoint.
const BasePath = "/performance-caching-backup"

// Record kinds.
const (
	KindPerformance = "performance"
	KindCaching     = "caching"
	KindBackup      = "backup"
)

// Record is one performance, caching or backup configuration entry.
type Record struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Kind          string         `json:"kind,omitempty"`
	Status        string         `json:"status,omitempty"`
	Enabled       bool           `json:"enabled,omitempty"`
	Target        string         `json:"target,omitempty"`
	Schedule      string         `json:"schedule,omitempty"`
	RetentionDays int            `json:"retention_days,omitempty"`
	SizeBytes     int64          `json:"size_bytes,omitempty"`
	LastRunAt     string         `json:"last_run_at,omitempty"`
	Settings      map[string]any `json:"settings,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Name          string         `json:"name"`
	Kind          string         `json:"kind,omitempty"`
	Enabled       *bool          `json:"enabled,omitempty"`
	Target        string         `json:"target,omitempty"`
	Schedule      string         `json:"schedule,omitempty"`
	RetentionDays int            `json:"retention_days,omitempty"`
	Settings      map[string]any `json:"settings,omitempty"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name          *string        `json:"name,omitempty"`
	Status        *string        `json:"status,omitempty"`
	Enabled       *bool          `json:"enabled,omitempty"`
	Target        *string        `json:"target,omitempty"`
	Schedule      *string        `json:"schedule,omitempty"`
	RetentionDays *int           `json:"retention_days,omitempty"`
	Settings      map[string]any `json:"settings,omitempty"`
}

// Stats summarises the collection.
type Stats struct {
	Total          int            `json:"total"`
	ByKind         map[string]int `json:"by_kind,omitempty"`
	ByStatus       map[string]int `json:"by_status,omitempty"`
	TotalSizeBytes int64          `json:"total_size_bytes,omitempty"`
	CacheHitRate   float64        `json:"cache_hit_rate,omitempty"`
	LastBackupAt   string         `json:"last_backup_at,omitempty"`
}

// Client is the performance/caching/backup resource client.
type Client struct {
	col    *resource.Collection[Record]
	logger *slog.Logger
}

// New creates a performance/caching/backup client.
func New(c *client.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{col: resource.NewCollection[Record](c, BasePath), logger: logger}
}

// List returns all records, or an empty list if the backend fails.
func (c *Client) List(ctx context.Context) []Record {
	items, err := c.col.List(ctx)
	return resource.OrEmpty(c.logger, "perfbackup.list", items, err)
}

// Get returns one record, or nil on any failure.
func (c *Client) Get(ctx context.Context, id string) *Record {
	rec, err := c.col.Get(ctx, id)
	return resource.OrAbsent(c.logger, "perfbackup.get", rec, err)
}

// Stats returns collection statistics, or zero stats on any failure.
func (c *Client) Stats(ctx context.Context) Stats {
	stats, err := client.Get[Stats](ctx, c.col.Client(), c.col.Path("stats"))
	return resource.OrZero(c.logger, "perfbackup.stats", stats, err)
}

func (c *Client) Create(ctx context.Context, input CreateInput) (*Record, error) {
	return c.col.Create(ctx, input)
}

func (c *Client) Update(ctx context.Context, id string, patch UpdateInput) (*Record, error) {
	return c.col.Update(ctx, id, patch)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.col.Delete(ctx, id)
}

package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
	"github.com/jwebster45206/crawl-engine/pkg/dungeon"
)

// SavedCrawl is the persisted form of a run: the full crawl state plus the
// serialized random source, so a reload continues the exact same sequence.
type SavedCrawl struct {
	State     *dungeon.Crawl `json:"state"`
	RNG       []byte         `json:"rng"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Storage defines persistence for crawls (Redis-backed) and read access to
// the room catalog (filesystem-backed).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Crawl operations
	SaveCrawl(ctx context.Context, id uuid.UUID, sc *SavedCrawl) error
	LoadCrawl(ctx context.Context, id uuid.UUID) (*SavedCrawl, error)
	DeleteCrawl(ctx context.Context, id uuid.UUID) error

	// Catalog operations
	GetCatalog(ctx context.Context) (catalog.Catalog, error)
}

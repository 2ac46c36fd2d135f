package storage

import (
	"context"
	"errors"

	"github.com/pagesift/pagesift/internal/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ResultStore persists crawl results and proxied social exchanges.
type ResultStore interface {
	// SaveCrawl persists one aggregated crawl result.
	SaveCrawl(ctx context.Context, result *types.CrawlResult) error

	// SaveSocial persists one proxied social API exchange.
	SaveSocial(ctx context.Context, record *types.SocialRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// UserStore is the persistence surface behind the users endpoints.
type UserStore interface {
	ListUsers(ctx context.Context) ([]types.User, error)
	GetUser(ctx context.Context, id int64) (*types.User, error)
	CreateUser(ctx context.Context, req *types.CreateUserRequest) (*types.User, error)
	UpdateUser(ctx context.Context, id int64, req *types.UpdateUserRequest) (*types.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

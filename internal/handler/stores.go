package handler

import (
	"context"
	"time"

	"github.com/iliyamo/ticket-compare/internal/model"
	"github.com/iliyamo/ticket-compare/internal/service"
)

// UserStore is the subset of the user repository the handlers need.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateDisplayName(ctx context.Context, id uint64, name string) error
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// EventFinder is implemented by service.EventService.
type EventFinder interface {
	Search(ctx context.Context, q service.SearchQuery) service.SearchResult
	Discover(ctx context.Context, userID uint64) service.SearchResult
	Compare(ctx context.Context, eventID string, userID uint64) model.Comparison
}

// dbTimeout bounds every store call made from a handler.
const dbTimeout = 5 * time.Second

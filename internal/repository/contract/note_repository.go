package contract

import (
	"context"
	"errors"
	"time"

	"noteguard-be/internal/entity"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned by targeted writes that matched no row.
var ErrRecordNotFound = errors.New("record not found")

type Page struct {
	Limit  int
	Offset int
}

// NoteRepository persists notes as stored (ciphertext). Finders return
// (nil, nil) when nothing matches.
type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	// FindByShareToken only returns notes whose share is still active at now.
	FindByShareToken(ctx context.Context, token string, now time.Time) (*entity.Note, error)
	FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Note, error)
	// FindAllLive pages over notes not expired at now, newest first.
	FindAllLive(ctx context.Context, page Page, now time.Time) ([]*entity.Note, error)

	// UpdateContent writes title, content and updated_at only. A note that
	// has expired by now counts as missing and yields ErrRecordNotFound.
	UpdateContent(ctx context.Context, note *entity.Note, now time.Time) error
	// SetShare writes both share columns in one statement.
	SetShare(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ClearShare(ctx context.Context, id uuid.UUID) error

	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByOwner(ctx context.Context, ownerId uuid.UUID) (int64, error)

	InvalidateExpiredShares(ctx context.Context, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	CountExpired(ctx context.Context, now time.Time) (int64, error)
	CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountByOwner(ctx context.Context, ownerId uuid.UUID) (int64, error)
	CountActiveShares(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ErrDuplicateKey is returned when a write violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

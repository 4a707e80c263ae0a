package memory

import (
	"context"
	"sort"
	"time"

	"noteguard-be/internal/entity"
	"noteguard-be/internal/repository/contract"

	"github.com/google/uuid"
)

type NoteRepository struct {
	store *Store
}

func NewNoteRepository(store *Store) contract.NoteRepository {
	return &NoteRepository{store: store}
}

// each walks every stored note. Callers hold the store lock.
func (r *NoteRepository) each(fn func(n *entity.Note)) {
	for _, item := range r.store.notes.Items() {
		fn(item.Object.(*entity.Note))
	}
}

func (r *NoteRepository) get(id uuid.UUID) (*entity.Note, bool) {
	x, found := r.store.notes.Get(id.String())
	if !found {
		return nil, false
	}
	return x.(*entity.Note), true
}

func (r *NoteRepository) Create(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if note.Id == uuid.Nil {
		note.Id = uuid.New()
	}
	if _, exists := r.get(note.Id); exists {
		return contract.ErrDuplicateKey
	}
	r.store.notes.Set(note.Id.String(), note.Clone(), 0)
	return nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	n, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return n.Clone(), nil
}

func (r *NoteRepository) FindByShareToken(ctx context.Context, token string, now time.Time) (*entity.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var found *entity.Note
	r.each(func(n *entity.Note) {
		if n.ShareToken != nil && *n.ShareToken == token && n.HasActiveShare(now) {
			found = n.Clone()
		}
	})
	return found, nil
}

func (r *NoteRepository) FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	notes := make([]*entity.Note, 0)
	r.each(func(n *entity.Note) {
		if n.OwnerId == ownerId {
			notes = append(notes, n.Clone())
		}
	})
	sortNewestFirst(notes)
	return notes, nil
}

func (r *NoteRepository) FindAllLive(ctx context.Context, page contract.Page, now time.Time) ([]*entity.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	notes := make([]*entity.Note, 0, r.store.notes.ItemCount())
	r.each(func(n *entity.Note) {
		if !n.IsExpired(now) {
			notes = append(notes, n.Clone())
		}
	})
	sortNewestFirst(notes)

	if page.Offset >= len(notes) {
		return []*entity.Note{}, nil
	}
	notes = notes[page.Offset:]
	if page.Limit > 0 && page.Limit < len(notes) {
		notes = notes[:page.Limit]
	}
	return notes, nil
}

func (r *NoteRepository) UpdateContent(ctx context.Context, note *entity.Note, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.get(note.Id)
	if !ok || stored.IsExpired(now) {
		return contract.ErrRecordNotFound
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.UpdatedAt = note.UpdatedAt
	return nil
}

func (r *NoteRepository) SetShare(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.get(id)
	if !ok {
		return contract.ErrRecordNotFound
	}

	duplicate := false
	r.each(func(n *entity.Note) {
		if n.Id != id && n.ShareToken != nil && *n.ShareToken == token {
			duplicate = true
		}
	})
	if duplicate {
		return contract.ErrDuplicateKey
	}

	stored.ShareToken = &token
	stored.ShareExpirationTime = &expiresAt
	return nil
}

func (r *NoteRepository) ClearShare(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.get(id)
	if !ok {
		return contract.ErrRecordNotFound
	}
	stored.ShareToken = nil
	stored.ShareExpirationTime = nil
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.get(id); !ok {
		return contract.ErrRecordNotFound
	}
	r.store.notes.Delete(id.String())
	return nil
}

func (r *NoteRepository) DeleteAllByOwner(ctx context.Context, ownerId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.deleteWhere(func(n *entity.Note) bool { return n.OwnerId == ownerId }), nil
}

func (r *NoteRepository) InvalidateExpiredShares(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	r.each(func(note *entity.Note) {
		if note.ShareToken != nil && !note.HasActiveShare(now) {
			note.ShareToken = nil
			note.ShareExpirationTime = nil
			n++
		}
	})
	return n, nil
}

func (r *NoteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.deleteWhere(func(n *entity.Note) bool { return n.IsExpired(now) }), nil
}

// deleteWhere removes every matching note. Callers hold the write lock.
func (r *NoteRepository) deleteWhere(match func(n *entity.Note) bool) int64 {
	var ids []string
	r.each(func(n *entity.Note) {
		if match(n) {
			ids = append(ids, n.Id.String())
		}
	})
	for _, id := range ids {
		r.store.notes.Delete(id)
	}
	return int64(len(ids))
}

func (r *NoteRepository) countWhere(match func(n *entity.Note) bool) int64 {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	r.each(func(note *entity.Note) {
		if match(note) {
			n++
		}
	})
	return n
}

func (r *NoteRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.countWhere(func(n *entity.Note) bool { return n.IsExpired(now) }), nil
}

func (r *NoteRepository) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.countWhere(func(n *entity.Note) bool {
		return n.ExpirationTime != nil && n.ExpirationTime.After(from) && !n.ExpirationTime.After(to)
	}), nil
}

func (r *NoteRepository) CountByOwner(ctx context.Context, ownerId uuid.UUID) (int64, error) {
	return r.countWhere(func(n *entity.Note) bool { return n.OwnerId == ownerId }), nil
}

func (r *NoteRepository) CountActiveShares(ctx context.Context, now time.Time) (int64, error) {
	return r.countWhere(func(n *entity.Note) bool { return n.HasActiveShare(now) }), nil
}

func (r *NoteRepository) Count(ctx context.Context) (int64, error) {
	return r.countWhere(func(*entity.Note) bool { return true }), nil
}

func sortNewestFirst(notes []*entity.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].Id.String() < notes[j].Id.String()
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

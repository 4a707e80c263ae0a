package memory

import (
	"context"
	"sort"
	"strings"

	"noteguard-be/internal/entity"
	"noteguard-be/internal/repository/contract"

	"github.com/google/uuid"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) contract.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) findWhere(match func(u *entity.User) bool) *entity.User {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.users.Items() {
		u := item.Object.(*entity.User)
		if match(u) {
			return u.Clone()
		}
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	for _, item := range r.store.users.Items() {
		u := item.Object.(*entity.User)
		if u.Id == user.Id || u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return contract.ErrDuplicateKey
		}
	}
	r.store.users.Set(user.Id.String(), user.Clone(), 0)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findWhere(func(u *entity.User) bool { return u.Id == id }), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findWhere(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findWhere(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*entity.User, 0, r.store.users.ItemCount())
	for _, item := range r.store.users.Items() {
		users = append(users, item.Object.(*entity.User).Clone())
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(r.store.users.ItemCount()), nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role entity.UserRole) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, item := range r.store.users.Items() {
		if item.Object.(*entity.User).Role == role {
			n++
		}
	}
	return n, nil
}

// Delete removes the user and, like the notes.owner_id foreign key, every
// note the user owns.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, found := r.store.users.Get(id.String()); !found {
		return contract.ErrRecordNotFound
	}
	r.store.users.Delete(id.String())

	notes := &NoteRepository{store: r.store}
	notes.deleteWhere(func(n *entity.Note) bool { return n.OwnerId == id })
	return nil
}

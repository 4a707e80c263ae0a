package memory

import (
	"context"
	"fmt"

	"noteguard-be/internal/repository/contract"
	"noteguard-be/internal/repository/unitofwork"
)

// UnitOfWork tracks Begin/Commit/Rollback so callers behave the same as
// against postgres. Writes apply immediately; Rollback does not undo them, so
// a multi-step operation that fails halfway leaves its earlier steps applied.
type UnitOfWork struct {
	store  *Store
	active bool
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return fmt.Errorf("no transaction to rollback")
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) UserRepository() contract.UserRepository {
	return NewUserRepository(u.store)
}

func (u *UnitOfWork) NoteRepository() contract.NoteRepository {
	return NewNoteRepository(u.store)
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

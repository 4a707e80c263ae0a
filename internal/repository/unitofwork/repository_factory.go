package unitofwork

import "context"

// RepositoryFactory hands services a fresh UnitOfWork per operation. The
// gorm and memory stores each provide one.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

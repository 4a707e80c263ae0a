// Package memory is an in-process implementation of the repository
// contracts, used by tests and by DB_DRIVER=memory.
package memory

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// Store holds notes and users keyed by id. Values are cloned on the way in
// and out so callers never share pointers with the store.
type Store struct {
	mu    sync.RWMutex
	notes *cache.Cache
	users *cache.Cache
}

func NewStore() *Store {
	return &Store{
		notes: cache.New(cache.NoExpiration, 0),
		users: cache.New(cache.NoExpiration, 0),
	}
}

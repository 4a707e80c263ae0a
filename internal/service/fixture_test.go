package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/memory"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/pkg/cipher"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/events"
	"noteguard-be/pkg/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixtureStart = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	store     *memory.Store
	factory   unitofwork.RepositoryFactory
	clock     *clock.Fake
	cipher    *cipher.Service
	metrics   *metrics.Collector
	publisher *recordingPublisher

	notes   INoteService
	shares  IShareService
	cleanup ICleanupService
	admin   IAdminService
	auth    IAuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c, err := cipher.New("test-encryption-secret")
	require.NoError(t, err)

	f := &fixture{
		store:     memory.NewStore(),
		clock:     clock.NewFake(fixtureStart),
		cipher:    c,
		metrics:   metrics.NewCollector("noteguard_test"),
		publisher: &recordingPublisher{},
	}
	f.factory = memory.NewRepositoryFactory(f.store)
	log := logger.NewNopLogger()

	f.notes = NewNoteService(f.factory, c, f.clock, f.publisher, f.metrics, log, 8760*time.Hour)
	f.shares = NewShareService(f.factory, c, f.clock, f.publisher, f.metrics, log, "http://notes.test", 24*time.Hour, 720*time.Hour)
	f.cleanup = NewCleanupService(f.factory, f.clock, nil, f.publisher, f.metrics, log, time.Hour)
	f.admin = NewAdminService(f.factory, c, f.clock, f.publisher, f.metrics, log)
	f.auth = NewAuthService(f.factory, f.clock, log, "test-jwt-secret", time.Hour)
	return f
}

// user inserts a user directly and returns it as an actor.
func (f *fixture) user(t *testing.T, name string, role entity.UserRole) entity.Actor {
	t.Helper()
	u := &entity.User{
		Id:        uuid.New(),
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.factory.NewUnitOfWork(context.Background()).UserRepository().Create(context.Background(), u))
	return entity.Actor{Id: u.Id, Role: role}
}

func (f *fixture) stored(t *testing.T, id uuid.UUID) *entity.Note {
	t.Helper()
	n, err := f.factory.NewUnitOfWork(context.Background()).NoteRepository().FindByID(context.Background(), id)
	require.NoError(t, err)
	return n
}

func (f *fixture) noteCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.factory.NewUnitOfWork(context.Background()).NoteRepository().Count(context.Background())
	require.NoError(t, err)
	return n
}

func intPtr(v int) *int { return &v }

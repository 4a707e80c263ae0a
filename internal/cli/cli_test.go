package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"noteguard-be/internal/config"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/memory"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/events"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type harness struct {
	opts    Options
	factory unitofwork.RepositoryFactory
	clock   *clock.Fake
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	color.NoColor = true

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Security: config.SecurityConfig{EncryptionKey: "cli-key", JWTSecret: "cli-jwt", JWTExpiration: time.Hour},
		Notes:    config.NotesConfig{ShareDefaultTTL: time.Hour, ShareMaxTTL: 2 * time.Hour, NoteMaxTTL: 24 * time.Hour},
		Cleanup:  config.CleanupConfig{Interval: time.Hour, LockTTL: time.Minute},
	}
	factory := memory.NewRepositoryFactory(memory.NewStore())
	clk := clock.NewFake(start)

	return &harness{
		factory: factory,
		clock:   clk,
		opts: Options{
			Config: cfg,
			Clock:  clk,
			Logger: logger.NewNopLogger(),
			Storage: func(*config.Config) (unitofwork.RepositoryFactory, func() error, error) {
				return factory, func() error { return nil }, nil
			},
		},
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(h.opts)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) seedNote(t *testing.T, expiresIn time.Duration) {
	t.Helper()
	ctx := context.Background()
	uow := h.factory.NewUnitOfWork(ctx)

	owner := &entity.User{Id: uuid.New(), Username: uuid.NewString()[:8], Email: uuid.NewString() + "@example.com", Role: entity.UserRoleUser}
	require.NoError(t, uow.UserRepository().Create(ctx, owner))

	expiresAt := start.Add(expiresIn)
	require.NoError(t, uow.NoteRepository().Create(ctx, &entity.Note{
		Id:             uuid.New(),
		OwnerId:        owner.Id,
		Title:          "sealed",
		Content:        "sealed",
		CreatedAt:      start,
		UpdatedAt:      start,
		ExpirationTime: &expiresAt,
	}))
}

func TestSweepCommand(t *testing.T) {
	h := newHarness(t)
	h.seedNote(t, time.Hour)
	h.seedNote(t, 10*time.Hour)
	h.clock.Advance(2 * time.Hour)

	out, err := h.run(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleanup completed")
	assert.Contains(t, out, "Notes purged:            1")

	count, err := h.factory.NewUnitOfWork(context.Background()).NoteRepository().Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestExpiringCommand(t *testing.T) {
	h := newHarness(t)
	h.seedNote(t, time.Hour)
	h.seedNote(t, 5*time.Hour)
	h.seedNote(t, 50*time.Hour)
	h.clock.Advance(2 * time.Hour)

	out, err := h.run(t, "expiring", "--hours", "24")
	require.NoError(t, err)
	assert.Contains(t, out, "Notes expiring within 24h: 1")
	assert.Contains(t, out, "Already expired, awaiting sweep: 1")

	_, err = h.run(t, "expiring", "--hours", "0")
	assert.Error(t, err)
}

func TestCreateAdminAndStats(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "create-admin", "--username", "root", "--email", "root@example.com", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Administrator created")

	_, err = h.run(t, "create-admin", "--username", "root", "--email", "other@example.com", "--password", "password123")
	assert.Error(t, err)

	_, err = h.run(t, "create-admin", "--username", "x", "--email", "bad", "--password", "short")
	assert.Error(t, err)

	h.seedNote(t, time.Hour)
	out, err = h.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Admins:  1")
	assert.Contains(t, out, "Regular: 1")
	assert.Contains(t, out, "Expiring in 24h:    1")
}

func TestCommandsRejectInvalidConfig(t *testing.T) {
	h := newHarness(t)
	h.opts.Config.Security.EncryptionKey = ""

	_, err := h.run(t, "sweep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENCRYPTION_KEY")
}

func TestMigrateRequiresPostgres(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER=postgres")
}

func TestWatchRequiresNats(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATS_URL")
}

func TestPrintEvent(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer

	err := printEvent(&out, events.BaseEvent{
		Type:       events.NoteShared,
		Data:       map[string]interface{}{"note_id": "n-1"},
		OccurredAt: start,
	})
	require.NoError(t, err)

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "2026-03-10T08:00:00Z NOTE_SHARED"))
	assert.Contains(t, line, `{"note_id":"n-1"}`)
}

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/pkg/events"
	"noteguard-be/pkg/sharetoken"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareIssueResolveRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A", Content: "secret"})
	require.NoError(t, err)

	share, err := f.shares.Issue(ctx, owner, note.Id, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, sharetoken.Valid(share.Token))
	assert.Equal(t, "http://notes.test/api/notes/share/"+share.Token, share.ShareUrl)
	assert.Equal(t, fixtureStart.Add(24*time.Hour), share.ExpiresAt)

	shared, err := f.shares.Resolve(ctx, share.Token)
	require.NoError(t, err)
	assert.Equal(t, "A", shared.Title)
	assert.Equal(t, "secret", shared.Content)
	assert.Equal(t, share.ExpiresAt, shared.SharedUntil)

	require.NoError(t, f.shares.Revoke(ctx, owner, note.Id))

	_, err = f.shares.Resolve(ctx, share.Token)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	stored := f.stored(t, note.Id)
	assert.Nil(t, stored.ShareToken)
	assert.Nil(t, stored.ShareExpirationTime)

	assert.Equal(t, []string{events.NoteCreated, events.NoteShared, events.NoteShareRevoked}, f.publisher.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ShareResolves.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ShareResolves.WithLabelValues("not_found")))
}

func TestRevokeWithoutShareIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A"})
	require.NoError(t, err)

	require.NoError(t, f.shares.Revoke(ctx, owner, note.Id))
	assert.Equal(t, []string{events.NoteCreated}, f.publisher.types())
}

func TestReissueInvalidatesPreviousToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A", Content: "secret"})
	require.NoError(t, err)

	first, err := f.shares.Issue(ctx, owner, note.Id, time.Hour)
	require.NoError(t, err)
	second, err := f.shares.Issue(ctx, owner, note.Id, 2*time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = f.shares.Resolve(ctx, first.Token)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	shared, err := f.shares.Resolve(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, fixtureStart.Add(2*time.Hour), shared.SharedUntil)
}

func TestShareExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A"})
	require.NoError(t, err)
	share, err := f.shares.Issue(ctx, owner, note.Id, time.Hour)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.shares.Resolve(ctx, share.Token)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// The note itself is unaffected by the share expiring.
	_, err = f.notes.Show(ctx, owner, note.Id)
	require.NoError(t, err)

	res, err := f.cleanup.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.SharesInvalidated)
	assert.Zero(t, res.NotesPurged)
	assert.Nil(t, f.stored(t, note.Id).ShareToken)
}

func TestSharedNoteFollowsNoteExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A", ExpirationHours: intPtr(1)})
	require.NoError(t, err)
	share, err := f.shares.Issue(ctx, owner, note.Id, 24*time.Hour)
	require.NoError(t, err)

	f.clock.Advance(90 * time.Minute)

	_, err = f.shares.Resolve(ctx, share.Token)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResolveRejectsMalformedTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []string{"", "short", strings.Repeat("!", sharetoken.Length), strings.Repeat("a", sharetoken.Length+1)}
	for _, token := range tests {
		_, err := f.shares.Resolve(ctx, token)
		assert.ErrorIs(t, err, apperror.ErrNotFound, "token %q", token)
	}

	unknown, err := sharetoken.Generate()
	require.NoError(t, err)
	_, err = f.shares.Resolve(ctx, unknown)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestShareOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)
	admin := f.user(t, "admin", entity.UserRoleAdmin)
	stranger := f.user(t, "stranger", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A"})
	require.NoError(t, err)

	for _, actor := range []entity.Actor{admin, stranger} {
		_, err := f.shares.Issue(ctx, actor, note.Id, time.Hour)
		assert.ErrorIs(t, err, apperror.ErrAccessDenied)
	}

	_, err = f.shares.Issue(ctx, owner, note.Id, time.Hour)
	require.NoError(t, err)
	assert.ErrorIs(t, f.shares.Revoke(ctx, admin, note.Id), apperror.ErrAccessDenied)
	assert.ErrorIs(t, f.shares.Revoke(ctx, stranger, note.Id), apperror.ErrAccessDenied)
	assert.NotNil(t, f.stored(t, note.Id).ShareToken)
}

func TestShareValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A"})
	require.NoError(t, err)

	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{name: "zero", ttl: 0},
		{name: "negative", ttl: -time.Hour},
		{name: "above max", ttl: 721 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.shares.Issue(ctx, owner, note.Id, tt.ttl)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	_, err = f.shares.Issue(ctx, owner, uuid.New(), time.Hour)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 24*time.Hour, f.shares.DefaultTTL())
}

func TestShareOfExpiredNoteIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.UserRoleUser)

	note, err := f.notes.Create(ctx, owner, &dto.CreateNoteRequest{Title: "A", ExpirationHours: intPtr(1)})
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	_, err = f.shares.Issue(ctx, owner, note.Id, time.Hour)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

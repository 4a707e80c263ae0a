package service

import (
	"context"
	"errors"
	"time"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/contract"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/pkg/access"
	"noteguard-be/pkg/cipher"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/events"
	"noteguard-be/pkg/metrics"
	"noteguard-be/pkg/sharetoken"

	"github.com/google/uuid"
)

const (
	sharedNoteNotFoundMessage = "shared note not found or expired"
	shareTokenAttempts        = 3
)

type IShareService interface {
	Issue(ctx context.Context, actor entity.Actor, noteId uuid.UUID, ttl time.Duration) (*dto.ShareTokenResponse, error)
	Resolve(ctx context.Context, token string) (*dto.SharedNoteResponse, error)
	Revoke(ctx context.Context, actor entity.Actor, noteId uuid.UUID) error
	DefaultTTL() time.Duration
}

type shareService struct {
	uowFactory unitofwork.RepositoryFactory
	codec      noteCodec
	guard      *access.Guard
	clock      clock.Clock
	publisher  IPublisherService
	metrics    *metrics.Collector
	logger     logger.ILogger
	baseURL    string
	defaultTTL time.Duration
	maxTTL     time.Duration
}

func NewShareService(
	uowFactory unitofwork.RepositoryFactory,
	noteCipher cipher.Cipher,
	clk clock.Clock,
	publisher IPublisherService,
	collector *metrics.Collector,
	log logger.ILogger,
	baseURL string,
	defaultTTL, maxTTL time.Duration,
) IShareService {
	return &shareService{
		uowFactory: uowFactory,
		codec:      noteCodec{cipher: noteCipher},
		guard:      access.NewGuard(),
		clock:      clk,
		publisher:  publisher,
		metrics:    collector,
		logger:     log,
		baseURL:    baseURL,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
	}
}

func (s *shareService) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Issue replaces any previous token, so an older link stops resolving.
func (s *shareService) Issue(ctx context.Context, actor entity.Actor, noteId uuid.UUID, ttl time.Duration) (*dto.ShareTokenResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()
	note, err := loadLive(ctx, uow, noteId, now)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Require(actor, note.OwnerId, access.Owner); err != nil {
		return nil, err
	}
	if ttl <= 0 || ttl > s.maxTTL {
		return nil, apperror.Validation("share expiration is out of range")
	}

	expiresAt := now.Add(ttl)
	var token string
	for attempt := 1; ; attempt++ {
		token, err = sharetoken.Generate()
		if err != nil {
			return nil, apperror.Internal("failed to generate share token", err)
		}
		err = uow.NoteRepository().SetShare(ctx, noteId, token, expiresAt)
		if err == nil {
			break
		}
		if errors.Is(err, contract.ErrRecordNotFound) {
			return nil, apperror.NotFound(noteNotFoundMessage)
		}
		if !errors.Is(err, contract.ErrDuplicateKey) || attempt == shareTokenAttempts {
			return nil, apperror.Internal("failed to store share token", err)
		}
	}

	s.metrics.SharesIssued.Inc()
	s.publish(ctx, events.NoteShared, now, map[string]interface{}{
		"note_id":    noteId,
		"owner_id":   note.OwnerId,
		"expires_at": expiresAt,
	})
	s.logger.Info("ShareService", "Share link issued", map[string]interface{}{
		"note_id":    noteId.String(),
		"expires_at": expiresAt,
	})

	return &dto.ShareTokenResponse{
		Token:     token,
		ShareUrl:  s.baseURL + "/api/notes/share/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *shareService) Resolve(ctx context.Context, token string) (*dto.SharedNoteResponse, error) {
	if !sharetoken.Valid(token) {
		s.metrics.ShareResolves.WithLabelValues("not_found").Inc()
		return nil, apperror.NotFound(sharedNoteNotFoundMessage)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()
	note, err := uow.NoteRepository().FindByShareToken(ctx, token, now)
	if err != nil {
		s.metrics.ShareResolves.WithLabelValues("error").Inc()
		return nil, apperror.Internal("failed to load shared note", err)
	}
	if note == nil || !note.HasActiveShare(now) || note.IsExpired(now) {
		s.metrics.ShareResolves.WithLabelValues("not_found").Inc()
		return nil, apperror.NotFound(sharedNoteNotFoundMessage)
	}

	title, content, err := s.codec.open(note)
	if err != nil {
		s.metrics.ShareResolves.WithLabelValues("error").Inc()
		s.metrics.DecryptErrors.WithLabelValues("share").Inc()
		s.logger.Error("ShareService", "Failed to decrypt shared note", map[string]interface{}{
			"note_id": note.Id.String(),
		})
		return nil, err
	}

	s.metrics.ShareResolves.WithLabelValues("found").Inc()
	return &dto.SharedNoteResponse{
		Title:          title,
		Content:        content,
		CreatedAt:      note.CreatedAt,
		UpdatedAt:      note.UpdatedAt,
		ExpirationTime: note.ExpirationTime,
		SharedUntil:    *note.ShareExpirationTime,
	}, nil
}

func (s *shareService) Revoke(ctx context.Context, actor entity.Actor, noteId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()
	note, err := loadLive(ctx, uow, noteId, now)
	if err != nil {
		return err
	}
	if err := s.guard.Require(actor, note.OwnerId, access.Owner); err != nil {
		return err
	}
	if note.ShareToken == nil {
		return nil
	}

	if err := uow.NoteRepository().ClearShare(ctx, noteId); err != nil {
		if errors.Is(err, contract.ErrRecordNotFound) {
			return apperror.NotFound(noteNotFoundMessage)
		}
		return apperror.Internal("failed to revoke share", err)
	}

	s.metrics.SharesRevoked.Inc()
	s.publish(ctx, events.NoteShareRevoked, now, map[string]interface{}{
		"note_id":  noteId,
		"owner_id": note.OwnerId,
	})
	return nil
}

func (s *shareService) publish(ctx context.Context, eventType string, at time.Time, data map[string]interface{}) {
	publishEvent(ctx, s.publisher, s.logger, "ShareService", eventType, at, data)
}

package service

import (
	"context"
	"errors"
	"strings"
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

	"github.com/google/uuid"
)

const noteNotFoundMessage = "note not found"

type INoteService interface {
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.NoteResponse, error)
	ListForOwner(ctx context.Context, actor entity.Actor) ([]*dto.NoteResponse, error)
	Update(ctx context.Context, actor entity.Actor, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, actor entity.Actor, id uuid.UUID) error
}

type noteService struct {
	uowFactory unitofwork.RepositoryFactory
	codec      noteCodec
	guard      *access.Guard
	clock      clock.Clock
	publisher  IPublisherService
	metrics    *metrics.Collector
	logger     logger.ILogger
	maxTTL     time.Duration
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	noteCipher cipher.Cipher,
	clk clock.Clock,
	publisher IPublisherService,
	collector *metrics.Collector,
	log logger.ILogger,
	maxTTL time.Duration,
) INoteService {
	return &noteService{
		uowFactory: uowFactory,
		codec:      noteCodec{cipher: noteCipher},
		guard:      access.NewGuard(),
		clock:      clk,
		publisher:  publisher,
		metrics:    collector,
		logger:     log,
		maxTTL:     maxTTL,
	}
}

// loadLive returns the note unless it is absent or expired at now; both
// cases produce the same NotFound.
func loadLive(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, now time.Time) (*entity.Note, error) {
	note, err := uow.NoteRepository().FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load note", err)
	}
	if note == nil || note.IsExpired(now) {
		return nil, apperror.NotFound(noteNotFoundMessage)
	}
	return note, nil
}

func (s *noteService) Create(ctx context.Context, actor entity.Actor, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperror.Validation("title must not be blank")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	owner, err := uow.UserRepository().FindByID(ctx, actor.Id)
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if owner == nil {
		return nil, apperror.Unauthorized("user no longer exists")
	}

	now := s.clock.Now()
	note := &entity.Note{
		Id:        uuid.New(),
		OwnerId:   actor.Id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ExpirationHours != nil {
		ttl, ok := clock.Hours(*req.ExpirationHours)
		if !ok || ttl > s.maxTTL {
			return nil, apperror.Validation("expiration_hours is out of range")
		}
		expiresAt := now.Add(ttl)
		note.ExpirationTime = &expiresAt
	}

	if err := s.codec.seal(note, req.Title, req.Content); err != nil {
		return nil, err
	}
	if err := uow.NoteRepository().Create(ctx, note); err != nil {
		return nil, apperror.Internal("failed to save note", err)
	}

	s.metrics.NotesCreated.Inc()
	s.publish(ctx, events.NoteCreated, now, map[string]interface{}{
		"note_id":    note.Id,
		"owner_id":   note.OwnerId,
		"expires_at": note.ExpirationTime,
	})
	s.logger.Info("NoteService", "Note created", map[string]interface{}{
		"note_id":  note.Id.String(),
		"owner_id": note.OwnerId.String(),
	})

	res := toNoteResponse(note, req.Title, req.Content)
	res.OwnerUsername = owner.Username
	return res, nil
}

func (s *noteService) Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := loadLive(ctx, uow, id, s.clock.Now())
	if err != nil {
		return nil, err
	}

	// Strangers get the same answer as for a missing id.
	if s.guard.Authorize(actor, note.OwnerId, access.OwnerOrAdmin) == access.Denied {
		return nil, apperror.NotFound(noteNotFoundMessage)
	}

	title, content, err := s.codec.open(note)
	if err != nil {
		s.metrics.DecryptErrors.WithLabelValues("show").Inc()
		s.logger.Error("NoteService", "Failed to decrypt note", map[string]interface{}{
			"note_id": note.Id.String(),
		})
		return nil, err
	}
	return toNoteResponse(note, title, content), nil
}

func (s *noteService) ListForOwner(ctx context.Context, actor entity.Actor) ([]*dto.NoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAllByOwner(ctx, actor.Id)
	if err != nil {
		return nil, apperror.Internal("failed to list notes", err)
	}

	now := s.clock.Now()
	res := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		if note.IsExpired(now) {
			continue
		}
		title, content, err := s.codec.open(note)
		if err != nil {
			s.metrics.DecryptErrors.WithLabelValues("list").Inc()
			s.logger.Warn("NoteService", "Skipping note that failed to decrypt", map[string]interface{}{
				"note_id": note.Id.String(),
			})
			continue
		}
		res = append(res, toNoteResponse(note, title, content))
	}
	return res, nil
}

func (s *noteService) Update(ctx context.Context, actor entity.Actor, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperror.Validation("title must not be blank")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()
	note, err := loadLive(ctx, uow, req.Id, now)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Require(actor, note.OwnerId, access.OwnerOrAdmin); err != nil {
		return nil, err
	}

	if err := s.codec.seal(note, req.Title, req.Content); err != nil {
		return nil, err
	}
	// The write re-checks expiry at its own timestamp; the note may have
	// expired since loadLive.
	note.UpdatedAt = s.clock.Now()

	if err := uow.NoteRepository().UpdateContent(ctx, note, note.UpdatedAt); err != nil {
		if errors.Is(err, contract.ErrRecordNotFound) {
			return nil, apperror.NotFound(noteNotFoundMessage)
		}
		return nil, apperror.Internal("failed to update note", err)
	}

	s.publish(ctx, events.NoteUpdated, note.UpdatedAt, map[string]interface{}{
		"note_id":  note.Id,
		"owner_id": note.OwnerId,
		"actor_id": actor.Id,
	})
	return toNoteResponse(note, req.Title, req.Content), nil
}

func (s *noteService) Delete(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()
	note, err := loadLive(ctx, uow, id, now)
	if err != nil {
		return err
	}
	if err := s.guard.Require(actor, note.OwnerId, access.OwnerOrAdmin); err != nil {
		return err
	}

	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		if errors.Is(err, contract.ErrRecordNotFound) {
			return apperror.NotFound(noteNotFoundMessage)
		}
		return apperror.Internal("failed to delete note", err)
	}

	s.metrics.NotesDeleted.Inc()
	s.publish(ctx, events.NoteDeleted, now, map[string]interface{}{
		"note_id":  note.Id,
		"owner_id": note.OwnerId,
		"actor_id": actor.Id,
	})
	s.logger.Info("NoteService", "Note deleted", map[string]interface{}{
		"note_id":  id.String(),
		"actor_id": actor.Id.String(),
	})
	return nil
}

func (s *noteService) publish(ctx context.Context, eventType string, at time.Time, data map[string]interface{}) {
	publishEvent(ctx, s.publisher, s.logger, "NoteService", eventType, at, data)
}

// publishEvent is best effort: a failed publish is logged and never fails
// the operation that produced the event.
func publishEvent(ctx context.Context, publisher IPublisherService, log logger.ILogger, module, eventType string, at time.Time, data map[string]interface{}) {
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: at}
	if err := publisher.Publish(ctx, evt); err != nil {
		log.Warn(module, "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

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

	"github.com/google/uuid"
)

type IAdminService interface {
	ListUsers(ctx context.Context, actor entity.Actor) ([]*dto.AdminUserResponse, error)
	ListNotes(ctx context.Context, actor entity.Actor, page contract.Page) ([]*dto.NoteResponse, error)
	DeleteUser(ctx context.Context, actor entity.Actor, id uuid.UUID) error
	UserStats(ctx context.Context, actor entity.Actor) (*dto.UserStatsResponse, error)
	NoteStats(ctx context.Context, actor entity.Actor) (*dto.NoteStatsResponse, error)
	Dashboard(ctx context.Context, actor entity.Actor) (*dto.DashboardResponse, error)
	GetLogs(ctx context.Context, actor entity.Actor, level string, limit, offset int) ([]logger.LogEntry, error)
	GetLogDetail(ctx context.Context, actor entity.Actor, id string) (*logger.LogEntry, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	codec      noteCodec
	guard      *access.Guard
	clock      clock.Clock
	publisher  IPublisherService
	metrics    *metrics.Collector
	logger     logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	noteCipher cipher.Cipher,
	clk clock.Clock,
	publisher IPublisherService,
	collector *metrics.Collector,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		codec:      noteCodec{cipher: noteCipher},
		guard:      access.NewGuard(),
		clock:      clk,
		publisher:  publisher,
		metrics:    collector,
		logger:     log,
	}
}

func (s *adminService) requireAdmin(actor entity.Actor) error {
	if s.guard.Authorize(actor, uuid.Nil, access.Admin) == access.Denied {
		return apperror.AccessDenied("administrator role required")
	}
	return nil
}

func (s *adminService) ListUsers(ctx context.Context, actor entity.Actor) ([]*dto.AdminUserResponse, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}

	res := make([]*dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		count, err := uow.NoteRepository().CountByOwner(ctx, u.Id)
		if err != nil {
			return nil, apperror.Internal("failed to count notes", err)
		}
		res = append(res, &dto.AdminUserResponse{UserResponse: toUserResponse(u), NoteCount: count})
	}
	return res, nil
}

// ListNotes returns every live note decrypted, newest first. Notes that fail
// to decrypt are left out and logged.
func (s *adminService) ListNotes(ctx context.Context, actor entity.Actor, page contract.Page) ([]*dto.NoteResponse, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()
	notes, err := uow.NoteRepository().FindAllLive(ctx, page, now)
	if err != nil {
		return nil, apperror.Internal("failed to list notes", err)
	}
	users, err := uow.UserRepository().FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}
	usernames := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		usernames[u.Id] = u.Username
	}

	res := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		title, content, err := s.codec.open(note)
		if err != nil {
			s.metrics.DecryptErrors.WithLabelValues("admin_list").Inc()
			s.logger.Warn("AdminService", "Skipping note that failed to decrypt", map[string]interface{}{
				"note_id": note.Id.String(),
			})
			continue
		}
		item := toNoteResponse(note, title, content)
		item.OwnerUsername = usernames[note.OwnerId]
		res = append(res, item)
	}
	return res, nil
}

// DeleteUser removes a regular user and all of their notes in one
// transaction. Admin accounts cannot be deleted here.
func (s *adminService) DeleteUser(ctx context.Context, actor entity.Actor, id uuid.UUID) (err error) {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindByID(ctx, id)
	if err != nil {
		return apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return apperror.NotFound("user not found")
	}
	if user.Role == entity.UserRoleAdmin {
		return apperror.AccessDenied("admin accounts cannot be deleted")
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal("failed to start transaction", err)
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	removed, err := uow.NoteRepository().DeleteAllByOwner(ctx, id)
	if err != nil {
		return apperror.Internal("failed to delete user notes", err)
	}
	if err = uow.UserRepository().Delete(ctx, id); err != nil {
		if errors.Is(err, contract.ErrRecordNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("failed to delete user", err)
	}
	if err = uow.Commit(); err != nil {
		return apperror.Internal("failed to commit user deletion", err)
	}

	now := s.clock.Now()
	publishEvent(ctx, s.publisher, s.logger, "AdminService", events.UserDeleted, now, map[string]interface{}{
		"user_id":       id,
		"actor_id":      actor.Id,
		"notes_removed": removed,
	})
	s.logger.Info("AdminService", "User deleted", map[string]interface{}{
		"user_id":       id.String(),
		"actor_id":      actor.Id.String(),
		"notes_removed": removed,
	})
	return nil
}

func (s *adminService) UserStats(ctx context.Context, actor entity.Actor) (*dto.UserStatsResponse, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userStats(ctx, s.uowFactory.NewUnitOfWork(ctx))
}

func (s *adminService) userStats(ctx context.Context, uow unitofwork.UnitOfWork) (*dto.UserStatsResponse, error) {
	users := uow.UserRepository()
	total, err := users.Count(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to count users", err)
	}
	admins, err := users.CountByRole(ctx, entity.UserRoleAdmin)
	if err != nil {
		return nil, apperror.Internal("failed to count admins", err)
	}
	return &dto.UserStatsResponse{
		TotalUsers:   total,
		AdminUsers:   admins,
		RegularUsers: total - admins,
	}, nil
}

func (s *adminService) NoteStats(ctx context.Context, actor entity.Actor) (*dto.NoteStatsResponse, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.noteStats(ctx, s.uowFactory.NewUnitOfWork(ctx))
}

func (s *adminService) noteStats(ctx context.Context, uow unitofwork.UnitOfWork) (*dto.NoteStatsResponse, error) {
	notes := uow.NoteRepository()
	now := s.clock.Now()

	total, err := notes.Count(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to count notes", err)
	}
	shared, err := notes.CountActiveShares(ctx, now)
	if err != nil {
		return nil, apperror.Internal("failed to count shared notes", err)
	}
	expired, err := notes.CountExpired(ctx, now)
	if err != nil {
		return nil, apperror.Internal("failed to count expired notes", err)
	}
	expiring, err := notes.CountExpiringBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return nil, apperror.Internal("failed to count expiring notes", err)
	}

	return &dto.NoteStatsResponse{
		TotalNotes:        total,
		SharedNotes:       shared,
		ExpiredNotes:      expired,
		ExpiringWithinDay: expiring,
	}, nil
}

func (s *adminService) Dashboard(ctx context.Context, actor entity.Actor) (*dto.DashboardResponse, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := s.userStats(ctx, uow)
	if err != nil {
		return nil, err
	}
	notes, err := s.noteStats(ctx, uow)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{
		Users:       *users,
		Notes:       *notes,
		GeneratedAt: s.clock.Now(),
	}, nil
}

func (s *adminService) GetLogs(ctx context.Context, actor entity.Actor, level string, limit, offset int) ([]logger.LogEntry, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	logs, err := s.logger.GetLogs(level, limit, offset)
	if err != nil {
		return nil, apperror.Internal("failed to read logs", err)
	}
	return logs, nil
}

func (s *adminService) GetLogDetail(ctx context.Context, actor entity.Actor, id string) (*logger.LogEntry, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	entry, err := s.logger.GetLogById(id)
	if err != nil {
		return nil, apperror.NotFound("log not found")
	}
	return entry, nil
}

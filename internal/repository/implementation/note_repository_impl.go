package implementation

import (
	"context"
	"errors"
	"time"

	"noteguard-be/internal/entity"
	"noteguard-be/internal/mapper"
	"noteguard-be/internal/model"
	"noteguard-be/internal/repository/contract"
	"noteguard-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *NoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) findAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

func (r *NoteRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *NoteRepositoryImpl) FindByShareToken(ctx context.Context, token string, now time.Time) (*entity.Note, error) {
	return r.findOne(ctx, specification.ByShareToken{Token: token}, specification.ShareActiveAt{At: now})
}

func (r *NoteRepositoryImpl) FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Note, error) {
	return r.findAll(ctx,
		specification.NoteOwnedByUser{UserID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

func (r *NoteRepositoryImpl) FindAllLive(ctx context.Context, page contract.Page, now time.Time) ([]*entity.Note, error) {
	return r.findAll(ctx,
		specification.NoteLiveAt{At: now},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: page.Limit, Offset: page.Offset},
	)
}

func (r *NoteRepositoryImpl) UpdateContent(ctx context.Context, note *entity.Note, now time.Time) error {
	query := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", note.Id)
	result := specification.NoteLiveAt{At: now}.Apply(query).
		Updates(map[string]interface{}{
			"title":      note.Title,
			"content":    note.Content,
			"updated_at": note.UpdatedAt,
		})
	return affected(result)
}

func (r *NoteRepositoryImpl) SetShare(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"share_token":           token,
			"share_expiration_time": expiresAt,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	return affected(result)
}

func (r *NoteRepositoryImpl) ClearShare(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"share_token":           nil,
			"share_expiration_time": nil,
		})
	return affected(result)
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Note{}, "id = ?", id))
}

func (r *NoteRepositoryImpl) DeleteAllByOwner(ctx context.Context, ownerId uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("owner_id = ?", ownerId).Delete(&model.Note{})
	return result.RowsAffected, result.Error
}

func (r *NoteRepositoryImpl) InvalidateExpiredShares(ctx context.Context, now time.Time) (int64, error) {
	query := specification.ShareExpiredAt{At: now}.Apply(r.db.WithContext(ctx).Model(&model.Note{}))
	result := query.Updates(map[string]interface{}{
		"share_token":           nil,
		"share_expiration_time": nil,
	})
	return result.RowsAffected, result.Error
}

func (r *NoteRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := specification.NoteExpiredAt{At: now}.Apply(r.db.WithContext(ctx))
	result := query.Delete(&model.Note{})
	return result.RowsAffected, result.Error
}

func (r *NoteRepositoryImpl) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.count(ctx, specification.NoteExpiredAt{At: now})
}

func (r *NoteRepositoryImpl) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.count(ctx, specification.NoteExpiringBetween{From: from, To: to})
}

func (r *NoteRepositoryImpl) CountByOwner(ctx context.Context, ownerId uuid.UUID) (int64, error) {
	return r.count(ctx, specification.NoteOwnedByUser{UserID: ownerId})
}

func (r *NoteRepositoryImpl) CountActiveShares(ctx context.Context, now time.Time) (int64, error) {
	return r.count(ctx, specification.ShareActiveAt{At: now})
}

func (r *NoteRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return r.count(ctx)
}

// translate maps gorm's translated dialect errors onto the contract errors.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return contract.ErrDuplicateKey
	}
	return err
}

func affected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrRecordNotFound
	}
	return nil
}

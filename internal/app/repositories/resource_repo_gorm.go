package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/campuslink-api/internal/domain/resource"
	"gorm.io/gorm"
)

// resourceRow is the GORM model backing the resources table.
type resourceRow struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Description   string `gorm:"not null;default:''"`
	Type          string `gorm:"not null;index"`
	OwnerID       string `gorm:"not null;index"`
	Capacity      int    `gorm:"not null;default:0"`
	ApprovedCount int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (resourceRow) TableName() string { return "resources" }

func (row *resourceRow) toDomain() *resource.Resource {
	return &resource.Resource{
		ID:            row.ID,
		Name:          row.Name,
		Description:   row.Description,
		Type:          resource.Type(row.Type),
		OwnerID:       row.OwnerID,
		Capacity:      row.Capacity,
		ApprovedCount: row.ApprovedCount,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

type gormResourceRepo struct {
	db *gorm.DB
}

// NewGormResourceRepo builds a resource repository on the shared GORM handle.
func NewGormResourceRepo(db *gorm.DB) (ResourceRepository, error) {
	if err := db.AutoMigrate(&resourceRow{}); err != nil {
		return nil, err
	}
	return &gormResourceRepo{db: db}, nil
}

func (r *gormResourceRepo) Create(ctx context.Context, res *resource.Resource) error {
	row := resourceRow{
		ID:            res.ID,
		Name:          res.Name,
		Description:   res.Description,
		Type:          string(res.Type),
		OwnerID:       res.OwnerID,
		Capacity:      res.Capacity,
		ApprovedCount: res.ApprovedCount,
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrResourceAlreadyExists
	}
	return err
}

func (r *gormResourceRepo) GetByID(ctx context.Context, id string) (*resource.Resource, error) {
	var row resourceRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *gormResourceRepo) List(ctx context.Context) ([]*resource.Resource, error) {
	var rows []resourceRow
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*resource.Resource, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *gormResourceRepo) ReserveSeat(ctx context.Context, id string) error {
	// Guarded increment in a single statement; the capacity invariant holds
	// even when approvals race.
	tx := r.db.WithContext(ctx).
		Model(&resourceRow{}).
		Where("id = ? AND (capacity = 0 OR approved_count < capacity)", id).
		UpdateColumn("approved_count", gorm.Expr("approved_count + 1"))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrCapacityExceeded
	}
	return nil
}

func (r *gormResourceRepo) ReleaseSeat(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).
		Model(&resourceRow{}).
		Where("id = ? AND approved_count > 0", id).
		UpdateColumn("approved_count", gorm.Expr("approved_count - 1"))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

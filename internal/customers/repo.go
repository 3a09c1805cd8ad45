package customers

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByBNACustomerID(ctx context.Context, bnaCustomerID string) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("bna_customer_id = ?", bnaCustomerID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("updated_at DESC").
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Upsert(ctx context.Context, profile *models.CustomerProfile) (*models.CustomerProfile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "bna_customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "profile_hash", "payload", "synced_at", "updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *repository) Delete(ctx context.Context, bnaCustomerID string) error {
	return r.db.WithContext(ctx).
		Where("bna_customer_id = ?", bnaCustomerID).
		Delete(&models.CustomerProfile{}).Error
}

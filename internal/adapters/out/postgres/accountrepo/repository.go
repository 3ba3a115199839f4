// Package accountrepo maps vendors and drivers to their payout accounts at
// the payment processor.
package accountrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutAccountDTO struct {
	OwnerID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"type:varchar(16);primaryKey"`
	AccountID string    `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time
}

func (PayoutAccountDTO) TableName() string {
	return "payout_accounts"
}

// GormAccountDirectory implements ports.AccountDirectory.
type GormAccountDirectory struct {
	db *gorm.DB
}

func NewGormAccountDirectory(db *gorm.DB) *GormAccountDirectory {
	return &GormAccountDirectory{db: db}
}

// Register links ownerID acting as role to a processor account, replacing
// any previous link.
func (d *GormAccountDirectory) Register(ctx context.Context, ownerID kernel.UUID, role kernel.Role, accountID string) error {
	var accountErr error
	if accountID == "" {
		accountErr = errs.NewValueIsRequiredError("account id")
	}
	if err := errors.Join(ownerID.Validate(), role.Validate(), accountErr); err != nil {
		return err
	}

	row := PayoutAccountDTO{
		OwnerID:   ownerID.Bytes(),
		Role:      string(role),
		AccountID: accountID,
		UpdatedAt: time.Now().UTC(),
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id", "updated_at"}),
		}).
		Create(&row).Error
}

func (d *GormAccountDirectory) PayoutAccount(ctx context.Context, ownerID kernel.UUID, role kernel.Role) (string, error) {
	if err := errors.Join(ownerID.Validate(), role.Validate()); err != nil {
		return "", err
	}

	var row PayoutAccountDTO
	err := d.db.WithContext(ctx).First(&row, "owner_id = ? AND role = ?", ownerID.Bytes(), string(role)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errs.NewObjectNotFoundError(string(role)+" payout account", ownerID.String())
	}
	if err != nil {
		return "", err
	}
	return row.AccountID, nil
}

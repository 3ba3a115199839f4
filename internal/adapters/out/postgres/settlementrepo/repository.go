package settlementrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// GormSettlementRepository implements ports.SettlementRepository using GORM.
type GormSettlementRepository struct {
	db *gorm.DB
}

func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// Add creates the ledger entry of an accepted order. A second entry for the
// same order violates the unique index and is reported as AlreadyAssigned.
func (r *GormSettlementRepository) Add(ctx context.Context, entry *settlement.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto := fromDomain(entry)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errs.NewAlreadyAssignedError(entry.OrderID().String())
		}
		return err
	}
	return nil
}

// Update writes an amendment. Finalized rows are never matched, so a
// delivered entry cannot be changed even by a stale writer.
func (r *GormSettlementRepository) Update(ctx context.Context, entry *settlement.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto := fromDomain(entry)
	result := r.db.WithContext(ctx).
		Model(&SettlementDTO{}).
		Where("id = ? AND finalized_at IS NULL", dto.ID).
		Updates(amendColumns(dto))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&SettlementDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return settlement.ErrEntryFinalized
	}
	return errs.NewObjectNotFoundError("settlement", entry.ID().String())
}

func (r *GormSettlementRepository) GetByOrder(ctx context.Context, orderID kernel.UUID) (*settlement.Entry, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto SettlementDTO
	err := r.withItems(ctx).First(&dto, "order_id = ?", orderID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("settlement", orderID.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

// ListByDriver returns the driver's entries, most recently accepted first.
func (r *GormSettlementRepository) ListByDriver(
	ctx context.Context,
	driverID kernel.UUID,
	filter settlement.Filter,
) ([]*settlement.Entry, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	q := r.withItems(ctx).Where("driver_id = ?", driverID.Bytes())
	if filter != settlement.FilterAll && filter != "" {
		q = q.Where("status = ?", string(filter))
	}

	var dtos []SettlementDTO
	if err := q.Order("accepted_at DESC").Find(&dtos).Error; err != nil {
		return nil, err
	}

	entries := make([]*settlement.Entry, 0, len(dtos))
	for _, dto := range dtos {
		e, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// UpdatePaymentStatus changes only the payment marker; it is allowed on
// finalized entries.
func (r *GormSettlementRepository) UpdatePaymentStatus(ctx context.Context, orderID kernel.UUID, status order.PaymentStatus) error {
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&SettlementDTO{}).
		Where("order_id = ?", orderID.Bytes()).
		Update("payment_status", string(status)).Error
}

func (r *GormSettlementRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

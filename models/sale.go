package models

import (
	"context"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sale is the disposal ledger row. Its creation is the single chokepoint that
// removes a unit's store assignment, so a sold unit can never remain on-hand
// anywhere.
type Sale struct {
	ID              int             `gorm:"primary_key" json:"id"`
	StoreId         int             `gorm:"index;not null" json:"store_id"`
	ImeiCode        string          `gorm:"size:64;index;not null" json:"imei_code"`
	Brand           string          `gorm:"size:100" json:"brand"`
	Model           string          `gorm:"size:100" json:"model"`
	StorageSize     string          `gorm:"size:50" json:"storage_size"`
	CustomerName    string          `gorm:"size:100" json:"customer_name"`
	CustomerPhone   string          `gorm:"size:20;index" json:"customer_phone"`
	CustomerAddress string          `gorm:"type:text" json:"customer_address"`
	KinName         string          `gorm:"size:100" json:"kin_name"`
	KinPhone        string          `gorm:"size:20" json:"kin_phone"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount"`
	Status          SaleStatus      `gorm:"type:enum('completed','cancelled');not null;default:'completed';index" json:"status"`
	ReceiptPath     *string         `gorm:"size:255" json:"receipt_path"`
	CreatedAt       time.Time       `gorm:"index;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSale struct {
	StoreId         int             `json:"store_id" binding:"required"`
	ImeiCode        string          `json:"imei_code" binding:"required"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	StorageSize     string          `json:"storage_size"`
	CustomerName    string          `json:"customer_name" binding:"required"`
	CustomerPhone   string          `json:"customer_phone" binding:"required"`
	CustomerAddress string          `json:"customer_address"`
	KinName         string          `json:"kin_name"`
	KinPhone        string          `json:"kin_phone"`
	Amount          decimal.Decimal `json:"amount"`
}

// CreateSale removes the unit's assignment at the store and inserts the sale
// row in one transaction, serialized per unit so exactly one of two racing
// disposals succeeds. The SMS notification is written to the outbox in the
// same transaction and published after commit by the dispatcher.
func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {

	debug := os.Getenv("DEBUG_SALE") == "1"
	logger := config.GetLogger()

	code := NormalizeImeiCode(input.ImeiCode)
	if code == "" {
		return nil, utils.NewValidationError("imei code is required")
	}
	if err := utils.ValidateResourceId[Store](ctx, input.StoreId); err != nil {
		return nil, utils.NewValidationError("store not found")
	}

	// fast path: fail racing callers before opening a DB transaction
	redisLock, err := obtainImeiRedisLock(ctx, code)
	if err != nil {
		return nil, err
	}
	if redisLock != nil {
		defer func() { _ = redisLock.Release(ctx) }()
	}

	store, err := GetStore(ctx, input.StoreId)
	if err != nil {
		return nil, err
	}

	var sale Sale
	db := config.GetDB()
	// GET_LOCK is session-scoped: pin one connection so the release after
	// commit lands on the session that holds the lock.
	err = db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := acquireImeiLock(ctx, conn, code); err != nil {
			return err
		}
		defer releaseImeiLock(ctx, conn, code)

		return conn.Transaction(func(tx *gorm.DB) error {
			imei, err := getImeiByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if imei == nil {
				return utils.NewValidationError("imei " + code + " not found")
			}

			assigned, err := imeiAssignedToStore(ctx, tx, code, input.StoreId)
			if err != nil {
				return err
			}
			if !assigned {
				return utils.NewValidationError("imei " + code + " is not available in this store")
			}

			removed, err := UnassignImeiFromStore(ctx, tx, code, input.StoreId)
			if err != nil {
				return err
			}
			if removed == 0 {
				// the link vanished between check and delete
				return utils.NewConflictError("imei " + code + " was taken by a concurrent operation")
			}

			sale = Sale{
				StoreId:         input.StoreId,
				ImeiCode:        imei.Code,
				Brand:           input.Brand,
				Model:           input.Model,
				StorageSize:     input.StorageSize,
				CustomerName:    input.CustomerName,
				CustomerPhone:   input.CustomerPhone,
				CustomerAddress: input.CustomerAddress,
				KinName:         input.KinName,
				KinPhone:        input.KinPhone,
				Amount:          input.Amount,
				Status:          SaleStatusCompleted,
			}
			// auto-fill descriptive fields from the registry when the caller omits them
			if sale.Brand == "" {
				sale.Brand = imei.Brand
			}
			if sale.Model == "" {
				sale.Model = imei.Model
			}
			if sale.StorageSize == "" {
				sale.StorageSize = imei.StorageSize
			}

			if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
				return err
			}
			return createSmsNotificationRecord(ctx, tx, &sale, store.Name)
		})
	})
	if err != nil {
		return nil, err
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"module":   "sale",
			"sale_id":  sale.ID,
			"store_id": sale.StoreId,
			"imei":     sale.ImeiCode,
		}).Debug("sale created")
	}
	return &sale, nil
}

// CancelSale flips the status only. The store assignment is deliberately NOT
// restored; re-adding stock for a returned device goes through a new purchase.
func CancelSale(ctx context.Context, id int) (*Sale, error) {

	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.Status == SaleStatusCancelled {
		return nil, utils.NewValidationError("sale is already cancelled")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(sale).
		UpdateColumn("status", SaleStatusCancelled).Error; err != nil {
		return nil, err
	}
	sale.Status = SaleStatusCancelled
	return sale, nil
}

// SetSaleReceipt records the storage object key of an uploaded receipt. The
// upload itself happens outside the ledger and never blocks a sale.
func SetSaleReceipt(ctx context.Context, id int, objectKey string) (*Sale, error) {

	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(sale).
		UpdateColumn("receipt_path", objectKey).Error; err != nil {
		return nil, err
	}
	sale.ReceiptPath = &objectKey
	return sale, nil
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchModel[Sale](ctx, id)
}

func PaginateSales(ctx context.Context, limit int, after *string, storeId *int, status *string) ([]Edge[Sale], *PageInfo, error) {

	if limit <= 0 {
		limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Sale{})
	if storeId != nil {
		dbCtx = dbCtx.Where("store_id = ?", *storeId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	return FetchPageCompositeCursor[Sale](dbCtx, limit, after, "created_at")
}

func (s Sale) GetId() int {
	return s.ID
}

func (s Sale) GetCursor() string {
	return s.CreatedAt.Format("2006-01-02 15:04:05.000000")
}

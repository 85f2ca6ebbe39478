package models

import (
	"context"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Purchase is one intake batch from a vendor. Units gain a store assignment
// only while the purchase is completed; a pending purchase contributes zero
// stock until its status transition catches up.
type Purchase struct {
	ID            int             `gorm:"primary_key" json:"id"`
	VendorId      int             `gorm:"index;not null" json:"vendor_id"`
	BrandId       int             `gorm:"index;not null" json:"brand_id"`
	ModelId       int             `gorm:"index;not null" json:"model_id"`
	StoreId       int             `gorm:"index;not null" json:"store_id"`
	StorageSize   string          `gorm:"size:50" json:"storage_size"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	ImeiCodes     ImeiList        `gorm:"type:text" json:"imei_codes"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_price"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,2)" json:"paid_amount"`
	PaymentStatus PaymentStatus   `gorm:"type:enum('unpaid','partial','paid');not null;default:'unpaid'" json:"payment_status"`
	Status        PurchaseStatus  `gorm:"type:enum('pending','completed');not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time       `gorm:"index;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchase struct {
	VendorId      int             `json:"vendor_id" binding:"required"`
	BrandId       int             `json:"brand_id" binding:"required"`
	ModelId       int             `json:"model_id" binding:"required"`
	StoreId       int             `json:"store_id" binding:"required"`
	StorageSize   string          `json:"storage_size"`
	ImeiCodes     []string        `json:"imei_codes" binding:"required"`
	Status        string          `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus string          `json:"payment_status"`
}

type PurchasePaymentInput struct {
	TotalPrice    *decimal.Decimal `json:"total_price"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
	PaymentStatus *string          `json:"payment_status"`
}

func CreatePurchase(ctx context.Context, input *NewPurchase) (*Purchase, error) {

	debug := os.Getenv("DEBUG_PURCHASE") == "1"
	logger := config.GetLogger()

	status := PurchaseStatusPending
	if input.Status != "" {
		status = PurchaseStatus(input.Status)
		if !status.IsValid() {
			return nil, utils.NewValidationError("status must be pending or completed")
		}
	}
	paymentStatus := PaymentStatusUnpaid
	if input.PaymentStatus != "" {
		paymentStatus = PaymentStatus(input.PaymentStatus)
		if !paymentStatus.IsValid() {
			return nil, utils.NewValidationError("payment status must be unpaid, partial or paid")
		}
	}

	codes := DedupImeiCodes(input.ImeiCodes)
	if len(codes) == 0 {
		return nil, utils.NewValidationError("at least one imei code is required")
	}

	if err := utils.ValidateResourceId[Vendor](ctx, input.VendorId); err != nil {
		return nil, utils.NewValidationError("vendor not found")
	}
	if err := utils.ValidateResourceId[Store](ctx, input.StoreId); err != nil {
		return nil, utils.NewValidationError("store not found")
	}
	brand, err := GetBrand(ctx, input.BrandId)
	if err != nil {
		return nil, utils.NewValidationError("brand not found")
	}
	model, err := GetPhoneModel(ctx, input.ModelId)
	if err != nil {
		return nil, utils.NewValidationError("model not found")
	}
	if model.BrandId != brand.ID {
		return nil, utils.NewValidationError("model does not belong to brand")
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"module":   "purchase",
			"store_id": input.StoreId,
			"quantity": len(codes),
			"status":   status,
		}).Debug("creating purchase")
	}

	db := config.GetDB()
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	for _, code := range codes {
		if _, err := UpsertImei(ctx, tx, &UpsertImeiInput{
			Code:        code,
			Brand:       brand.Name,
			Model:       model.Name,
			StorageSize: input.StorageSize,
			VendorId:    input.VendorId,
		}); err != nil {
			tx.Rollback()
			return nil, err
		}
		if status == PurchaseStatusCompleted {
			if err := AssignImeiToStore(ctx, tx, code, input.StoreId); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	purchase := Purchase{
		VendorId:      input.VendorId,
		BrandId:       input.BrandId,
		ModelId:       input.ModelId,
		StoreId:       input.StoreId,
		StorageSize:   input.StorageSize,
		Quantity:      len(codes),
		ImeiCodes:     codes,
		TotalPrice:    input.TotalPrice,
		PaidAmount:    input.PaidAmount,
		PaymentStatus: paymentStatus,
		Status:        status,
	}
	if err := tx.WithContext(ctx).Create(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// UpdatePurchaseStatus is the only path by which a pending purchase starts
// contributing stock: pending -> completed assigns every attached imei to the
// purchase's store.
func UpdatePurchaseStatus(ctx context.Context, id int, newStatus string) (*Purchase, error) {

	status := PurchaseStatus(newStatus)
	if !status.IsValid() {
		return nil, utils.NewValidationError("status must be pending or completed")
	}

	purchase, err := utils.FetchModel[Purchase](ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status == status {
		return purchase, nil
	}

	catchUp := purchase.Status == PurchaseStatusPending && status == PurchaseStatusCompleted

	db := config.GetDB()
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if catchUp {
		for _, code := range purchase.ImeiCodes {
			if err := AssignImeiToStore(ctx, tx, code, purchase.StoreId); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.WithContext(ctx).Model(purchase).
		UpdateColumn("status", status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	purchase.Status = status
	return purchase, nil
}

func UpdatePurchasePayment(ctx context.Context, id int, input *PurchasePaymentInput) (*Purchase, error) {

	purchase, err := utils.FetchModel[Purchase](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.TotalPrice != nil {
		updates["TotalPrice"] = *input.TotalPrice
	}
	if input.PaidAmount != nil {
		updates["PaidAmount"] = *input.PaidAmount
	}
	if input.PaymentStatus != nil {
		paymentStatus := PaymentStatus(*input.PaymentStatus)
		if !paymentStatus.IsValid() {
			return nil, utils.NewValidationError("payment status must be unpaid, partial or paid")
		}
		updates["PaymentStatus"] = paymentStatus
	}
	if len(updates) == 0 {
		return purchase, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(purchase).Updates(updates).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func PaginatePurchases(ctx context.Context, limit int, after *string, storeId *int, status *string) ([]Edge[Purchase], *PageInfo, error) {

	if limit <= 0 {
		limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Purchase{})
	if storeId != nil {
		dbCtx = dbCtx.Where("store_id = ?", *storeId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	return FetchPageCompositeCursor[Purchase](dbCtx, limit, after, "created_at")
}

func (p Purchase) GetId() int {
	return p.ID
}

func (p Purchase) GetCursor() string {
	return p.CreatedAt.Format("2006-01-02 15:04:05.000000")
}

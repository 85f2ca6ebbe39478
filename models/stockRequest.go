package models

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StockRequest is one transfer workflow instance between two stores.
//
//	pending --(transfer)--> transferred --(receive)--> completed
//	pending --(cancel)--> cancelled
//
// Transfer records the scanned codes but leaves the units assigned to the
// source store; the units stay "in transit" on paper until the destination
// confirms receipt, which is when the assignments actually move.
type StockRequest struct {
	ID                int                `gorm:"primary_key" json:"id"`
	FromStoreId       int                `gorm:"index;not null" json:"from_store_id"`
	ToStoreId         int                `gorm:"index;not null" json:"to_store_id"`
	Brand             string             `gorm:"size:100;not null" json:"brand"`
	Model             string             `gorm:"size:100;not null" json:"model"`
	StorageSize       string             `gorm:"size:50" json:"storage_size"`
	RequestedQuantity int                `gorm:"not null" json:"requested_quantity"`
	MovedQuantity     int                `gorm:"not null;default:0" json:"moved_quantity"`
	RequestedImeis    ImeiList           `gorm:"type:text" json:"requested_imeis"`
	TransferredImeis  ImeiList           `gorm:"type:text" json:"transferred_imeis"`
	ReceivedImeis     ImeiList           `gorm:"type:text" json:"received_imeis"`
	Status            StockRequestStatus `gorm:"type:enum('pending','transferred','completed','cancelled','rejected');not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time          `gorm:"index;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockRequest struct {
	FromStoreId       int      `json:"from_store_id" binding:"required"`
	ToStoreId         int      `json:"to_store_id" binding:"required"`
	BrandId           int      `json:"brand_id" binding:"required"`
	ModelId           int      `json:"model_id" binding:"required"`
	StorageSize       string   `json:"storage_size"`
	RequestedQuantity int      `json:"requested_quantity" binding:"required"`
	RequestedImeis    []string `json:"requested_imeis"`
}

type StockRequestStatusInput struct {
	Status        string   `json:"status" binding:"required"`
	MovedQuantity *int     `json:"moved_quantity"`
	ReceivedImeis []string `json:"received_imeis"`
}

func CreateStockRequest(ctx context.Context, input *NewStockRequest) (*StockRequest, error) {

	if input.FromStoreId == input.ToStoreId {
		return nil, utils.NewValidationError("source and destination stores must differ")
	}
	if input.RequestedQuantity <= 0 {
		return nil, utils.NewValidationError("requested quantity must be positive")
	}
	if err := utils.ValidateResourceId[Store](ctx, input.FromStoreId); err != nil {
		return nil, utils.NewValidationError("source store not found")
	}
	if err := utils.ValidateResourceId[Store](ctx, input.ToStoreId); err != nil {
		return nil, utils.NewValidationError("destination store not found")
	}
	brand, err := GetBrand(ctx, input.BrandId)
	if err != nil {
		return nil, utils.NewValidationError("brand not found")
	}
	model, err := GetPhoneModel(ctx, input.ModelId)
	if err != nil {
		return nil, utils.NewValidationError("model not found")
	}

	request := StockRequest{
		FromStoreId:       input.FromStoreId,
		ToStoreId:         input.ToStoreId,
		Brand:             brand.Name,
		Model:             model.Name,
		StorageSize:       input.StorageSize,
		RequestedQuantity: input.RequestedQuantity,
		MovedQuantity:     0,
		RequestedImeis:    DedupImeiCodes(input.RequestedImeis),
		TransferredImeis:  ImeiList{},
		ReceivedImeis:     ImeiList{},
		Status:            StockRequestStatusPending,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ExecuteStockTransfer validates every scanned code before touching the row,
// collecting all failures into one aggregated error so warehouse staff can fix
// the whole scan batch in a single round trip. Assignments do not move here.
// ensureStoreScope rejects store-scoped callers acting on another store's side
// of the workflow. Transfer belongs to the source store, receive to the
// destination. Admin callers and unscoped internal callers pass.
func ensureStoreScope(ctx context.Context, storeId int) error {
	if isAdmin, ok := utils.GetIsAdminFromContext(ctx); ok && isAdmin {
		return nil
	}
	if scoped, ok := utils.GetStoreIdFromContext(ctx); ok && scoped != storeId {
		return utils.NewValidationError(fmt.Sprintf("operation is restricted to store %d staff", storeId))
	}
	return nil
}

func ExecuteStockTransfer(ctx context.Context, id int, transferredCodes []string, quantity *int) (*StockRequest, error) {

	debug := os.Getenv("DEBUG_STOCK_REQUEST") == "1"
	logger := config.GetLogger()

	request, err := utils.FetchModel[StockRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureStoreScope(ctx, request.FromStoreId); err != nil {
		return nil, err
	}
	if request.Status != StockRequestStatusPending {
		return nil, utils.NewValidationError("stock request is " + string(request.Status) + ", only pending requests can be transferred")
	}

	codes := DedupImeiCodes(transferredCodes)
	if len(codes) == 0 {
		return nil, utils.NewValidationError("at least one imei code is required")
	}

	actualQty := len(codes)
	if quantity != nil {
		actualQty = *quantity
	}
	if actualQty > request.RequestedQuantity {
		return nil, utils.NewValidationError(fmt.Sprintf("quantity %d exceeds requested quantity %d", actualQty, request.RequestedQuantity))
	}
	if len(codes) > request.RequestedQuantity {
		return nil, utils.NewValidationError(fmt.Sprintf("%d imei codes exceed requested quantity %d", len(codes), request.RequestedQuantity))
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		problems := make([]string, 0)
		for _, code := range codes {
			imei, err := getImeiByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if imei == nil {
				problems = append(problems, "imei "+code+" not found")
				continue
			}
			assigned, err := imeiAssignedToStore(ctx, tx, code, request.FromStoreId)
			if err != nil {
				return err
			}
			if !assigned {
				problems = append(problems, "imei "+code+" is not available in the source store")
				continue
			}
			if !equalsFold(imei.Brand, request.Brand) || !equalsFold(imei.Model, request.Model) {
				problems = append(problems, fmt.Sprintf("imei %s is %s %s, request expects %s %s",
					code, imei.Brand, imei.Model, request.Brand, request.Model))
			}
		}
		if len(problems) > 0 {
			return utils.NewAggregateValidationError("imei validation failed", problems)
		}

		return tx.WithContext(ctx).Model(request).Updates(map[string]interface{}{
			"Status":           StockRequestStatusTransferred,
			"TransferredImeis": codes,
			"MovedQuantity":    len(codes),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	request.Status = StockRequestStatusTransferred
	request.TransferredImeis = codes
	request.MovedQuantity = len(codes)

	if debug {
		logger.WithFields(logrus.Fields{
			"module":     "stockRequest",
			"request_id": request.ID,
			"moved":      request.MovedQuantity,
		}).Debug("stock request transferred")
	}
	return request, nil
}

// ExecuteStockReceive moves the assignments: every received code must have
// been scanned out at transfer time, and each move is idempotent so a retried
// receive cannot duplicate stock at the destination.
func ExecuteStockReceive(ctx context.Context, id int, receivedCodes []string) (*StockRequest, error) {

	request, err := utils.FetchModel[StockRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureStoreScope(ctx, request.ToStoreId); err != nil {
		return nil, err
	}
	if request.Status != StockRequestStatusTransferred {
		return nil, utils.NewValidationError("stock request is " + string(request.Status) + ", only transferred requests can be received")
	}

	codes := DedupImeiCodes(receivedCodes)
	if len(codes) == 0 {
		return nil, utils.NewValidationError("at least one imei code is required")
	}

	problems := make([]string, 0)
	for _, code := range codes {
		if !request.TransferredImeis.Contains(code) {
			problems = append(problems, "imei "+code+" was not in the transferred batch")
		}
	}
	if len(problems) > 0 {
		return nil, utils.NewAggregateValidationError("imei validation failed", problems)
	}

	// lock in a stable order so two overlapping receives cannot deadlock
	lockOrder := make([]string, len(codes))
	copy(lockOrder, codes)
	sort.Slice(lockOrder, func(i, j int) bool { return ImeiKey(lockOrder[i]) < ImeiKey(lockOrder[j]) })

	db := config.GetDB()
	err = db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		acquired := make([]string, 0, len(lockOrder))
		defer func() {
			for _, code := range acquired {
				releaseImeiLock(ctx, conn, code)
			}
		}()
		for _, code := range lockOrder {
			if err := acquireImeiLock(ctx, conn, code); err != nil {
				return err
			}
			acquired = append(acquired, code)
		}

		return conn.Transaction(func(tx *gorm.DB) error {
			for _, code := range codes {
				if _, err := UnassignImeiFromStore(ctx, tx, code, request.FromStoreId); err != nil {
					return err
				}
				if err := AssignImeiToStore(ctx, tx, code, request.ToStoreId); err != nil {
					return err
				}
			}
			return tx.WithContext(ctx).Model(request).Updates(map[string]interface{}{
				"Status":        StockRequestStatusCompleted,
				"ReceivedImeis": codes,
			}).Error
		})
	})
	if err != nil {
		return nil, err
	}

	request.Status = StockRequestStatusCompleted
	request.ReceivedImeis = codes
	return request, nil
}

func CancelStockRequest(ctx context.Context, id int) (*StockRequest, error) {

	request, err := utils.FetchModel[StockRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != StockRequestStatusPending {
		return nil, utils.NewValidationError("only pending stock requests can be cancelled")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(request).
		UpdateColumn("status", StockRequestStatusCancelled).Error; err != nil {
		return nil, err
	}
	request.Status = StockRequestStatusCancelled
	return request, nil
}

// UpdateStockRequestStatus writes status and related fields directly, without
// the assignment side effects of transfer/receive. Exposed on an internal
// route only; callers own the consistency of what they set.
func UpdateStockRequestStatus(ctx context.Context, id int, input *StockRequestStatusInput) (*StockRequest, error) {

	status := StockRequestStatus(input.Status)
	if !status.IsValid() {
		return nil, utils.NewValidationError("status must be one of pending, transferred, completed, cancelled, rejected")
	}

	request, err := utils.FetchModel[StockRequest](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"Status": status}
	if input.MovedQuantity != nil {
		updates["MovedQuantity"] = *input.MovedQuantity
	}
	if input.ReceivedImeis != nil {
		updates["ReceivedImeis"] = DedupImeiCodes(input.ReceivedImeis)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(request).Updates(updates).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[StockRequest](ctx, id)
}

func GetStockRequest(ctx context.Context, id int) (*StockRequest, error) {
	return utils.FetchModel[StockRequest](ctx, id)
}

func ListStockRequestsByStore(ctx context.Context, storeId int, status *string) ([]*StockRequest, error) {
	db := config.GetDB()
	var results []*StockRequest
	dbCtx := db.WithContext(ctx).
		Where("from_store_id = ? OR to_store_id = ?", storeId, storeId)
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if err := dbCtx.Order("created_at DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Imei is the canonical identity record of one physical unit. Rows are created
// on first sighting and never deleted; descriptive attributes are overwritten
// last-write-wins when the same code shows up again (vendor re-supply).
type Imei struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Brand       string    `gorm:"size:100" json:"brand"`
	Model       string    `gorm:"size:100" json:"model"`
	StorageSize string    `gorm:"size:50" json:"storage_size"`
	VendorId    int       `gorm:"index" json:"vendor_id"`
	Stores      []Store   `gorm:"-" json:"stores,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// StoreImeiLink records "this unit is currently at this store". Outside an
// in-flight transaction a code holds at most one row here; every mutation goes
// through the purchase/sale/stock-request paths below.
type StoreImeiLink struct {
	StoreId   int       `gorm:"primaryKey;autoIncrement:false" json:"store_id"`
	ImeiCode  string    `gorm:"primaryKey;size:64" json:"imei_code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type UpsertImeiInput struct {
	Code        string
	Brand       string
	Model       string
	StorageSize string
	VendorId    int
}

// UpsertImei creates the unit on first sighting or overwrites its attributes in
// place. Lookup is by trimmed, case-folded code; the first-seen trimmed
// spelling is what stays stored.
func UpsertImei(ctx context.Context, tx *gorm.DB, input *UpsertImeiInput) (*Imei, error) {

	code := NormalizeImeiCode(input.Code)
	if code == "" {
		return nil, utils.NewValidationError("imei code is required")
	}

	var imei Imei
	err := tx.WithContext(ctx).Where("LOWER(code) = ?", ImeiKey(code)).First(&imei).Error
	if err == nil {
		updateErr := tx.WithContext(ctx).Model(&imei).Updates(map[string]interface{}{
			"Brand":       input.Brand,
			"Model":       input.Model,
			"StorageSize": input.StorageSize,
			"VendorId":    input.VendorId,
		}).Error
		if updateErr != nil {
			return nil, updateErr
		}
		return &imei, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	imei = Imei{
		Code:        code,
		Brand:       input.Brand,
		Model:       input.Model,
		StorageSize: input.StorageSize,
		VendorId:    input.VendorId,
	}
	if err := tx.WithContext(ctx).Create(&imei).Error; err != nil {
		return nil, err
	}
	return &imei, nil
}

// AssignImeiToStore is idempotent: an existing link is left alone, never
// duplicated.
func AssignImeiToStore(ctx context.Context, tx *gorm.DB, code string, storeId int) error {
	link := StoreImeiLink{
		StoreId:  storeId,
		ImeiCode: NormalizeImeiCode(code),
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// UnassignImeiFromStore removes the link if present. Absence is not an error;
// use the returned count when the caller needs to know the row was actually
// there (sale race detection).
func UnassignImeiFromStore(ctx context.Context, tx *gorm.DB, code string, storeId int) (int64, error) {
	result := tx.WithContext(ctx).
		Where("store_id = ? AND LOWER(imei_code) = ?", storeId, ImeiKey(code)).
		Delete(&StoreImeiLink{})
	return result.RowsAffected, result.Error
}

// GetImeiByCode returns nil, nil for an unknown code. The current store
// assignments come back loaded.
func GetImeiByCode(ctx context.Context, code string) (*Imei, error) {
	db := config.GetDB()
	return getImeiByCode(ctx, db, code)
}

func getImeiByCode(ctx context.Context, tx *gorm.DB, code string) (*Imei, error) {
	var imei Imei
	err := tx.WithContext(ctx).Where("LOWER(code) = ?", ImeiKey(code)).First(&imei).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := loadImeiStores(ctx, tx, &imei); err != nil {
		return nil, err
	}
	return &imei, nil
}

func loadImeiStores(ctx context.Context, tx *gorm.DB, imei *Imei) error {
	var stores []Store
	err := tx.WithContext(ctx).
		Joins("JOIN store_imei_links ON store_imei_links.store_id = stores.id").
		Where("LOWER(store_imei_links.imei_code) = ?", ImeiKey(imei.Code)).
		Find(&stores).Error
	if err != nil {
		return err
	}
	imei.Stores = stores
	return nil
}

// imeiAssignedToStore checks the link inside the caller's transaction.
func imeiAssignedToStore(ctx context.Context, tx *gorm.DB, code string, storeId int) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&StoreImeiLink{}).
		Where("store_id = ? AND LOWER(imei_code) = ?", storeId, ImeiKey(code)).
		Count(&count).Error
	return count > 0, err
}

func ListImeisByStore(ctx context.Context, storeId int) ([]*Imei, error) {
	db := config.GetDB()
	var results []*Imei
	err := db.WithContext(ctx).
		Joins("JOIN store_imei_links ON LOWER(store_imei_links.imei_code) = LOWER(imeis.code)").
		Where("store_imei_links.store_id = ?", storeId).
		Order("imeis.code").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

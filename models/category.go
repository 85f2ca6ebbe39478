package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
)

// Brand and PhoneModel are the catalogue the ledgers resolve by id. Free-text
// brand/model strings on Imei rows come from these names at intake time.
type Brand struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type PhoneModel struct {
	ID        int       `gorm:"primary_key" json:"id"`
	BrandId   int       `gorm:"not null;index:idx_model_brand_name,unique,priority:1" json:"brand_id"`
	Name      string    `gorm:"size:100;not null;index:idx_model_brand_name,unique,priority:2" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBrand struct {
	Name string `json:"name" binding:"required"`
}

type NewPhoneModel struct {
	BrandId int    `json:"brand_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

func CreateBrand(ctx context.Context, input *NewBrand) (*Brand, error) {

	if err := utils.ValidateUnique[Brand](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	brand := Brand{Name: input.Name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&brand).Error; err != nil {
		return nil, err
	}
	flushResourceCache[Brand](brand.ID)
	return &brand, nil
}

func GetBrand(ctx context.Context, id int) (*Brand, error) {
	return GetResource[Brand](ctx, id)
}

func ListBrands(ctx context.Context) ([]*Brand, error) {
	return listResourceCached[Brand](ctx)
}

func CreatePhoneModel(ctx context.Context, input *NewPhoneModel) (*PhoneModel, error) {

	if err := utils.ValidateResourceId[Brand](ctx, input.BrandId); err != nil {
		return nil, utils.NewValidationError("brand not found")
	}
	count, err := utils.ResourceCountWhere[PhoneModel](ctx, "brand_id = ? AND name = ?", input.BrandId, input.Name)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("model already exists for this brand")
	}

	model := PhoneModel{BrandId: input.BrandId, Name: input.Name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	flushResourceCache[PhoneModel](model.ID)
	return &model, nil
}

func GetPhoneModel(ctx context.Context, id int) (*PhoneModel, error) {
	return GetResource[PhoneModel](ctx, id)
}

func ListPhoneModels(ctx context.Context, brandId *int) ([]*PhoneModel, error) {
	db := config.GetDB()
	var results []*PhoneModel
	dbCtx := db.WithContext(ctx)
	if brandId != nil {
		dbCtx = dbCtx.Where("brand_id = ?", *brandId)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

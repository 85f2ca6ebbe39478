package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
)

type Vendor struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVendor struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func CreateVendor(ctx context.Context, input *NewVendor) (*Vendor, error) {

	if err := utils.ValidateUnique[Vendor](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	vendor := Vendor{
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&vendor).Error; err != nil {
		return nil, err
	}
	flushResourceCache[Vendor](vendor.ID)
	return &vendor, nil
}

func UpdateVendor(ctx context.Context, id int, input *NewVendor) (*Vendor, error) {

	if err := utils.ValidateUnique[Vendor](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	vendor, err := utils.FetchModel[Vendor](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(vendor).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Phone":   input.Phone,
		"Address": input.Address,
	}).Error
	if err != nil {
		return nil, err
	}
	flushResourceCache[Vendor](id)
	return vendor, nil
}

func GetVendor(ctx context.Context, id int) (*Vendor, error) {
	return GetResource[Vendor](ctx, id)
}

func ListVendors(ctx context.Context) ([]*Vendor, error) {
	return listResourceCached[Vendor](ctx)
}

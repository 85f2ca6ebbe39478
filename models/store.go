package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
)

type Store struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStore struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (input *NewStore) validate(ctx context.Context, id int) error {
	return utils.ValidateUnique[Store](ctx, "name", input.Name, id)
}

func CreateStore(ctx context.Context, input *NewStore) (*Store, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	store := Store{
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&store).Error; err != nil {
		return nil, err
	}
	flushResourceCache[Store](store.ID)
	return &store, nil
}

func UpdateStore(ctx context.Context, id int, input *NewStore) (*Store, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	store, err := utils.FetchModel[Store](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(store).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Phone":   input.Phone,
		"Address": input.Address,
	}).Error
	if err != nil {
		return nil, err
	}
	flushResourceCache[Store](id)
	return store, nil
}

func GetStore(ctx context.Context, id int) (*Store, error) {
	return GetResource[Store](ctx, id)
}

func ListStores(ctx context.Context, name *string) ([]*Store, error) {
	// the unfiltered list is reference data, serve it from the list cache
	if name == nil || len(*name) == 0 {
		return listResourceCached[Store](ctx)
	}

	db := config.GetDB()
	var results []*Store
	err := db.WithContext(ctx).
		Where("name LIKE ?", "%"+utils.EscapeLikePattern(*name)+"%").
		Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s Store) GetId() int {
	return s.ID
}

package utils

import (
	"context"
	"reflect"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
)

func ResourceCountWhere[T any](ctx context.Context, cond string, values ...interface{}) (int64, error) {
	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).Where(cond, values...).Count(&count).Error
	return count, err
}

// check if id exists, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError(column + " already exists")
	}
	return nil
}

package models

import (
	"context"

	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
)

// first find in redis, then in db, cache result
// (may return RecordNotFound error)
func GetResource[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// serve the full reference list through the list cache; writes flush it via
// flushResourceCache so the next read repopulates
func listResourceCached[T any](ctx context.Context) ([]*T, error) {

	cached, err := utils.RetrieveRedisList[T]()
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	results, err := utils.FetchAllModels[T](ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedisList[T](results); err != nil {
		return nil, err
	}
	return results, nil
}

// drop both the single-row cache and the full-list cache after a write
func flushResourceCache[T any](id int) {
	_ = utils.RemoveRedis[T](id)
	_ = utils.RemoveRedisList[T]()
}

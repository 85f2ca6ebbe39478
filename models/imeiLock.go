package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

const imeiLockTimeoutSeconds = 5

// acquireImeiLock serializes assignment mutations per unit across instances
// using MySQL advisory locks. GET_LOCK is connection-scoped, so this must run
// on the same *gorm.DB transaction that mutates the link.
func acquireImeiLock(ctx context.Context, tx *gorm.DB, code string) error {
	lockName := fmt.Sprintf("imei:%s", ImeiKey(code))
	var ok int
	if err := tx.WithContext(ctx).
		Raw("SELECT GET_LOCK(?, ?)", lockName, imeiLockTimeoutSeconds).
		Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return utils.NewConflictError("imei " + NormalizeImeiCode(code) + " is locked by another operation")
	}
	return nil
}

func releaseImeiLock(ctx context.Context, tx *gorm.DB, code string) {
	lockName := fmt.Sprintf("imei:%s", ImeiKey(code))
	var _ok int
	_ = tx.WithContext(ctx).Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// obtainImeiRedisLock is a best-effort fast path: it fails racing callers
// before they open a DB transaction. A losing caller gets ConflictError; when
// redis is unavailable the advisory lock alone still serializes correctly.
func obtainImeiRedisLock(ctx context.Context, code string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, "lock:imei:"+ImeiKey(code), 10*time.Second, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, utils.NewConflictError("imei " + NormalizeImeiCode(code) + " is locked by another operation")
		}
		return nil, nil
	}
	return lock, nil
}

package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/phonestock_backend/appctx"
)

var (
	ContextKeyStoreId       = appctx.ContextKeyStoreId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyIsAdmin       = appctx.ContextKeyIsAdmin
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetStoreIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyStoreId)
}

func SetStoreIdInContext(ctx context.Context, storeId int) context.Context {
	return appctx.Set(ctx, ContextKeyStoreId, storeId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

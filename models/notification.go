package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"gorm.io/gorm"
)

// Publish statuses for SmsNotificationRecord.PublishStatus. Stored as plain
// strings (DB values).
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// SmsNotificationRecord is the transactional outbox for sale SMS
// notifications: written in the sale's transaction, published to Pub/Sub
// after commit by the workflow dispatcher.
type SmsNotificationRecord struct {
	ID            int       `gorm:"primary_key;index:idx_sms_outbox_dispatch,priority:3" json:"id"`
	SaleId        int       `gorm:"index;not null" json:"sale_id"`
	StoreName     string    `gorm:"size:100" json:"store_name"`
	ImeiCode      string    `gorm:"size:64" json:"imei_code"`
	CustomerName  string    `gorm:"size:100" json:"customer_name"`
	CustomerPhone string    `gorm:"size:20" json:"customer_phone"`
	Amount        string    `gorm:"size:32" json:"amount"`
	SoldAt        time.Time `gorm:"not null" json:"sold_at"`

	PublishStatus    string     `gorm:"size:20;not null;default:'PENDING';index:idx_sms_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index:idx_sms_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`

	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func createSmsNotificationRecord(ctx context.Context, tx *gorm.DB, sale *Sale, storeName string) error {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	record := SmsNotificationRecord{
		SaleId:        sale.ID,
		StoreName:     storeName,
		ImeiCode:      sale.ImeiCode,
		CustomerName:  sale.CustomerName,
		CustomerPhone: sale.CustomerPhone,
		Amount:        sale.Amount.StringFixed(2),
		SoldAt:        sale.CreatedAt,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.WithContext(ctx).Create(&record).Error
}

func ConvertToSmsMessage(record SmsNotificationRecord) config.SmsMessage {
	return config.SmsMessage{
		ID:            record.ID,
		SaleId:        record.SaleId,
		StoreName:     record.StoreName,
		ImeiCode:      record.ImeiCode,
		CustomerName:  record.CustomerName,
		CustomerPhone: record.CustomerPhone,
		Amount:        record.Amount,
		SoldAt:        record.SoldAt,
		CorrelationId: record.CorrelationId,
	}
}

package models

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
)

func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

type StockRequestStatus string

const (
	StockRequestStatusPending     StockRequestStatus = "pending"
	StockRequestStatusTransferred StockRequestStatus = "transferred"
	StockRequestStatusCompleted   StockRequestStatus = "completed"
	StockRequestStatusCancelled   StockRequestStatus = "cancelled"
	StockRequestStatusRejected    StockRequestStatus = "rejected"
)

func (s StockRequestStatus) IsValid() bool {
	switch s {
	case StockRequestStatusPending, StockRequestStatusTransferred,
		StockRequestStatusCompleted, StockRequestStatusCancelled,
		StockRequestStatusRejected:
		return true
	}
	return false
}

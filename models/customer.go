package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// CustomerSummary is a read-only roll-up over completed sales grouped by
// customer phone. Contact and kin details come from the customer's latest
// sale row.
type CustomerSummary struct {
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	KinName         string          `json:"kin_name"`
	KinPhone        string          `json:"kin_phone"`
	PurchaseCount   int             `json:"purchase_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	LastPurchaseAt  time.Time       `json:"last_purchase_at"`
}

const customerSummarySQL = `
SELECT
    s.customer_name,
    s.customer_phone,
    s.customer_address,
    s.kin_name,
    s.kin_phone,
    agg.purchase_count,
    agg.total_amount,
    agg.last_purchase_at
FROM
    (
        SELECT
            customer_phone,
            MAX(id) AS last_sale_id,
            COUNT(*) AS purchase_count,
            SUM(amount) AS total_amount,
            MAX(created_at) AS last_purchase_at
        FROM sales
        WHERE status = 'completed'
        GROUP BY customer_phone
    ) agg
    JOIN sales s ON s.id = agg.last_sale_id
`

func PaginateCustomerSummaries(ctx context.Context, page int, pageSize int, search *string) ([]*CustomerSummary, int64, error) {

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = config.SearchLimit
	}

	where := ""
	args := []interface{}{}
	if search != nil && *search != "" {
		where = " WHERE s.customer_name LIKE ? OR s.customer_phone LIKE ?"
		pattern := "%" + utils.EscapeLikePattern(*search) + "%"
		args = append(args, pattern, pattern)
	}

	db := config.GetDB()

	var total int64
	countSQL := "SELECT COUNT(*) FROM (" + customerSummarySQL + where + ") c"
	if err := db.WithContext(ctx).Raw(countSQL, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*CustomerSummary
	pageSQL := customerSummarySQL + where + " ORDER BY agg.last_purchase_at DESC, agg.last_sale_id DESC LIMIT ? OFFSET ?"
	pageArgs := append(args, pageSize, (page-1)*pageSize)
	if err := db.WithContext(ctx).Raw(pageSQL, pageArgs...).Scan(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func ExportCustomerSummaryExcel(ctx context.Context, search *string) (*excelize.File, error) {

	summaries, _, err := PaginateCustomerSummaries(ctx, 1, 100000, search)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "CustomerName")
	f.SetCellValue("Sheet1", "B1", "CustomerPhone")
	f.SetCellValue("Sheet1", "C1", "Address")
	f.SetCellValue("Sheet1", "D1", "KinName")
	f.SetCellValue("Sheet1", "E1", "KinPhone")
	f.SetCellValue("Sheet1", "F1", "PurchaseCount")
	f.SetCellValue("Sheet1", "G1", "TotalAmount")
	f.SetCellValue("Sheet1", "H1", "LastPurchase")

	// Add data
	for i, s := range summaries {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, s.CustomerName)
		f.SetCellValue("Sheet1", "B"+row, s.CustomerPhone)
		f.SetCellValue("Sheet1", "C"+row, s.CustomerAddress)
		f.SetCellValue("Sheet1", "D"+row, s.KinName)
		f.SetCellValue("Sheet1", "E"+row, s.KinPhone)
		f.SetCellValue("Sheet1", "F"+row, s.PurchaseCount)
		f.SetCellValue("Sheet1", "G"+row, s.TotalAmount.StringFixed(2))
		f.SetCellValue("Sheet1", "H"+row, s.LastPurchaseAt.Format("2006-01-02 15:04:05"))
	}

	return f, nil
}

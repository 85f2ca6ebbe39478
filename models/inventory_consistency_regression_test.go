package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/models"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/shopspring/decimal"
)

// Spins up throwaway MySQL + redis containers and walks the purchase -> sale
// lifecycle end to end, including the per-unit race.
func TestPurchaseAndSaleLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()
	shop, branch := setupIntegrationEnv(t, ctx)

	vendor, err := models.CreateVendor(ctx, &models.NewVendor{Name: "Golden Mobile"})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	brand, err := models.CreateBrand(ctx, &models.NewBrand{Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}
	phoneModel, err := models.CreatePhoneModel(ctx, &models.NewPhoneModel{BrandId: brand.ID, Name: "X"})
	if err != nil {
		t.Fatalf("CreatePhoneModel: %v", err)
	}

	// 1) Pending purchase: codes dedup to ["A","B"], no stock yet.
	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		VendorId:  vendor.ID,
		BrandId:   brand.ID,
		ModelId:   phoneModel.ID,
		StoreId:   shop.ID,
		ImeiCodes: []string{"A", "a ", "B"},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if purchase.Quantity != 2 {
		t.Fatalf("expected quantity=2 after dedup; got %d", purchase.Quantity)
	}
	if len(purchase.ImeiCodes) != 2 || purchase.ImeiCodes[0] != "A" || purchase.ImeiCodes[1] != "B" {
		t.Fatalf("expected deduplicated codes [A B]; got %v", purchase.ImeiCodes)
	}
	if purchase.Status != models.PurchaseStatusPending {
		t.Fatalf("expected default status pending; got %s", purchase.Status)
	}
	onHand, err := models.ListImeisByStore(ctx, shop.ID)
	if err != nil {
		t.Fatalf("ListImeisByStore: %v", err)
	}
	if len(onHand) != 0 {
		t.Fatalf("pending purchase must contribute zero stock; got %d units", len(onHand))
	}

	// 2) pending -> completed assigns every unit (catch-up).
	if _, err := models.UpdatePurchaseStatus(ctx, purchase.ID, "completed"); err != nil {
		t.Fatalf("UpdatePurchaseStatus: %v", err)
	}
	onHand, err = models.ListImeisByStore(ctx, shop.ID)
	if err != nil {
		t.Fatalf("ListImeisByStore: %v", err)
	}
	if len(onHand) != 2 {
		t.Fatalf("expected 2 units on hand after completion; got %d", len(onHand))
	}
	// repeating the same status is a no-op
	if _, err := models.UpdatePurchaseStatus(ctx, purchase.ID, "completed"); err != nil {
		t.Fatalf("UpdatePurchaseStatus (repeat): %v", err)
	}

	// 3) Re-sighting the same code overwrites attributes last-write-wins.
	brand2, err := models.CreateBrand(ctx, &models.NewBrand{Name: "Bolt"})
	if err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}
	model2, err := models.CreatePhoneModel(ctx, &models.NewPhoneModel{BrandId: brand2.ID, Name: "Z"})
	if err != nil {
		t.Fatalf("CreatePhoneModel: %v", err)
	}
	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		VendorId:  vendor.ID,
		BrandId:   brand2.ID,
		ModelId:   model2.ID,
		StoreId:   branch.ID,
		ImeiCodes: []string{" a "},
		Status:    "pending",
	}); err != nil {
		t.Fatalf("CreatePurchase (re-sight): %v", err)
	}
	unit, err := models.GetImeiByCode(ctx, "A")
	if err != nil {
		t.Fatalf("GetImeiByCode: %v", err)
	}
	if unit == nil || unit.Brand != "Bolt" || unit.Model != "Z" {
		t.Fatalf("expected last-write-wins attributes Bolt/Z; got %+v", unit)
	}
	if len(unit.Stores) != 1 || unit.Stores[0].ID != shop.ID {
		t.Fatalf("re-sighting via a pending purchase must not move the unit; got stores %+v", unit.Stores)
	}

	// 4) Bad inputs.
	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		VendorId: vendor.ID, BrandId: brand.ID, ModelId: phoneModel.ID, StoreId: shop.ID,
		ImeiCodes: []string{" ", ""},
	}); err == nil {
		t.Fatalf("expected validation error for empty code set")
	}
	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		VendorId: vendor.ID, BrandId: brand.ID, ModelId: phoneModel.ID, StoreId: shop.ID,
		ImeiCodes: []string{"Q"}, Status: "shipped",
	}); err == nil {
		t.Fatalf("expected validation error for bad status enum")
	}

	// payment fields are a partial update with the same enum as create
	price := decimal.NewFromInt(900000)
	paid := decimal.NewFromInt(450000)
	partial := "partial"
	updated, err := models.UpdatePurchasePayment(ctx, purchase.ID, &models.PurchasePaymentInput{
		TotalPrice:    &price,
		PaidAmount:    &paid,
		PaymentStatus: &partial,
	})
	if err != nil {
		t.Fatalf("UpdatePurchasePayment: %v", err)
	}
	if updated.PaymentStatus != models.PaymentStatusPartial || !updated.PaidAmount.Equal(paid) {
		t.Fatalf("unexpected payment state: %s %s", updated.PaymentStatus, updated.PaidAmount)
	}
	bogus := "refunded"
	if _, err := models.UpdatePurchasePayment(ctx, purchase.ID, &models.PurchasePaymentInput{PaymentStatus: &bogus}); err == nil {
		t.Fatalf("expected validation error for bad payment status enum")
	}

	// 5) Sales. Unknown code and wrong store fail before touching anything.
	if _, err := models.CreateSale(ctx, &models.NewSale{
		StoreId: shop.ID, ImeiCode: "NOPE", CustomerName: "Mg Mg", CustomerPhone: "0911",
	}); err == nil {
		t.Fatalf("expected validation error for unknown imei")
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		StoreId: branch.ID, ImeiCode: "B", CustomerName: "Mg Mg", CustomerPhone: "0911",
	}); err == nil {
		t.Fatalf("expected validation error for imei at another store")
	}

	sale, err := models.CreateSale(ctx, &models.NewSale{
		StoreId:      shop.ID,
		ImeiCode:     " a",
		CustomerName: "Mg Mg",
		CustomerPhone: "0911",
		Amount:        decimal.NewFromInt(500000),
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.Brand != "Bolt" || sale.Model != "Z" {
		t.Fatalf("expected sale auto-filled from registry; got %s %s", sale.Brand, sale.Model)
	}
	unit, err = models.GetImeiByCode(ctx, "A")
	if err != nil || unit == nil {
		t.Fatalf("GetImeiByCode after sale: %v", err)
	}
	if len(unit.Stores) != 0 {
		t.Fatalf("sold unit must hold no assignment; got %+v", unit.Stores)
	}
	// a second disposal of the same unit fails anywhere
	if _, err := models.CreateSale(ctx, &models.NewSale{
		StoreId: shop.ID, ImeiCode: "A", CustomerName: "Su Su", CustomerPhone: "0922",
	}); err == nil {
		t.Fatalf("expected not-available error selling the same unit twice")
	}

	// outbox row written in the sale transaction
	db := config.GetDB()
	var outboxCount int64
	if err := db.Model(&models.SmsNotificationRecord{}).
		Where("sale_id = ?", sale.ID).Count(&outboxCount).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxCount != 1 {
		t.Fatalf("expected 1 sms outbox record; got %d", outboxCount)
	}

	// 6) Cancel flips status but never restores stock.
	cancelled, err := models.CancelSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("CancelSale: %v", err)
	}
	if cancelled.Status != models.SaleStatusCancelled {
		t.Fatalf("expected cancelled; got %s", cancelled.Status)
	}
	if _, err := models.CancelSale(ctx, sale.ID); err == nil {
		t.Fatalf("expected validation error cancelling twice")
	}
	unit, _ = models.GetImeiByCode(ctx, "A")
	if len(unit.Stores) != 0 {
		t.Fatalf("cancel must not restore the assignment; got %+v", unit.Stores)
	}

	// 7) Two racing sales of one unit: exactly one succeeds.
	saleErrs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, saleErrs[i] = models.CreateSale(ctx, &models.NewSale{
				StoreId:       shop.ID,
				ImeiCode:      "B",
				CustomerName:  fmt.Sprintf("Racer %d", i),
				CustomerPhone: "0933",
				Amount:        decimal.NewFromInt(400000),
			})
		}(i)
	}
	wg.Wait()
	okCount := 0
	for _, e := range saleErrs {
		if e == nil {
			okCount++
		} else if _, isValidation := utils.AsValidation(e); !isValidation && !utils.IsConflict(e) {
			t.Fatalf("racing sale failed with unexpected error: %v", e)
		}
	}
	if okCount != 1 {
		t.Fatalf("expected exactly one racing sale to win; got %d", okCount)
	}

	// 8) Customer roll-up groups completed sales by phone.
	if _, err := models.CreateSale(ctx, &models.NewSale{
		StoreId: branch.ID, ImeiCode: "a ", CustomerName: "Mg Mg", CustomerPhone: "0933",
	}); err == nil {
		t.Fatalf("expected not-available error (unit is sold, not at branch)")
	}
	summaries, total, err := models.PaginateCustomerSummaries(ctx, 1, 10, nil)
	if err != nil {
		t.Fatalf("PaginateCustomerSummaries: %v", err)
	}
	if total != 1 || len(summaries) != 1 {
		t.Fatalf("expected one unique customer (cancelled sales excluded); got total=%d rows=%d", total, len(summaries))
	}
	if summaries[0].CustomerPhone != "0933" || summaries[0].PurchaseCount != 1 {
		t.Fatalf("unexpected roll-up row: %+v", summaries[0])
	}

	// LIKE metacharacters in the search term match literally, not as wildcards
	wildcard := "%"
	_, total, err = models.PaginateCustomerSummaries(ctx, 1, 10, &wildcard)
	if err != nil {
		t.Fatalf("PaginateCustomerSummaries: %v", err)
	}
	if total != 0 {
		t.Fatalf("a literal %% search should match nothing; got %d", total)
	}

	// 9) Reference list reads stay fresh across the write-through flush.
	vendors, err := models.ListVendors(ctx)
	if err != nil {
		t.Fatalf("ListVendors: %v", err)
	}
	if len(vendors) != 1 {
		t.Fatalf("expected 1 vendor; got %d", len(vendors))
	}
	if _, err := models.CreateVendor(ctx, &models.NewVendor{Name: "Silver Mobile"}); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	vendors, err = models.ListVendors(ctx)
	if err != nil {
		t.Fatalf("ListVendors (after write): %v", err)
	}
	if len(vendors) != 2 {
		t.Fatalf("list cache went stale after a write; got %d vendors", len(vendors))
	}
}

func TestStockTransferWorkflow(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()
	source, dest := setupIntegrationEnv(t, ctx)

	vendor, err := models.CreateVendor(ctx, &models.NewVendor{Name: "Golden Mobile"})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	brand, err := models.CreateBrand(ctx, &models.NewBrand{Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}
	phoneModel, err := models.CreatePhoneModel(ctx, &models.NewPhoneModel{BrandId: brand.ID, Name: "X"})
	if err != nil {
		t.Fatalf("CreatePhoneModel: %v", err)
	}

	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		VendorId:  vendor.ID,
		BrandId:   brand.ID,
		ModelId:   phoneModel.ID,
		StoreId:   source.ID,
		ImeiCodes: []string{"U1", "U2", "U3"},
		Status:    "completed",
	}); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	request, err := models.CreateStockRequest(ctx, &models.NewStockRequest{
		FromStoreId:       source.ID,
		ToStoreId:         dest.ID,
		BrandId:           brand.ID,
		ModelId:           phoneModel.ID,
		RequestedQuantity: 2,
	})
	if err != nil {
		t.Fatalf("CreateStockRequest: %v", err)
	}
	if request.Status != models.StockRequestStatusPending || request.MovedQuantity != 0 {
		t.Fatalf("expected fresh pending request; got %+v", request)
	}

	// quantity overruns are rejected up front, both the implicit count and an
	// explicit quantity argument
	if _, err := models.ExecuteStockTransfer(ctx, request.ID, []string{"U1", "U2", "U3"}, nil); err == nil {
		t.Fatalf("expected validation error: 3 codes exceed requested quantity 2")
	}
	three := 3
	if _, err := models.ExecuteStockTransfer(ctx, request.ID, []string{"U1"}, &three); err == nil {
		t.Fatalf("expected validation error: explicit quantity 3 exceeds requested quantity 2")
	}

	// store-scoped callers may only act on their own side of the workflow
	destScoped := utils.SetStoreIdInContext(ctx, dest.ID)
	if _, err := models.ExecuteStockTransfer(destScoped, request.ID, []string{"U1", "U2"}, nil); err == nil {
		t.Fatalf("expected scope error: transfer belongs to the source store")
	}
	adminScoped := utils.SetIsAdminInContext(destScoped, true)
	_, err = models.ExecuteStockTransfer(adminScoped, request.ID, []string{"GHOST"}, nil)
	if ve, ok := utils.AsValidation(err); !ok || len(ve.Problems) != 1 || !strings.Contains(ve.Problems[0], "GHOST") {
		t.Fatalf("admin scope must reach per-code validation, not be blocked by store scoping; got %v", err)
	}

	// per-code failures are aggregated and the request stays pending
	_, err = models.ExecuteStockTransfer(ctx, request.ID, []string{"U1", "GHOST"}, nil)
	ve, ok := utils.AsValidation(err)
	if !ok {
		t.Fatalf("expected aggregated validation error; got %v", err)
	}
	if len(ve.Problems) != 1 || !strings.Contains(ve.Problems[0], "GHOST") {
		t.Fatalf("expected one problem naming GHOST; got %v", ve.Problems)
	}
	request, _ = models.GetStockRequest(ctx, request.ID)
	if request.Status != models.StockRequestStatusPending {
		t.Fatalf("failed transfer must leave the request pending; got %s", request.Status)
	}

	// brand/model mismatch is caught per code
	brand2, _ := models.CreateBrand(ctx, &models.NewBrand{Name: "Bolt"})
	model2, _ := models.CreatePhoneModel(ctx, &models.NewPhoneModel{BrandId: brand2.ID, Name: "Z"})
	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		VendorId: vendor.ID, BrandId: brand2.ID, ModelId: model2.ID, StoreId: source.ID,
		ImeiCodes: []string{"W1"}, Status: "completed",
	}); err != nil {
		t.Fatalf("CreatePurchase (other brand): %v", err)
	}
	_, err = models.ExecuteStockTransfer(ctx, request.ID, []string{"W1"}, nil)
	if ve, ok := utils.AsValidation(err); !ok || len(ve.Problems) != 1 {
		t.Fatalf("expected one brand-mismatch problem; got %v", err)
	}

	// the happy path: exactly requested_quantity codes
	request, err = models.ExecuteStockTransfer(ctx, request.ID, []string{"u1 ", "U2"}, nil)
	if err != nil {
		t.Fatalf("ExecuteStockTransfer: %v", err)
	}
	if request.Status != models.StockRequestStatusTransferred || request.MovedQuantity != 2 {
		t.Fatalf("expected transferred/moved=2; got %s/%d", request.Status, request.MovedQuantity)
	}
	// units stay at the source until receipt is confirmed
	u1, _ := models.GetImeiByCode(ctx, "U1")
	if len(u1.Stores) != 1 || u1.Stores[0].ID != source.ID {
		t.Fatalf("transfer must not move assignments; U1 at %+v", u1.Stores)
	}

	// only pending requests can be cancelled
	if _, err := models.CancelStockRequest(ctx, request.ID); err == nil {
		t.Fatalf("expected validation error cancelling a transferred request")
	}

	// receive belongs to the destination store
	sourceScoped := utils.SetStoreIdInContext(ctx, source.ID)
	if _, err := models.ExecuteStockReceive(sourceScoped, request.ID, []string{"U1", "U2"}); err == nil {
		t.Fatalf("expected scope error: receive belongs to the destination store")
	}

	// receive rejects codes outside the transferred batch, status unchanged
	_, err = models.ExecuteStockReceive(ctx, request.ID, []string{"U1", "U9"})
	if ve, ok := utils.AsValidation(err); !ok || len(ve.Problems) != 1 || !strings.Contains(ve.Problems[0], "U9") {
		t.Fatalf("expected one problem naming U9; got %v", err)
	}
	request, _ = models.GetStockRequest(ctx, request.ID)
	if request.Status != models.StockRequestStatusTransferred {
		t.Fatalf("failed receive must leave the request transferred; got %s", request.Status)
	}

	request, err = models.ExecuteStockReceive(ctx, request.ID, []string{"U1", "U2"})
	if err != nil {
		t.Fatalf("ExecuteStockReceive: %v", err)
	}
	if request.Status != models.StockRequestStatusCompleted {
		t.Fatalf("expected completed; got %s", request.Status)
	}
	for _, code := range []string{"U1", "U2"} {
		unit, err := models.GetImeiByCode(ctx, code)
		if err != nil || unit == nil {
			t.Fatalf("GetImeiByCode(%s): %v", code, err)
		}
		if len(unit.Stores) != 1 || unit.Stores[0].ID != dest.ID {
			t.Fatalf("%s should be at the destination only; got %+v", code, unit.Stores)
		}
	}
	// U3 never moved
	u3, _ := models.GetImeiByCode(ctx, "U3")
	if len(u3.Stores) != 1 || u3.Stores[0].ID != source.ID {
		t.Fatalf("U3 should remain at the source; got %+v", u3.Stores)
	}

	// a completed request cannot be received again
	if _, err := models.ExecuteStockReceive(ctx, request.ID, []string{"U1"}); err == nil {
		t.Fatalf("expected validation error receiving a completed request")
	}

	// escape hatch writes status without side effects
	other, err := models.CreateStockRequest(ctx, &models.NewStockRequest{
		FromStoreId: source.ID, ToStoreId: dest.ID,
		BrandId: brand.ID, ModelId: phoneModel.ID, RequestedQuantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateStockRequest: %v", err)
	}
	other, err = models.UpdateStockRequestStatus(ctx, other.ID, &models.StockRequestStatusInput{Status: "rejected"})
	if err != nil {
		t.Fatalf("UpdateStockRequestStatus: %v", err)
	}
	if other.Status != models.StockRequestStatusRejected {
		t.Fatalf("expected rejected; got %s", other.Status)
	}
	if _, err := models.UpdateStockRequestStatus(ctx, other.ID, &models.StockRequestStatusInput{Status: "lost"}); err == nil {
		t.Fatalf("expected validation error for unknown status")
	}

	// per-store listing sees the request from both ends
	fromView, err := models.ListStockRequestsByStore(ctx, source.ID, nil)
	if err != nil {
		t.Fatalf("ListStockRequestsByStore: %v", err)
	}
	toView, err := models.ListStockRequestsByStore(ctx, dest.ID, nil)
	if err != nil {
		t.Fatalf("ListStockRequestsByStore: %v", err)
	}
	if len(fromView) != 2 || len(toView) != 2 {
		t.Fatalf("expected both stores to see 2 requests; got %d/%d", len(fromView), len(toView))
	}
}

// setupIntegrationEnv boots MySQL + redis containers, connects, migrates and
// returns two stores.
func setupIntegrationEnv(t *testing.T, ctx context.Context) (*models.Store, *models.Store) {
	t.Helper()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "phonestock_test")
	// Helpful to see logs in CI when debugging failures.
	t.Setenv("DEBUG_PURCHASE", "1")
	t.Setenv("DEBUG_SALE", "1")
	t.Setenv("DEBUG_STOCK_REQUEST", "1")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}

	models.MigrateTable()

	first, err := models.CreateStore(ctx, &models.NewStore{Name: "Downtown"})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	second, err := models.CreateStore(ctx, &models.NewStore{Name: "Airport"})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	return first, second
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("phonestock-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("phonestock-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=phonestock_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

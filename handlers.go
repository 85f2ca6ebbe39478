package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
	"bitbucket.org/mmdatafocus/phonestock_backend/models"
	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
	"github.com/gin-gonic/gin"
)

func registerRoutes(r *gin.Engine) {
	// reference data
	r.POST("/stores", createStoreHandler)
	r.GET("/stores", listStoresHandler)
	r.PUT("/stores/:id", updateStoreHandler)
	r.GET("/stores/:id/imeis", listStoreImeisHandler)
	r.GET("/stores/:id/stock-requests", listStoreStockRequestsHandler)
	r.POST("/vendors", createVendorHandler)
	r.GET("/vendors", listVendorsHandler)
	r.PUT("/vendors/:id", updateVendorHandler)
	r.POST("/brands", createBrandHandler)
	r.GET("/brands", listBrandsHandler)
	r.POST("/phone-models", createPhoneModelHandler)
	r.GET("/phone-models", listPhoneModelsHandler)

	// unit registry (read-only over HTTP; writes go through the ledgers)
	r.GET("/imeis/:code", getImeiHandler)

	// intake ledger
	r.POST("/purchases", createPurchaseHandler)
	r.GET("/purchases", listPurchasesHandler)
	r.PUT("/purchases/:id/status", updatePurchaseStatusHandler)
	r.PUT("/purchases/:id/payment", updatePurchasePaymentHandler)

	// disposal ledger
	r.POST("/sales", createSaleHandler)
	r.GET("/sales", listSalesHandler)
	r.GET("/sales/:id", getSaleHandler)
	r.PUT("/sales/:id/cancel", cancelSaleHandler)
	r.POST("/sales/:id/receipt", uploadSaleReceiptHandler)

	// transfer workflow
	r.POST("/stock-requests", createStockRequestHandler)
	r.GET("/stock-requests/:id", getStockRequestHandler)
	r.POST("/stock-requests/:id/transfer", executeStockTransferHandler)
	r.POST("/stock-requests/:id/receive", executeStockReceiveHandler)
	r.POST("/stock-requests/:id/cancel", cancelStockRequestHandler)
	// Raw status setter without assignment side effects; internal tooling only.
	r.PUT("/internal/stock-requests/:id/status", updateStockRequestStatusHandler)

	// customer roll-up
	r.GET("/customers", listCustomerSummariesHandler)
	r.GET("/customers/export", exportCustomerSummariesHandler)
}

// respondError maps the model error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	if utils.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if ve, ok := utils.AsValidation(err); ok {
		body := gin.H{"error": ve.Message}
		if len(ve.Problems) > 0 {
			body["problems"] = ve.Problems
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	if utils.IsConflict(err) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	logger := config.GetLogger()
	config.LogError(logger, "handlers.go", c.HandlerName(), c.FullPath(), nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) *int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func queryString(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

/* reference data */

func createStoreHandler(c *gin.Context) {
	var input models.NewStore
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	store, err := models.CreateStore(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, store)
}

func updateStoreHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewStore
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	store, err := models.UpdateStore(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

func listStoresHandler(c *gin.Context) {
	stores, err := models.ListStores(c.Request.Context(), queryString(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func createVendorHandler(c *gin.Context) {
	var input models.NewVendor
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	vendor, err := models.CreateVendor(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

func updateVendorHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewVendor
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	vendor, err := models.UpdateVendor(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func listVendorsHandler(c *gin.Context) {
	vendors, err := models.ListVendors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

func createBrandHandler(c *gin.Context) {
	var input models.NewBrand
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	brand, err := models.CreateBrand(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func listBrandsHandler(c *gin.Context) {
	brands, err := models.ListBrands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

func createPhoneModelHandler(c *gin.Context) {
	var input models.NewPhoneModel
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	model, err := models.CreatePhoneModel(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model)
}

func listPhoneModelsHandler(c *gin.Context) {
	phoneModels, err := models.ListPhoneModels(c.Request.Context(), queryInt(c, "brand_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, phoneModels)
}

/* unit registry */

func getImeiHandler(c *gin.Context) {
	imei, err := models.GetImeiByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	if imei == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "imei not found"})
		return
	}
	c.JSON(http.StatusOK, imei)
}

func listStoreImeisHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	imeis, err := models.ListImeisByStore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, imeis)
}

/* intake ledger */

func createPurchaseHandler(c *gin.Context) {
	var input models.NewPurchase
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	purchase, err := models.CreatePurchase(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func listPurchasesHandler(c *gin.Context) {
	limit := 0
	if n := queryInt(c, "limit"); n != nil {
		limit = *n
	}
	edges, pageInfo, err := models.PaginatePurchases(c.Request.Context(), limit,
		queryString(c, "after"), queryInt(c, "store_id"), queryString(c, "status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges, "pageInfo": pageInfo})
}

type purchaseStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func updatePurchaseStatusHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req purchaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	purchase, err := models.UpdatePurchaseStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func updatePurchasePaymentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.PurchasePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	purchase, err := models.UpdatePurchasePayment(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

/* disposal ledger */

func createSaleHandler(c *gin.Context) {
	var input models.NewSale
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	sale, err := models.CreateSale(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func listSalesHandler(c *gin.Context) {
	limit := 0
	if n := queryInt(c, "limit"); n != nil {
		limit = *n
	}
	edges, pageInfo, err := models.PaginateSales(c.Request.Context(), limit,
		queryString(c, "after"), queryInt(c, "store_id"), queryString(c, "status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges, "pageInfo": pageInfo})
}

func getSaleHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	sale, err := models.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{"sale": sale}
	if sale.ReceiptPath != nil {
		body["receipt_url"] = utils.BuildObjectAccessURL(*sale.ReceiptPath)
	}
	c.JSON(http.StatusOK, body)
}

func cancelSaleHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	sale, err := models.CancelSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func uploadSaleReceiptHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	// the sale must exist before we store anything
	if _, err := models.GetSale(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	objectKey, err := utils.UploadReceiptToGCS(c.Request.Context(), id, file)
	if err != nil {
		respondError(c, err)
		return
	}
	sale, err := models.SetSaleReceipt(c.Request.Context(), id, objectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sale":        sale,
		"receipt_url": utils.BuildObjectAccessURL(objectKey),
	})
}

/* transfer workflow */

func createStockRequestHandler(c *gin.Context) {
	var input models.NewStockRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	request, err := models.CreateStockRequest(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func getStockRequestHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	request, err := models.GetStockRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type stockTransferRequest struct {
	ImeiCodes []string `json:"imei_codes" binding:"required"`
	Quantity  *int     `json:"quantity"`
}

func executeStockTransferHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req stockTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	request, err := models.ExecuteStockTransfer(c.Request.Context(), id, req.ImeiCodes, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type stockReceiveRequest struct {
	ImeiCodes []string `json:"imei_codes" binding:"required"`
}

func executeStockReceiveHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req stockReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	request, err := models.ExecuteStockReceive(c.Request.Context(), id, req.ImeiCodes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func cancelStockRequestHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	request, err := models.CancelStockRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func updateStockRequestStatusHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.StockRequestStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	request, err := models.UpdateStockRequestStatus(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func listStoreStockRequestsHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	requests, err := models.ListStockRequestsByStore(c.Request.Context(), id, queryString(c, "status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

/* customer roll-up */

func listCustomerSummariesHandler(c *gin.Context) {
	page := 1
	if n := queryInt(c, "page"); n != nil {
		page = *n
	}
	pageSize := 0
	if n := queryInt(c, "page_size"); n != nil {
		pageSize = *n
	}
	summaries, total, err := models.PaginateCustomerSummaries(c.Request.Context(), page, pageSize, queryString(c, "search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": summaries, "total": total, "page": page})
}

func exportCustomerSummariesHandler(c *gin.Context) {
	f, err := models.ExportCustomerSummaryExcel(c.Request.Context(), queryString(c, "search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="customers.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		config.LogError(config.GetLogger(), "handlers.go", "exportCustomerSummariesHandler", "excel write", nil, err)
	}
}

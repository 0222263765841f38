package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/estoque/internal/domain/models"
	"github.com/mamadbah2/estoque/internal/service/inventory"
	"github.com/mamadbah2/estoque/internal/view"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

const (
	exportBaseName = "estoque"
	xlsxSheetName  = "Estoque"
	xlsxMimeType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// InventoryService is the subset of the inventory service used over HTTP.
type InventoryService interface {
	Lookup(ctx context.Context, criteria models.FilterCriteria, requestID string) (inventory.Result, error)
	Invalidate()
}

// InventoryHandler serves the lookup page, its JSON form and the exports.
type InventoryHandler struct {
	svc    InventoryService
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc InventoryService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// Page renders the HTML lookup page. Load and column errors are part of the
// page, so it always answers 200.
func (h *InventoryHandler) Page(c *gin.Context) {
	res, ok := h.lookup(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := view.InventoryPage(res).Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("failed rendering inventory page", zap.Error(err))
	}
}

// JSON returns the same render as the page.
func (h *InventoryHandler) JSON(c *gin.Context) {
	res, ok := h.lookup(c)
	if !ok {
		return
	}

	switch {
	case res.LoadFailed:
		c.JSON(http.StatusServiceUnavailable, res)
	case res.Error != "":
		c.JSON(http.StatusUnprocessableEntity, res)
	default:
		c.JSON(http.StatusOK, res)
	}
}

// ExportCSV downloads the filtered table as semicolon separated values.
func (h *InventoryHandler) ExportCSV(c *gin.Context) {
	res, ok := h.exportable(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportBaseName+`.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	// BOM so spreadsheet programs detect UTF-8.
	_, _ = c.Writer.WriteString("\xef\xbb\xbf")
	w := csv.NewWriter(c.Writer)
	w.Comma = ';'
	_ = w.Write(res.Headers)
	for _, row := range res.Rows {
		_ = w.Write(row.Cells())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.Error("failed writing csv export", zap.Error(err))
	}
}

// ExportXLSX downloads the filtered table as an Excel workbook.
func (h *InventoryHandler) ExportXLSX(c *gin.Context) {
	res, ok := h.exportable(c)
	if !ok {
		return
	}

	f, err := buildWorkbook(res)
	if err != nil {
		h.logger.Error("failed building xlsx export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}
	defer func() { _ = f.Close() }()

	c.Header("Content-Disposition", `attachment; filename="`+exportBaseName+`.xlsx"`)
	c.Header("Content-Type", xlsxMimeType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("failed writing xlsx export", zap.Error(err))
	}
}

// Refresh drops the cached table and sends the browser back to the page.
func (h *InventoryHandler) Refresh(c *gin.Context) {
	h.svc.Invalidate()
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *InventoryHandler) lookup(c *gin.Context) (inventory.Result, bool) {
	var criteria models.FilterCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		h.logger.Warn("invalid filter query", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter query"})
		return inventory.Result{}, false
	}

	res, err := h.svc.Lookup(c.Request.Context(), criteria, c.GetString(RequestIDKey))
	if err != nil {
		var missing *inventory.MissingColumnsError
		if !errors.As(err, &missing) {
			h.logger.Error("inventory lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return inventory.Result{}, false
		}
	}

	return res, true
}

func (h *InventoryHandler) exportable(c *gin.Context) (inventory.Result, bool) {
	res, ok := h.lookup(c)
	if !ok {
		return res, false
	}

	switch {
	case res.LoadFailed:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": res.Error})
		return res, false
	case res.Error != "":
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": res.Error})
		return res, false
	}
	return res, true
}

func buildWorkbook(res inventory.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(xlsxSheetName, "A1", &res.Headers); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(xlsxSheetName, 1, 1, bold); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, row := range res.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		cells := row.Cells()
		if err := f.SetSheetRow(xlsxSheetName, cell, &cells); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := f.SetColWidth(xlsxSheetName, "A", "F", 22); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}

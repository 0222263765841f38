package sheetexport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/estoque/internal/config"
	"github.com/mamadbah2/estoque/internal/domain/models"
)

// Client downloads a spreadsheet through the public CSV export endpoint.
type Client struct {
	httpClient    *resty.Client
	spreadsheetID string
	gid           string
	logger        *zap.Logger
}

// NewClient builds an export client using the provided configuration values.
// The spreadsheet must be shared with "anyone with the link".
func NewClient(cfg config.SheetsConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimSuffix(cfg.ExportBaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("Accept", "text/csv").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetTimeout(15 * time.Second)

	gid := cfg.ExportGID
	if gid == "" {
		gid = "0"
	}

	return &Client{
		httpClient:    restyClient,
		spreadsheetID: cfg.SpreadsheetID,
		gid:           gid,
		logger:        logger,
	}
}

// Fetch downloads the worksheet as CSV. The first row is the header.
func (c *Client) Fetch(ctx context.Context) (models.SheetData, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", c.spreadsheetID).
		SetQueryParams(map[string]string{
			"format": "csv",
			"gid":    c.gid,
		}).
		Get("/spreadsheets/d/{id}/export")
	if err != nil {
		return models.SheetData{}, fmt.Errorf("download spreadsheet export: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return models.SheetData{}, fmt.Errorf("sheet export error: code=%d, status=%s", resp.StatusCode(), resp.Status())
	}

	body := resp.Body()
	if ct := resp.Header().Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		// Private sheets answer with a sign-in page instead of CSV.
		return models.SheetData{}, fmt.Errorf("sheet export returned html, check the sharing settings of %s", c.spreadsheetID)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return models.SheetData{}, fmt.Errorf("parse spreadsheet export: %w", err)
	}

	grid := make([][]interface{}, len(records))
	for i, record := range records {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		grid[i] = row
	}

	data, err := models.NewSheetData(grid)
	if err != nil {
		return models.SheetData{}, fmt.Errorf("parse spreadsheet export: %w", err)
	}

	if lm := resp.Header().Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err != nil {
			c.logger.Warn("unparseable Last-Modified header", zap.String("value", lm), zap.Error(err))
		} else {
			data.ModifiedAt = &t
		}
	}

	return data, nil
}

package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/estoque/internal/config"
	"github.com/mamadbah2/estoque/internal/credentials"
	"github.com/mamadbah2/estoque/internal/domain/models"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// ErrSpreadsheetNotFound is returned when no spreadsheet matches the configured name.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// GoogleSheetRepository reads the inventory spreadsheet through the official
// Google Sheets and Drive APIs.
type GoogleSheetRepository struct {
	cfg             config.SheetsConfig
	spreadsheetID   string
	spreadsheetName string
	logger          *zap.Logger

	mu         sync.Mutex
	sheets     *sheetsapi.Service
	drive      *drive.Service
	resolvedID string
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Credentials are loaded on the first fetch, so a missing or broken key shows
// up as a load failure of that render and is retried on the next one.
func NewGoogleSheetRepository(cfg config.SheetsConfig, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GoogleSheetRepository{
		cfg:             cfg,
		spreadsheetID:   strings.TrimSpace(cfg.SpreadsheetID),
		spreadsheetName: cfg.SpreadsheetName,
		logger:          logger,
	}
}

func newRepository(sheetsSvc *sheetsapi.Service, driveSvc *drive.Service, id, name string, logger *zap.Logger) *GoogleSheetRepository {
	r := NewGoogleSheetRepository(config.SheetsConfig{SpreadsheetID: id, SpreadsheetName: name}, logger)
	r.sheets = sheetsSvc
	r.drive = driveSvc
	return r
}

// clients returns the API services, building them on first use. A failed
// build is not kept.
func (r *GoogleSheetRepository) clients(ctx context.Context) (*sheetsapi.Service, *drive.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sheets != nil && r.drive != nil {
		return r.sheets, r.drive, nil
	}

	sa, err := credentials.Load(r.cfg.ServiceAccountJSON, r.cfg.CredentialsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load service account: %w", err)
	}

	raw, err := sa.JSON()
	if err != nil {
		return nil, nil, fmt.Errorf("encode service account: %w", err)
	}

	// The token source keeps this context for later refreshes.
	base := context.WithoutCancel(ctx)
	creds, err := google.CredentialsFromJSON(base, raw, sheetsapi.SpreadsheetsReadonlyScope, drive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, nil, fmt.Errorf("build google credentials: %w", err)
	}

	sheetsSvc, err := sheetsapi.NewService(base, option.WithCredentials(creds))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	driveSvc, err := drive.NewService(base, option.WithCredentials(creds))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize drive client: %w", err)
	}

	r.sheets, r.drive = sheetsSvc, driveSvc
	r.logger.Info("google clients initialized", zap.String("client_email", sa.ClientEmail))
	return sheetsSvc, driveSvc, nil
}

// Fetch reads every row of the first worksheet. The first row is the header.
func (r *GoogleSheetRepository) Fetch(ctx context.Context) (models.SheetData, error) {
	sheetsSvc, driveSvc, err := r.clients(ctx)
	if err != nil {
		return models.SheetData{}, err
	}

	id, err := r.resolveID(ctx, driveSvc)
	if err != nil {
		return models.SheetData{}, err
	}

	meta, err := sheetsSvc.Spreadsheets.Get(id).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return models.SheetData{}, fmt.Errorf("read spreadsheet %s: %w", id, err)
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return models.SheetData{}, fmt.Errorf("spreadsheet %s has no worksheets", id)
	}
	title := meta.Sheets[0].Properties.Title

	resp, err := sheetsSvc.Spreadsheets.Values.Get(id, quoteSheetTitle(title)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return models.SheetData{}, fmt.Errorf("read worksheet %s: %w", title, err)
	}

	data, err := models.NewSheetData(resp.Values)
	if err != nil {
		return models.SheetData{}, fmt.Errorf("parse worksheet %s: %w", title, err)
	}

	if modified, err := r.modifiedTime(ctx, driveSvc, id); err != nil {
		r.logger.Warn("spreadsheet modification time unavailable", zap.String("spreadsheet_id", id), zap.Error(err))
	} else {
		data.ModifiedAt = modified
	}

	r.logger.Debug("worksheet fetched",
		zap.String("spreadsheet_id", id),
		zap.String("worksheet", title),
		zap.Int("rows", len(data.Records)),
	)

	return data, nil
}

// resolveID returns the configured spreadsheet ID or looks the spreadsheet up
// by name. A resolved ID is kept for later fetches.
func (r *GoogleSheetRepository) resolveID(ctx context.Context, driveSvc *drive.Service) (string, error) {
	if r.spreadsheetID != "" {
		return r.spreadsheetID, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolvedID != "" {
		return r.resolvedID, nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(r.spreadsheetName), spreadsheetMimeType)

	list, err := driveSvc.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", r.spreadsheetName, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, r.spreadsheetName)
	}

	r.resolvedID = list.Files[0].Id
	r.logger.Info("spreadsheet resolved by name",
		zap.String("name", r.spreadsheetName),
		zap.String("spreadsheet_id", r.resolvedID),
	)
	return r.resolvedID, nil
}

func (r *GoogleSheetRepository) modifiedTime(ctx context.Context, driveSvc *drive.Service, id string) (*time.Time, error) {
	file, err := driveSvc.Files.Get(id).Fields("modifiedTime").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if file.ModifiedTime == "" {
		return nil, errors.New("empty modifiedTime")
	}

	t, err := time.Parse(time.RFC3339, file.ModifiedTime)
	if err != nil {
		return nil, fmt.Errorf("parse modifiedTime %q: %w", file.ModifiedTime, err)
	}
	return &t, nil
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

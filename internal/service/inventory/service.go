package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/estoque/internal/cache"
	"github.com/mamadbah2/estoque/internal/domain/models"
)

// Source reads the raw inventory sheet.
type Source interface {
	Fetch(ctx context.Context) (models.SheetData, error)
}

// LookupRecorder stores an audit entry for each lookup.
type LookupRecorder interface {
	RecordLookup(ctx context.Context, event models.LookupEvent) error
}

// Result is everything a page render needs.
type Result struct {
	Criteria    models.FilterCriteria `json:"criteria"`
	Headers     []string              `json:"headers"`
	Rows        []models.DisplayRow   `json:"rows"`
	Options     models.FilterOptions  `json:"options"`
	Count       int                   `json:"count"`
	Total       int                   `json:"total"`
	LastUpdated string                `json:"last_updated,omitempty"`
	LoadFailed  bool                  `json:"load_failed"`
	Error       string                `json:"error,omitempty"`
	Notice      string                `json:"notice,omitempty"`
}

// Service runs the fetch, clean, filter and format pipeline.
type Service struct {
	source     Source
	cache      *cache.TTL[models.InventoryTable]
	normalizer *Normalizer
	formatter  *Formatter
	recorder   LookupRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the pipeline stages. recorder may be nil.
func NewService(source Source, tableCache *cache.TTL[models.InventoryTable], normalizer *Normalizer, formatter *Formatter, recorder LookupRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		source:     source,
		cache:      tableCache,
		normalizer: normalizer,
		formatter:  formatter,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Lookup renders one request. Load failures are reported inside the result
// with a nil error. A *MissingColumnsError is returned alongside a result that
// carries only the user message.
func (s *Service) Lookup(ctx context.Context, criteria models.FilterCriteria, requestID string) (Result, error) {
	result := Result{
		Criteria: criteria,
		Headers:  s.formatter.Headers(),
		Rows:     []models.DisplayRow{},
		Options:  Options(models.InventoryTable{}),
	}

	table, err := s.Table(ctx)
	if err != nil {
		s.logger.Error("inventory load failed", zap.String("request_id", requestID), zap.Error(err))
		result.LoadFailed = true
		result.Error = MessageLoadFailed
		s.record(ctx, requestID, criteria, 0, 0, true)
		return result, nil
	}

	result.Total = len(table.Rows)
	result.Options = Options(table)
	if table.ModifiedAt != nil {
		result.LastUpdated = s.formatter.FormatDate(*table.ModifiedAt)
	}

	filtered := Filter(table, criteria)
	rows, err := s.formatter.Present(filtered)
	if err != nil {
		var missing *MissingColumnsError
		if errors.As(err, &missing) {
			s.logger.Warn("inventory columns missing", zap.String("request_id", requestID), zap.Strings("missing", missing.Missing))
			result.Error = missing.Message()
		}
		s.record(ctx, requestID, criteria, result.Total, 0, true)
		return result, err
	}

	result.Rows = rows
	result.Count = len(rows)
	if result.Count == 0 {
		result.Notice = MessageNoResults
	}

	s.record(ctx, requestID, criteria, result.Total, result.Count, false)
	return result, nil
}

// Table returns a private copy of the cached table, fetching it when the
// cache is empty or expired.
func (s *Service) Table(ctx context.Context) (models.InventoryTable, error) {
	table, _, err := s.cache.GetOrRefresh(ctx, s.load)
	if err != nil {
		return models.InventoryTable{}, err
	}
	return table.Clone(), nil
}

// Refresh fetches the table now and replaces the cached copy on success.
func (s *Service) Refresh(ctx context.Context) error {
	table, _, err := s.cache.Refresh(ctx, s.load)
	if err != nil {
		return err
	}
	s.logger.Info("inventory cache refreshed", zap.Int("rows", len(table.Rows)))
	return nil
}

// Invalidate drops the cached table.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
	s.logger.Info("inventory cache invalidated")
}

func (s *Service) load(ctx context.Context) (models.InventoryTable, error) {
	start := s.now()
	data, err := s.source.Fetch(ctx)
	if err != nil {
		return models.InventoryTable{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	table := s.normalizer.Normalize(data)
	s.logger.Info("inventory loaded",
		zap.Int("records", len(data.Records)),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return table, nil
}

func (s *Service) record(ctx context.Context, requestID string, criteria models.FilterCriteria, total, matched int, failed bool) {
	if s.recorder == nil {
		return
	}

	event := models.LookupEvent{
		RequestID:   requestID,
		At:          s.now().UTC(),
		Criteria:    criteria,
		TotalRows:   total,
		MatchedRows: matched,
		Failed:      failed,
	}
	if err := s.recorder.RecordLookup(ctx, event); err != nil {
		s.logger.Warn("failed to record lookup", zap.String("request_id", requestID), zap.Error(err))
	}
}

package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/estoque/internal/cache"
	"github.com/mamadbah2/estoque/internal/domain/models"
)

type fakeSource struct {
	mu    sync.Mutex
	data  models.SheetData
	err   error
	calls int
}

func (f *fakeSource) Fetch(context.Context) (models.SheetData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.data, f.err
}

type fakeRecorder struct {
	events []models.LookupEvent
	err    error
}

func (f *fakeRecorder) RecordLookup(_ context.Context, event models.LookupEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func scenarioData() models.SheetData {
	cols := models.DefaultColumns()
	modified := time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC)
	return models.SheetData{
		Headers: cols.Ordered(),
		Records: []map[string]interface{}{
			{cols.Code: "A1", cols.ProductName: "Parafuso", cols.StockGroup: "X", cols.QuantityInStock: "1.234,50", cols.WeeklyAverageSales: "R$ 2,00", cols.StockAnalysisStatus: "ok"},
			{cols.Code: "B2", cols.ProductName: "Prego", cols.StockGroup: "Y", cols.QuantityInStock: "10", cols.WeeklyAverageSales: "", cols.StockAnalysisStatus: "low"},
		},
		ModifiedAt: &modified,
	}
}

func newTestService(source Source, recorder LookupRecorder, cols models.ColumnSet) *Service {
	svc := NewService(
		source,
		cache.NewTTL[models.InventoryTable](time.Minute),
		NewNormalizer(cols, NormalizerOptions{}),
		NewFormatter(cols, FormatterOptions{Location: time.UTC}),
		recorder,
		nil,
	)
	return svc
}

func TestLookupScenario(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeSource{data: scenarioData()}, recorder, models.DefaultColumns())

	res, err := svc.Lookup(context.Background(), models.FilterCriteria{StockGroup: "X", StockAnalysisStatus: models.AllOption}, "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Count != 1 || res.Total != 2 {
		t.Fatalf("expected 1 of 2 rows, got %d of %d", res.Count, res.Total)
	}
	row := res.Rows[0]
	if row.Code != "A1" || row.QuantityInStock != "1.234,50" || row.WeeklyAverageSales != "2" {
		t.Fatalf("unexpected row %+v", row)
	}
	if res.LastUpdated != "10/05/2024" {
		t.Fatalf("unexpected last updated %q", res.LastUpdated)
	}
	if res.Error != "" || res.Notice != "" || res.LoadFailed {
		t.Fatalf("unexpected messages %+v", res)
	}
	if got := res.Options.Groups; len(got) != 3 || got[0] != models.AllOption {
		t.Fatalf("unexpected group options %v", got)
	}

	if len(recorder.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(recorder.events))
	}
	ev := recorder.events[0]
	if ev.RequestID != "req-1" || ev.MatchedRows != 1 || ev.TotalRows != 2 || ev.Failed {
		t.Fatalf("unexpected audit event %+v", ev)
	}
}

func TestLookupNoResults(t *testing.T) {
	svc := newTestService(&fakeSource{data: scenarioData()}, nil, models.DefaultColumns())

	res, err := svc.Lookup(context.Background(), models.FilterCriteria{Code: "zzz"}, "req-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 0 || len(res.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", res.Count)
	}
	if res.Notice != MessageNoResults || res.Error != "" {
		t.Fatalf("expected no-results notice, got %+v", res)
	}
}

func TestLookupLoadFailure(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("mongo down")}
	source := &fakeSource{err: errors.New("permission denied")}
	svc := newTestService(source, recorder, models.DefaultColumns())

	res, err := svc.Lookup(context.Background(), models.FilterCriteria{}, "req-3")
	if err != nil {
		t.Fatalf("load failures must not escape: %v", err)
	}
	if !res.LoadFailed || res.Error != MessageLoadFailed {
		t.Fatalf("expected load failure message, got %+v", res)
	}
	if len(res.Rows) != 0 || res.Notice != "" {
		t.Fatalf("expected empty table without notice, got %+v", res)
	}
	if len(res.Options.Statuses) != 1 {
		t.Fatalf("only the sentinel should be offered, got %v", res.Options.Statuses)
	}
	if len(recorder.events) != 1 || !recorder.events[0].Failed {
		t.Fatalf("failed lookups are still audited")
	}

	if _, err := svc.Table(context.Background()); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected ErrLoadFailed, got %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("failures must not be cached, got %d calls", source.calls)
	}
}

func TestLookupMissingColumns(t *testing.T) {
	cols := models.DefaultColumns()
	cols.WeeklyAverageSales = " Media de venda semanal"
	svc := newTestService(&fakeSource{data: scenarioData()}, nil, cols)

	res, err := svc.Lookup(context.Background(), models.FilterCriteria{}, "req-4")

	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if res.Error != missing.Message() {
		t.Fatalf("result must carry the user message, got %q", res.Error)
	}
	if len(res.Rows) != 0 || res.Count != 0 {
		t.Fatalf("render must be empty on missing columns")
	}
}

func TestLookupUsesCacheUntilInvalidated(t *testing.T) {
	source := &fakeSource{data: scenarioData()}
	svc := newTestService(source, nil, models.DefaultColumns())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Lookup(ctx, models.FilterCriteria{}, "req"); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", source.calls)
	}

	svc.Invalidate()
	if _, err := svc.Lookup(ctx, models.FilterCriteria{}, "req"); err != nil {
		t.Fatalf("lookup after invalidate: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected a fetch after invalidate, got %d", source.calls)
	}

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("refresh must always fetch, got %d", source.calls)
	}
}

func TestTableReturnsPrivateCopy(t *testing.T) {
	svc := newTestService(&fakeSource{data: scenarioData()}, nil, models.DefaultColumns())
	ctx := context.Background()

	first, err := svc.Table(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Rows[0].Code = "changed"

	second, err := svc.Table(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Rows[0].Code != "A1" {
		t.Fatalf("cached table was modified through a copy")
	}
}

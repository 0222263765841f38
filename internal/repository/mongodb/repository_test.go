package mongodb

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/estoque/internal/domain/models"
)

func TestNewLookupRepositoryRejectsBadURI(t *testing.T) {
	if _, err := NewLookupRepository(context.Background(), "postgres://localhost", "estoque"); err == nil {
		t.Fatalf("expected error for a non-mongodb uri")
	}
}

func TestLookupEventDocument(t *testing.T) {
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	event := models.LookupEvent{
		RequestID:   "req-1",
		At:          at,
		Criteria:    models.FilterCriteria{Code: "ab", StockGroup: models.AllOption},
		TotalRows:   10,
		MatchedRows: 2,
	}

	raw, err := bson.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc["request_id"] != "req-1" || doc["matched_rows"] != int32(2) || doc["failed"] != false {
		t.Fatalf("unexpected document %v", doc)
	}
	criteria, ok := doc["criteria"].(bson.M)
	if !ok || criteria["code"] != "ab" || criteria["stock_group"] != models.AllOption {
		t.Fatalf("unexpected criteria %v", doc["criteria"])
	}
}

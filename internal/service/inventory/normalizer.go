package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mamadbah2/estoque/internal/domain/models"
)

// CleaningMode selects how numeric cells are interpreted.
type CleaningMode string

const (
	// CleaningLocale strips currency markers and reads comma decimals.
	CleaningLocale CleaningMode = "locale"
	// CleaningRaw trusts the type returned by the source and only accepts
	// plain float syntax in text cells.
	CleaningRaw CleaningMode = "raw"
)

// ParseCleaningMode validates a configured mode name.
func ParseCleaningMode(value string) (CleaningMode, error) {
	switch mode := CleaningMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "", CleaningLocale:
		return CleaningLocale, nil
	case CleaningRaw:
		return CleaningRaw, nil
	default:
		return "", fmt.Errorf("unknown numeric cleaning mode %q", value)
	}
}

// NormalizerOptions configures the numeric normalizer.
type NormalizerOptions struct {
	Mode CleaningMode
	// RepairLeadingZero reads a bare 2-3 digit value as "0.<digits>". Some
	// cells lose their "0." prefix when the sheet is round-tripped; the
	// correction is wrong for quantities that really are 10-999.
	RepairLeadingZero bool
}

// Normalizer turns raw sheet records into typed inventory rows.
type Normalizer struct {
	columns models.ColumnSet
	opts    NormalizerOptions
}

// NewNormalizer builds a normalizer for the given source headers.
func NewNormalizer(columns models.ColumnSet, opts NormalizerOptions) *Normalizer {
	if opts.Mode == "" {
		opts.Mode = CleaningLocale
	}
	return &Normalizer{columns: columns, opts: opts}
}

// Normalize converts every record, drops rows left entirely empty and fills
// blank categorical cells with models.NotInformed.
func (n *Normalizer) Normalize(data models.SheetData) models.InventoryTable {
	table := models.InventoryTable{
		Columns:    append([]string(nil), data.Headers...),
		Rows:       make([]models.InventoryRow, 0, len(data.Records)),
		ModifiedAt: data.ModifiedAt,
	}

	for _, record := range data.Records {
		row := models.InventoryRow{
			Code:                cellString(record[n.columns.Code]),
			ProductName:         cellString(record[n.columns.ProductName]),
			StockGroup:          cellString(record[n.columns.StockGroup]),
			QuantityInStock:     n.ParseNumber(record[n.columns.QuantityInStock]),
			WeeklyAverageSales:  n.ParseNumber(record[n.columns.WeeklyAverageSales]),
			StockAnalysisStatus: cellString(record[n.columns.StockAnalysisStatus]),
		}
		if isEmptyRow(row) {
			continue
		}

		row.ProductName = orNotInformed(row.ProductName)
		row.StockGroup = orNotInformed(row.StockGroup)
		row.StockAnalysisStatus = orNotInformed(row.StockAnalysisStatus)
		table.Rows = append(table.Rows, row)
	}

	return table
}

// ParseNumber converts one cell. Cells that cannot be read become missing
// values rather than errors.
func (n *Normalizer) ParseNumber(value interface{}) models.NullFloat {
	switch v := value.(type) {
	case nil:
		return models.NullFloat{}
	case float64:
		return n.numeric(v)
	case float32:
		return n.numeric(float64(v))
	case int:
		return n.numeric(float64(v))
	case int64:
		return n.numeric(float64(v))
	case string:
		if n.opts.Mode == CleaningRaw {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return models.NullFloat{}
			}
			return finite(f)
		}
		return n.parseLocale(v)
	default:
		return n.parseLocale(fmt.Sprint(v))
	}
}

func (n *Normalizer) parseLocale(raw string) models.NullFloat {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return models.NullFloat{}
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = strings.TrimPrefix(s, "-")
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	if n.opts.RepairLeadingZero && isShortDigitRun(s) {
		s = "0." + s
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.NullFloat{}
	}
	if neg {
		f = -f
	}
	return finite(f)
}

// numeric applies the leading zero repair to cells the API already returned
// as numbers, matching what parseLocale does for their text form.
func (n *Normalizer) numeric(v float64) models.NullFloat {
	f := finite(v)
	if !f.Valid || !n.opts.RepairLeadingZero || v != math.Trunc(v) {
		return f
	}

	digits := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	if !isShortDigitRun(digits) {
		return f
	}
	r, err := strconv.ParseFloat("0."+digits, 64)
	if err != nil {
		return f
	}
	return models.Float(math.Copysign(r, v))
}

// finite rejects the NaN and Inf spellings strconv accepts.
func finite(f float64) models.NullFloat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return models.NullFloat{}
	}
	return models.Float(f)
}

func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func orNotInformed(value string) string {
	if value == "" {
		return models.NotInformed
	}
	return value
}

func isEmptyRow(row models.InventoryRow) bool {
	return row.Code == "" &&
		row.ProductName == "" &&
		row.StockGroup == "" &&
		row.StockAnalysisStatus == "" &&
		!row.QuantityInStock.Valid &&
		!row.WeeklyAverageSales.Valid
}

// isShortDigitRun matches 2-3 ASCII digits with nothing else.
func isShortDigitRun(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

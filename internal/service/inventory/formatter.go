package inventory

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/estoque/internal/domain/models"
)

const displayDateLayout = "02/01/2006"

// Layouts accepted by FormatDate, tried in order.
var dateLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
	{displayDateLayout, false},
}

// FormatterOptions configures Brazilian-locale rendering.
type FormatterOptions struct {
	// Decimals applies to non-integer values. Defaults to 2.
	Decimals int32
	// PadLeadingZero prefixes "0," to a formatted value made of 2-3 digits
	// only, assuming the leading zero was lost upstream. Legitimate whole
	// quantities between 10 and 999 are rendered wrong when it is on.
	PadLeadingZero bool
	// Location is the timezone dates are shown in. Defaults to UTC.
	Location *time.Location
}

// Formatter renders numbers and dates the Brazilian way and selects the
// presentation columns.
type Formatter struct {
	columns models.ColumnSet
	opts    FormatterOptions
}

// NewFormatter builds a formatter for the given source headers.
func NewFormatter(columns models.ColumnSet, opts FormatterOptions) *Formatter {
	if opts.Decimals <= 0 {
		opts.Decimals = 2
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Formatter{columns: columns, opts: opts}
}

// FormatNumber renders v with dot thousands grouping and comma decimals.
// Whole numbers have no decimal part, except zero which renders as "0,00".
// Missing values render as "".
func (f *Formatter) FormatNumber(v models.NullFloat) string {
	if !v.Valid || math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
		return ""
	}

	places := f.opts.Decimals
	if v.Value != 0 && v.Value == math.Trunc(v.Value) {
		places = 0
	}

	out := groupBrazilian(decimal.NewFromFloat(v.Value).StringFixed(places))
	if f.opts.PadLeadingZero && isShortDigitRun(out) {
		out = "0," + out
	}
	return out
}

// FormatDate renders a timestamp as dd/mm/yyyy. Unparseable input is returned
// as its plain string form and missing input as "".
func (f *Formatter) FormatDate(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.In(f.opts.Location).Format(displayDateLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return f.FormatDate(*v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ""
		}
		for _, candidate := range dateLayouts {
			if candidate.zoned {
				if t, err := time.Parse(candidate.layout, s); err == nil {
					return t.In(f.opts.Location).Format(displayDateLayout)
				}
				continue
			}
			if t, err := time.ParseInLocation(candidate.layout, s, f.opts.Location); err == nil {
				return t.Format(displayDateLayout)
			}
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Present checks that every presentation column exists in the source header
// row and renders the rows in the fixed column order.
func (f *Formatter) Present(table models.InventoryTable) ([]models.DisplayRow, error) {
	expected := f.columns.Ordered()
	var missing []string
	for _, col := range expected {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Expected: expected}
	}

	rows := make([]models.DisplayRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, models.DisplayRow{
			Code:                row.Code,
			ProductName:         row.ProductName,
			StockGroup:          row.StockGroup,
			QuantityInStock:     f.FormatNumber(row.QuantityInStock),
			WeeklyAverageSales:  f.FormatNumber(row.WeeklyAverageSales),
			StockAnalysisStatus: row.StockAnalysisStatus,
		})
	}
	return rows, nil
}

// Headers returns the presentation column labels.
func (f *Formatter) Headers() []string {
	return f.columns.Ordered()
}

// groupBrazilian turns "-1234567.891" into "-1.234.567,891".
func groupBrazilian(plain string) string {
	sign := ""
	if strings.HasPrefix(plain, "-") {
		sign = "-"
		plain = plain[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(plain, ".")

	var b strings.Builder
	b.Grow(len(plain) + len(plain)/3 + 1)
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

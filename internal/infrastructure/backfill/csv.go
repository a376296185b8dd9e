package backfill

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyFile indicates the input had no content at all
	ErrEmptyFile = errors.New("file is empty")
	// ErrInvalidEncoding indicates the input is not valid UTF-8
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	// ErrMissingHeader indicates the header row is absent or unusable
	ErrMissingHeader = errors.New("missing header row")
)

// Column names expected in an opening-balance CSV. name and
// opening_balance are required; the rest are optional.
const (
	colName           = "name"
	colPhone          = "phone"
	colOpeningBalance = "opening_balance"
	colInterestRate   = "interest_rate"
)

// CustomerRow is one parsed line of an opening-balance CSV
type CustomerRow struct {
	Line           int
	Name           string
	Phone          string
	OpeningBalance decimal.Decimal
	InterestRate   *decimal.Decimal
}

// RowError describes why a single CSV line was rejected. Row errors do
// not abort the parse; valid lines around them are still returned.
type RowError struct {
	Line    int
	Field   string
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d, field %q: %s", e.Line, e.Field, e.Message)
}

// ParseOpeningBalances reads an opening-balance CSV and returns the valid
// rows plus a per-line error list for the rejected ones. Only structural
// problems (encoding, missing header) fail the whole parse.
func ParseOpeningBalances(r io.Reader) ([]CustomerRow, []RowError, error) {
	buf := bufio.NewReader(r)
	if err := checkEncoding(buf); err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(buf)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	columns, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := columns[colName]; !ok {
		return nil, nil, fmt.Errorf("%w: required column %q not found", ErrMissingHeader, colName)
	}
	if _, ok := columns[colOpeningBalance]; !ok {
		return nil, nil, fmt.Errorf("%w: required column %q not found", ErrMissingHeader, colOpeningBalance)
	}

	var (
		rows      []CustomerRow
		rowErrors []RowError
		line      = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Field: "", Message: err.Error()})
			continue
		}
		if isBlank(record) {
			continue
		}

		row, errs := parseRow(line, record, columns)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

func checkEncoding(buf *bufio.Reader) error {
	head, err := buf.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return ErrEmptyFile
	}
	// strip UTF-8 BOM
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
		head = head[3:]
	}
	if !utf8.Valid(head) {
		return ErrInvalidEncoding
	}
	return nil
}

func readHeader(reader *csv.Reader) (map[string]int, error) {
	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(record))
	for i, h := range record {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return columns, nil
}

func parseRow(line int, record []string, columns map[string]int) (CustomerRow, []RowError) {
	var errs []RowError
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := CustomerRow{
		Line:  line,
		Name:  field(colName),
		Phone: field(colPhone),
	}
	if row.Name == "" {
		errs = append(errs, RowError{Line: line, Field: colName, Message: "name is required"})
	}

	rawBalance := field(colOpeningBalance)
	if rawBalance == "" {
		errs = append(errs, RowError{Line: line, Field: colOpeningBalance, Message: "opening balance is required"})
	} else {
		balance, err := decimal.NewFromString(rawBalance)
		switch {
		case err != nil:
			errs = append(errs, RowError{Line: line, Field: colOpeningBalance, Message: "not a valid amount"})
		case balance.IsNegative():
			errs = append(errs, RowError{Line: line, Field: colOpeningBalance, Message: "cannot be negative"})
		default:
			row.OpeningBalance = balance
		}
	}

	if rawRate := field(colInterestRate); rawRate != "" {
		rate, err := decimal.NewFromString(rawRate)
		switch {
		case err != nil:
			errs = append(errs, RowError{Line: line, Field: colInterestRate, Message: "not a valid rate"})
		case rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)):
			errs = append(errs, RowError{Line: line, Field: colInterestRate, Message: "must be between 0 and 100"})
		default:
			row.InterestRate = &rate
		}
	}

	return row, errs
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

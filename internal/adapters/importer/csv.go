// Package importer parses bulk drill-result uploads. Malformed rows are
// filtered out here, with per-row errors, before anything reaches the
// scoring engine.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/woocombine/combine/internal/domain/drill"
)

// Expected CSV columns, in order.
const (
	colPlayerNumber = 0
	colDrillKey     = 1
	colRawScore     = 2
	columnCount     = 3
)

// Row is one well-formed import tuple: the player's jersey number, the
// drill attempted, and the raw measurement.
type Row struct {
	PlayerNumber int64
	DrillKey     string
	RawScore     float64
}

// RowError reports why one input line was rejected.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseCSV reads player_number,drill_key,raw_score records. A header line
// is recognized and skipped. Rows with the wrong shape, unparseable
// numbers, or unregistered drill keys come back as RowErrors; only
// well-formed rows are returned for application.
func ParseCSV(r io.Reader, registry *drill.Registry, maxRows int) ([]Row, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated per row for a per-line error
	reader.TrimLeadingSpace = true

	var (
		rows    []Row
		rowErrs []RowError
		line    int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if line == 1 && isHeader(record) {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, nil, fmt.Errorf("%w: limit %d", ErrTooManyRows, maxRows)
		}

		row, err := parseRecord(record, registry)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func parseRecord(record []string, registry *drill.Registry) (Row, error) {
	if len(record) != columnCount {
		return Row{}, fmt.Errorf("%w: got %d columns, want %d", ErrMalformedRow, len(record), columnCount)
	}
	number, err := strconv.ParseInt(strings.TrimSpace(record[colPlayerNumber]), 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: player_number %q", ErrMalformedRow, record[colPlayerNumber])
	}
	key := strings.TrimSpace(record[colDrillKey])
	if _, err := registry.Get(key); err != nil {
		return Row{}, err
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(record[colRawScore]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: raw_score %q", ErrMalformedRow, record[colRawScore])
	}
	return Row{PlayerNumber: number, DrillKey: key, RawScore: raw}, nil
}

// isHeader recognizes the conventional header line so exported files can be
// re-imported without editing.
func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "player_number")
}

// Package export renders ranked leaderboards for download. The engine only
// supplies the ranked rows; file framing is a presentation concern that
// lives here.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/woocombine/combine/internal/domain/drill"
	"github.com/woocombine/combine/internal/domain/types"
)

// WriteCSV writes one header line followed by one line per ranked player.
// Per-drill columns follow the registry's registration order; a drill the
// player never attempted renders as an empty cell.
func WriteCSV(w io.Writer, rows []types.RankingDetail, registry *drill.Registry) error {
	cw := csv.NewWriter(w)

	keys := registry.Keys()
	header := []string{"rank", "name", "jersey_number", "age_group", "composite_score"}
	header = append(header, keys...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Rank),
			row.Name,
			formatJersey(row.JerseyNumber),
			row.AgeGroup,
			formatScore(row.CompositeScore),
		}
		for _, key := range keys {
			if score, ok := row.DrillScores[key]; ok {
				record = append(record, formatScore(score))
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatJersey(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

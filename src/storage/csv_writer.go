package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"netsim-results/src/analysis/core"
	"netsim-results/src/models"
)

// WriteSummaryCSV writes the summary with a header row. Numbers use '.' as
// decimal separator and the shortest exact form; unknown values are empty
// cells; RTT columns are rendered back to "<n>ms" strings.
func WriteSummaryCSV(w io.Writer, summary *models.MSummaryTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summary.Header()); err != nil {
		return err
	}

	record := make([]string, len(summary.Columns)+1)
	for _, row := range summary.Rows {
		record[0] = row.Protocol
		for i, v := range row.Values {
			if summary.Columns[i].Kind == models.KindRTT {
				record[i+1] = core.FormatRTT(v.Mean)
			} else {
				record[i+1] = FormatNumber(v.Mean)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryFile writes the summary CSV to path. The file is written next
// to its destination and renamed into place, so a failed run leaves no
// partial output behind.
func WriteSummaryFile(path string, summary *models.MSummaryTable) error {
	return writeAtomic(path, func(w io.Writer) error {
		return WriteSummaryCSV(w, summary)
	})
}

// FormatNumber renders v locale-independently as a plain decimal; NaN and
// ±Inf render as "".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in '%s': %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close '%s': %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into '%s': %w", path, err)
	}
	return nil
}

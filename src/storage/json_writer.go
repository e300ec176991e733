package storage

import (
	"encoding/json"
	"io"

	"netsim-results/src/models"
)

// WriteChartDataFile stores the chart data next to the summary so that an
// external renderer can pick it up.
func WriteChartDataFile(path string, charts models.MChartData) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(charts)
	})
}

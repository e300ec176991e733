package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim-results/src/models"
)

func TestWriteSummaryCSV(t *testing.T) {
	summary := sampleSummary()
	summary.Columns = append(summary.Columns, models.MSummaryColumn{Name: "JainIndex", Kind: models.KindJainIndex})
	summary.Rows[0].Values = append(summary.Rows[0].Values, models.MSummaryValue{Mean: 0.95, Samples: 2})
	summary.Rows = append(summary.Rows, models.MProtocolSummary{
		Protocol: "UDP",
		Runs:     1,
		Values: []models.MSummaryValue{
			{Mean: 7.25, Samples: 1},
			{Mean: math.NaN()},
			{Mean: math.NaN()},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, summary))

	want := "Protocol,Flow1_Mbps,Flow1_RTT,JainIndex\n" +
		"TCP,15,12.5ms,0.95\n" +
		"UDP,7.25,,\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "", FormatNumber(math.NaN()))
	assert.Equal(t, "", FormatNumber(math.Inf(1)))
	assert.Equal(t, "", FormatNumber(math.Inf(-1)))
	assert.Equal(t, "15", FormatNumber(15))
	assert.Equal(t, "0.1", FormatNumber(0.1))
	assert.Equal(t, "-3.5", FormatNumber(-3.5))
}

func TestWriteSummaryFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.csv")
	require.NoError(t, WriteSummaryFile(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Protocol,Flow1_Mbps,Flow1_RTT\nTCP,15,12.5ms\n", string(data))

	// only the final file is left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteSummaryFileIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteSummaryFile(first, sampleSummary()))
	require.NoError(t, WriteSummaryFile(second, sampleSummary()))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteChartDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.json")
	charts := models.MChartData{
		PerProtocol: []models.MProtocolChart{{Protocol: "TCP", FileStem: "TCP", Labels: []string{"Flow1"}, Values: []float64{15}}},
	}
	require.NoError(t, WriteChartDataFile(path, charts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.MChartData
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.PerProtocol, 1)
	assert.Equal(t, "TCP", decoded.PerProtocol[0].Protocol)
}

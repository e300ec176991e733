package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datasource "netsim-results/src/data_source"
	"netsim-results/src/helpers"
	"netsim-results/src/logger"
	"netsim-results/src/models"
	"netsim-results/src/utils"
)

const tcpResults = `Protocol,Flow1_Mbps,Flow2_Mbps,Flow1_RTT,Flow2_RTT,JainIndex
TCP,10,20,10ms,20ms,0.96
TCP,12,18,10ms,20ms,0.98
`

type fakeDatabase struct {
	saved []models.MSummaryRunInfo
	err   error
}

func (f *fakeDatabase) Initialize() error { return nil }
func (f *fakeDatabase) SaveSummaryRun(run models.MSummaryRunInfo, _ *models.MSummaryTable) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, run)
	return int64(100 + len(f.saved)), nil
}
func (f *fakeDatabase) ListRuns(int) ([]models.MSummaryRunInfo, error) { return f.saved, nil }
func (f *fakeDatabase) CleanupOldData() error                          { return nil }
func (f *fakeDatabase) Close() error                                   { return nil }

type fakeExchanger struct {
	summary   *models.MSummaryTable
	broadcast []models.MLatestData
}

func (f *fakeExchanger) Broadcast(p models.MLatestData) { f.broadcast = append(f.broadcast, p) }
func (f *fakeExchanger) UpdateSummary(s *models.MSummaryTable, _ models.MProcessingMetrics) {
	f.summary = s
}
func (f *fakeExchanger) Start() error { return nil }
func (f *fakeExchanger) Stop() error  { return nil }

func newTestFacade(policy string) *AnalysisFacade {
	cfg := &models.MConfig{
		Name:        "test",
		Aggregation: models.MAggregationConfig{MissingThroughput: policy, HistorySize: 4},
	}
	return NewAnalysisFacade(cfg, logger.NewLoggerWithWriter(io.Discard, logger.LevelError, "facade"))
}

// -----------------------------------------------------------------------------

func TestFacadeRunWritesSummary(t *testing.T) {
	facade := newTestFacade("")
	dir := t.TempDir()
	out := filepath.Join(dir, "summary.csv")
	charts := filepath.Join(dir, "charts.json")

	result, err := facade.Run(datasource.NewReaderSource("tcp.csv", strings.NewReader(tcpResults)), out, charts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metrics.RowsProcessed)
	assert.Equal(t, 1, result.Metrics.Protocols)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Protocol", "Flow1_Mbps", "Flow2_Mbps", "Flow1_RTT", "Flow2_RTT", "JainIndex"}, records[0])
	assert.Equal(t, []string{"TCP", "11", "19", "10ms", "20ms"}, records[1][:5])

	jain, err := strconv.ParseFloat(records[1][5], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.97, jain, 1e-9)

	_, err = os.Stat(charts)
	assert.NoError(t, err)
}

func TestFacadeRunIsByteIdentical(t *testing.T) {
	facade := newTestFacade(models.MissingExclude)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	input := tcpResults + "UDP,,5,bad,1s,\n"
	_, err := facade.Run(datasource.NewReaderSource("in.csv", strings.NewReader(input)), first, "")
	require.NoError(t, err)
	_, err = facade.Run(datasource.NewReaderSource("in.csv", strings.NewReader(input)), second, "")
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), "UDP,,5,,1000ms,\n")
}

func TestFacadeInputErrorWritesNothing(t *testing.T) {
	facade := newTestFacade("")
	out := filepath.Join(t.TempDir(), "summary.csv")

	_, err := facade.Run(datasource.NewFileSource(filepath.Join(t.TempDir(), "missing.csv")), out, "")

	var inputErr *helpers.InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, helpers.CheckFileExists, inputErr.Check)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, facade.History.Size())

	errorsSeen, _ := facade.ErrorHandler.Counts()
	assert.Equal(t, 1, errorsSeen)
}

func TestFacadeZeroPolicyFromConfig(t *testing.T) {
	facade := newTestFacade(models.MissingZero)
	src := datasource.NewReaderSource("in.csv", strings.NewReader("Protocol,Flow1_Mbps\nA,10\nA,\n"))

	result, err := facade.Process(src)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.Summary.Rows[0].Values[0].Mean)
}

func TestFacadeRecordsRun(t *testing.T) {
	facade := newTestFacade("")
	db := &fakeDatabase{}
	ex := &fakeExchanger{}
	facade.Database = db
	facade.Exchanger = ex

	result, err := facade.Process(datasource.NewReaderSource("tcp.csv", strings.NewReader(tcpResults)))
	require.NoError(t, err)

	assert.Equal(t, int64(101), result.Run.ID)
	require.Len(t, db.saved, 1)
	assert.Equal(t, "tcp.csv", db.saved[0].Source)

	latest := facade.History.GetLatest(1)
	require.Len(t, latest, 1)
	assert.Equal(t, int64(101), latest[0].ID)

	assert.Same(t, result.Summary, ex.summary)
	require.Len(t, ex.broadcast, 1)
	assert.Equal(t, "UPDATE", ex.broadcast[0].Type)
	assert.Equal(t, "TCP", ex.broadcast[0].Summary.Rows[0].Protocol)
}

func TestFacadeConcurrentRunsGetDistinctIDs(t *testing.T) {
	facade := newTestFacade("")
	facade.History = utils.NewRunHistory(32)

	ids := make([]int64, 16)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := facade.Process(datasource.NewReaderSource("tcp.csv", strings.NewReader(tcpResults)))
			if assert.NoError(t, err) {
				ids[i] = result.Run.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate run id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 16, facade.History.Size())
}

func TestFacadeDatabaseFailureIsNotFatal(t *testing.T) {
	facade := newTestFacade("")
	facade.Database = &fakeDatabase{err: helpers.NewDatabaseError("down", nil)}

	for i := 0; i < 2; i++ {
		_, err := facade.Process(datasource.NewReaderSource("tcp.csv", strings.NewReader(tcpResults)))
		require.NoError(t, err)
	}

	runs := facade.History.GetAll()
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].ID)
	assert.Equal(t, int64(2), runs[1].ID)

	errorsSeen, _ := facade.ErrorHandler.Counts()
	assert.Equal(t, 2, errorsSeen)
}

func TestFacadeWarningsAreCounted(t *testing.T) {
	facade := newTestFacade("")
	src := datasource.NewReaderSource("in.csv", strings.NewReader("Protocol,Flow1_Mbps\nA,x\nA,3\n"))

	result, err := facade.Process(src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metrics.ParseWarnings)

	_, warnings := facade.ErrorHandler.Counts()
	assert.Equal(t, 1, warnings)
}

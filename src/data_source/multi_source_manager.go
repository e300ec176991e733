package datasource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"netsim-results/src/interfaces"
	"netsim-results/src/logger"
	"netsim-results/src/models"
)

// MultiSource loads several result files as one table. Files are read
// concurrently; rows keep file order, then row order within each file.
type MultiSource struct {
	Sources []interfaces.IResultSource
	Logger  *logger.Logger
	mu      sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMultiSource(sources []interfaces.IResultSource, log *logger.Logger) *MultiSource {
	return &MultiSource{
		Sources: sources,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// AddSource appends a source, rejecting duplicate names
func (m *MultiSource) AddSource(source interfaces.IResultSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.Sources {
		if s.Name() == source.Name() {
			return fmt.Errorf("source %s already exists", source.Name())
		}
	}
	m.Sources = append(m.Sources, source)
	return nil
}

// -----------------------------------------------------------------------------

func (m *MultiSource) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// -----------------------------------------------------------------------------

// Load reads every source and merges them. The merged header is the union
// of all headers in first-seen order; a file lacking a column contributes
// empty cells for it. The first failing source aborts the load.
func (m *MultiSource) Load() (*models.MResultTable, error) {
	m.mu.RLock()
	sources := append([]interfaces.IResultSource(nil), m.Sources...)
	m.mu.RUnlock()

	if len(sources) == 1 {
		return sources[0].Load()
	}

	tables := make([]*models.MResultTable, len(sources))
	g, ctx := errgroup.WithContext(context.Background())
	for i, src := range sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			table, err := src.Load()
			if err != nil {
				return err
			}
			tables[i] = table
			if m.Logger != nil {
				m.Logger.Debug("Loaded %d rows from %s", len(table.Rows), src.Name())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeTables(m.Name(), tables), nil
}

// -----------------------------------------------------------------------------

func mergeTables(name string, tables []*models.MResultTable) *models.MResultTable {
	merged := &models.MResultTable{Source: name}
	position := make(map[string]int)

	for _, t := range tables {
		for _, col := range t.Header {
			if _, ok := position[col]; !ok {
				position[col] = len(merged.Header)
				merged.Header = append(merged.Header, col)
			}
		}
	}

	for _, t := range tables {
		// a repeated column inside one file keeps its first occurrence
		target := make([]int, len(t.Header))
		taken := make(map[string]bool, len(t.Header))
		for c, col := range t.Header {
			target[c] = -1
			if !taken[col] {
				taken[col] = true
				target[c] = position[col]
			}
		}

		for r := range t.Rows {
			row := make([]string, len(merged.Header))
			for c := range t.Header {
				if target[c] >= 0 {
					row[target[c]] = t.Cell(r, c)
				}
			}
			merged.Rows = append(merged.Rows, row)
		}
	}
	return merged
}

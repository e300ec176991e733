package utils

import (
	"sync"

	"netsim-results/src/models"
)

// -----------------------------------------------------------------------------
// RunHistory is a fixed-size circular buffer of aggregation runs.
// Oldest entries are overwritten once it is full.
// -----------------------------------------------------------------------------

type RunHistory struct {
	mu       sync.RWMutex
	data     []models.MSummaryRunInfo
	capacity int
	index    int   // Next write position
	size     int   // Current number of elements
	lastID   int64 // Highest run id ever stored, survives Clear
}

// -----------------------------------------------------------------------------

// NewRunHistory creates a new buffer with fixed capacity
func NewRunHistory(capacity int) *RunHistory {
	if capacity <= 0 {
		capacity = 50
	}

	return &RunHistory{
		data:     make([]models.MSummaryRunInfo, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a run
func (rb *RunHistory) Append(run models.MSummaryRunInfo) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.appendLocked(run)
}

// AppendWithID stores run, first giving it the next free id when it has
// none, and returns the stored copy.
func (rb *RunHistory) AppendWithID(run models.MSummaryRunInfo) models.MSummaryRunInfo {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if run.ID == 0 {
		run.ID = rb.lastID + 1
	}
	rb.appendLocked(run)
	return run
}

func (rb *RunHistory) appendLocked(run models.MSummaryRunInfo) {
	if run.ID > rb.lastID {
		rb.lastID = run.ID
	}
	rb.data[rb.index] = run
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns up to n latest runs, newest first.
func (rb *RunHistory) GetLatest(n int) []models.MSummaryRunInfo {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 || n <= 0 {
		return []models.MSummaryRunInfo{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MSummaryRunInfo, count)
	for i := 0; i < count; i++ {
		// latest data is at index-1
		idx := (rb.index - 1 - i + rb.capacity) % rb.capacity
		result[i] = rb.data[idx]
	}
	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all runs in insertion order (oldest to newest)
func (rb *RunHistory) GetAll() []models.MSummaryRunInfo {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]models.MSummaryRunInfo, rb.size)

	// Buffer is full: oldest is at current index (wrap-around)
	startIdx := 0
	if rb.size == rb.capacity {
		startIdx = rb.index
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}
	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RunHistory) Size() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RunHistory) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *RunHistory) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RunHistory) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.index = 0
	rb.size = 0
}

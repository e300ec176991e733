package models

// MResultTable is one raw results file as read from disk: a trimmed header
// and one string slice per simulation run. Cells are kept as text so every
// numeric decision stays with the aggregator.
type MResultTable struct {
	Source string     `json:"source"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Cell returns the trimmed-by-reader value at (row, col), or "" when the row
// is shorter than the header.
func (t *MResultTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

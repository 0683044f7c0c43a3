package metrics

import "sort"

// StatusRow is one row of the status-code histogram.
type StatusRow struct {
	Code  int
	Count int64
}

// SortedStatusRows converts a status-code histogram into rows sorted by
// ascending code for stable report output.
func SortedStatusRows(counts map[int]int64) []StatusRow {
	if len(counts) == 0 {
		return nil
	}
	rows := make([]StatusRow, 0, len(counts))
	for code, count := range counts {
		rows = append(rows, StatusRow{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}

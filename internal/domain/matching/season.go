package matching

import "strings"

// SeasonRow is one season line of a statistics table.
type SeasonRow struct {
	Season      string
	Minutes     int
	Goals       int
	Assists     int
	Appearances int
	Position    string
}

// SelectionKey ranks rows when no exact season is available.
func SelectionKey(row SeasonRow, bonus float64) int {
	return row.Minutes + int(1000*bonus)
}

// SelectSeason picks the row labelled with target. Without an exact label it
// falls back to the row with the highest selection key across all rows. Ties
// resolve to the earliest row so the choice is stable for identical input.
func SelectSeason(rows []SeasonRow, target string, bonus float64) (SeasonRow, bool) {
	target = strings.TrimSpace(target)

	if target != "" {
		if row, ok := bestRow(rows, bonus, func(row SeasonRow) bool {
			return strings.TrimSpace(row.Season) == target
		}); ok {
			return row, true
		}
	}

	return bestRow(rows, bonus, func(SeasonRow) bool { return true })
}

func bestRow(rows []SeasonRow, bonus float64, accept func(SeasonRow) bool) (SeasonRow, bool) {
	var (
		best  SeasonRow
		key   int
		found bool
	)
	for _, row := range rows {
		if !accept(row) {
			continue
		}
		current := SelectionKey(row, bonus)
		if !found || current > key {
			best = row
			key = current
			found = true
		}
	}
	return best, found
}

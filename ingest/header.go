package ingest

import "strings"

// Header keyword sets per sheet type. Hand-maintained reports shift the
// header row around freely, so the row is found by content, not by offset.
var (
	schoolSalesHeaderKeywords = []string{"担当", "manager", "person in charge"}
	eventSalesHeaderKeywords  = []string{"事業所", "学校名", "branch", "school name"}
	memberRateHeaderKeywords  = []string{"学校id", "学校名", "school id"}
)

// LocateHeader scans rows top to bottom and returns the index of the first
// row containing a cell that matches any keyword (case-insensitive
// substring). Returns ErrHeaderNotFound when no row qualifies; callers skip
// the sheet and keep the import going.
func LocateHeader(grid [][]string, keywords []string) (int, error) {
	for i, row := range grid {
		for _, cell := range row {
			c := strings.ToLower(strings.TrimSpace(cell))
			if c == "" {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(c, kw) {
					return i, nil
				}
			}
		}
	}
	return 0, ErrHeaderNotFound
}

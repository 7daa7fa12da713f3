package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"swingbook/internal/template"
)

// Launch-monitor exports carry a preamble before the real header and
// summary rows after the data, so the reader hunts for the header within
// the first few rows and drops the summary footer by its first cell.

const headerSearchRows = 3

// requiredColumns must all be present for a row to count as the header.
var requiredColumns = []string{
	"Club Type", "Ball Speed", "Smash Factor", "Spin Rate", "Descent Angle",
}

// footerCells are first-cell markers of summary rows appended by the device.
var footerCells = map[string]struct{}{
	"Average":   {},
	"Std. Dev.": {},
	"Std Dev":   {},
}

// columnMetrics maps header column names (lower-cased) to shot metric keys.
var columnMetrics = map[string]string{
	"club type":      "club",
	"carry distance": "carry_distance",
	"ball speed":     "ball_speed",
	"smash factor":   "smash_factor",
	"spin rate":      "spin_rate",
	"descent angle":  "descent_angle",
}

// Shot is one parsed data row.
type Shot struct {
	Club    string // normalized, lower-case
	Metrics map[string]float64
}

// ParseResult groups parsed shots by club and reports what was dropped.
type ParseResult struct {
	ShotsByClub   map[string][]Shot
	MalformedRows int
	FooterRows    int
}

// TotalShots counts shots across all clubs.
func (r *ParseResult) TotalShots() int {
	n := 0
	for _, shots := range r.ShotsByClub {
		n += len(shots)
	}
	return n
}

// ParseCSV reads a launch-monitor export. Rows that fail to parse are
// skipped and counted, never fatal; only a missing header aborts.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var header []string
	for i := 0; i < headerSearchRows; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if isHeaderRow(row) {
			header = row
			break
		}
	}
	if header == nil {
		return nil, fmt.Errorf("no header row found in first %d rows", headerSearchRows)
	}

	cols := buildColumnMap(header)

	result := &ParseResult{ShotsByClub: make(map[string][]Shot)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.MalformedRows++
			continue
		}
		if len(row) == 0 {
			continue
		}
		if isFooterRow(row) {
			result.FooterRows++
			continue
		}
		shot, ok := parseShotRow(row, cols)
		if !ok {
			result.MalformedRows++
			continue
		}
		result.ShotsByClub[shot.Club] = append(result.ShotsByClub[shot.Club], shot)
	}

	return result, nil
}

func isHeaderRow(row []string) bool {
	present := make(map[string]struct{}, len(row))
	for _, cell := range row {
		if cell != "" {
			present[strings.TrimSpace(cell)] = struct{}{}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			return false
		}
	}
	return true
}

func isFooterRow(row []string) bool {
	_, ok := footerCells[strings.TrimSpace(row[0])]
	return ok
}

func buildColumnMap(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, name := range header {
		if metric, ok := columnMetrics[strings.ToLower(strings.TrimSpace(name))]; ok {
			cols[metric] = idx
		}
	}
	return cols
}

// parseShotRow extracts club plus all numeric metrics from one row. Every
// mapped metric column must parse; a row missing any is malformed.
func parseShotRow(row []string, cols map[string]int) (Shot, bool) {
	clubIdx, ok := cols["club"]
	if !ok || clubIdx >= len(row) {
		return Shot{}, false
	}
	club := NormalizeClub(row[clubIdx])
	if club == "" {
		return Shot{}, false
	}

	metrics := make(map[string]float64, len(cols)-1)
	for metric, idx := range cols {
		if metric == "club" {
			continue
		}
		if idx >= len(row) {
			return Shot{}, false
		}
		v, err := strconv.ParseFloat(cellValue(row[idx]), 64)
		if err != nil {
			return Shot{}, false
		}
		metrics[metric] = v
	}

	return Shot{Club: club, Metrics: metrics}, true
}

// NormalizeClub groups club label variants; see template.NormalizeClub.
func NormalizeClub(raw string) string {
	return template.NormalizeClub(raw)
}

func cellValue(cell string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(cell), `"`))
}

// Package casefatality joins the statewide daily case/death series with the
// sparse facility-resident death series and computes the two case-fatality
// ratios written back onto the daily snapshots.
package casefatality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ugrc/ltcfsync/internal/normalize"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// Sheet names inside the case-fatality workbook.
const (
	StatewideSheet = "Utah"
	ResidentSheet  = "Resident"
)

// StatewideDay is one row of the statewide series: cumulative case and death
// totals for a date. The statewide series has a row for every day since the
// first confirmed case.
type StatewideDay struct {
	Date             time.Time
	CumulativeCases  int
	CumulativeDeaths int
}

// ResidentDay is one row of the facility-resident death series. The series is
// sparse: only dates on which at least one resident died are present.
type ResidentDay struct {
	Date             time.Time
	DailyDeaths      int
	CumulativeDeaths int
}

// LoadWorkbook reads both sheets of the case-fatality workbook. Rows with a
// blank date and the trailing "Grand Total" row of the resident sheet are
// dropped.
func LoadWorkbook(path string) ([]StatewideDay, []ResidentDay, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	stateRows, err := f.GetRows(StatewideSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %s: %w", StatewideSheet, err)
	}
	resRows, err := f.GetRows(ResidentSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %s: %w", ResidentSheet, err)
	}

	var statewide []StatewideDay
	for i, row := range stateRows {
		if i == 0 {
			continue // header
		}
		date, ok, err := parseRowDate(row)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s row %d: %w", StatewideSheet, i+1, err)
		}
		if !ok {
			continue
		}
		cases, err := cellInt(row, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s row %d: cumulative cases: %w", StatewideSheet, i+1, err)
		}
		deaths, err := cellInt(row, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s row %d: cumulative deaths: %w", StatewideSheet, i+1, err)
		}
		statewide = append(statewide, StatewideDay{Date: date, CumulativeCases: cases, CumulativeDeaths: deaths})
	}

	var resident []ResidentDay
	for i, row := range resRows {
		if i == 0 {
			continue
		}
		date, ok, err := parseRowDate(row)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s row %d: %w", ResidentSheet, i+1, err)
		}
		if !ok {
			continue
		}
		daily, err := cellInt(row, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s row %d: daily deaths: %w", ResidentSheet, i+1, err)
		}
		cum, err := cellInt(row, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s row %d: cumulative deaths: %w", ResidentSheet, i+1, err)
		}
		resident = append(resident, ResidentDay{Date: date, DailyDeaths: daily, CumulativeDeaths: cum})
	}

	return statewide, resident, nil
}

// parseRowDate reads the first cell as a date. Blank cells and the resident
// sheet's "Grand Total" footer are skipped, not errors.
func parseRowDate(row []string) (time.Time, bool, error) {
	if len(row) == 0 {
		return time.Time{}, false, nil
	}
	cell := strings.TrimSpace(row[0])
	if cell == "" || strings.EqualFold(cell, "Grand Total") {
		return time.Time{}, false, nil
	}
	// Excel sometimes hands back the raw serial number instead of a
	// formatted date.
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("date serial %q: %w", cell, err)
		}
		return types.Day(d), true, nil
	}
	d, err := normalize.ParseDate(cell)
	if err != nil {
		return time.Time{}, false, err
	}
	return types.Day(d), true, nil
}

func cellInt(row []string, idx int) (int, error) {
	if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
		return 0, nil
	}
	s := strings.TrimSpace(row[idx])
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), nil
	}
	return 0, fmt.Errorf("parsing number %q", s)
}

// Package normalize loads and cleans the incoming spreadsheet update batch.
//
// The batch arrives as a CSV export of the tracking sheet. Column headers are
// renamed to the canonical layer field names, string cells are trimmed, blank
// integer cells become the unknown-count sentinel, and typed columns are
// coerced. Coercion failure is fatal for the run: malformed input halts before
// any store mutation.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// columnRenames maps spreadsheet headers to canonical layer field names. The
// sheet's own Facility_Type column is discarded in favor of the dashboard
// facility type, and Notes never leaves the sheet.
var columnRenames = map[string]string{
	"ID":                           "OID",
	"Dashboard Facility Type":      "Facility_Type",
	"Positive Patients":            "Positive_Patients",
	"Deceased Patients":            "Deceased_Patients",
	"Positive HCWs":                "Positive_HCWs",
	"Positive Patient Description": "Positive_Patients_Desc",
	"Last Positive Resident":       "LastPos_Resident",
}

// droppedColumns are spreadsheet columns with no canonical counterpart.
var droppedColumns = map[string]bool{
	"Facility_Type": true,
	"Notes":         true,
}

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1/2/06",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"Jan 2, 2006",
	"01-02-06",
}

// ParseDate parses a spreadsheet date cell, accepting the formats the tracking
// sheet has been seen to export.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Normalize converts raw CSV rows (header row first) into clean update
// records, sorted ascending by UniqueID. Duplicate UniqueIDs keep the last
// occurrence in file order.
func Normalize(rows [][]string, schema types.SchemaConfig) ([]types.UpdateRecord, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("update batch has no data rows")
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	col := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if droppedColumns[h] {
			continue
		}
		if canonical, ok := columnRenames[h]; ok {
			h = canonical
		}
		col[h] = i
	}

	required := []string{
		"UniqueID", "Facility_Name", "Address", "City", "ZIP_Code",
		"Facility_Type", "LHD", "Resolved_Y_N", "Date_Resolved",
		"Notification_Date", "Positive_Patients", "Deceased_Patients",
		"Positive_HCWs",
	}
	if schema.LastPosResident {
		required = append(required, "LastPos_Resident")
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing required column: %s", name)
		}
	}

	byID := map[int]types.UpdateRecord{}
	var order []int

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		rec := rows[rowIdx]
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id, err := parseIntCell(get("UniqueID"))
		if err != nil {
			return nil, fmt.Errorf("row %d: UniqueID: %w", rowIdx+1, err)
		}

		upd := types.UpdateRecord{
			UniqueID:     id,
			FacilityName: get("Facility_Name"),
			Address:      get("Address"),
			City:         get("City"),
			ZIPCode:      get("ZIP_Code"),
			FacilityType: get("Facility_Type"),
			LHD:          get("LHD"),
			Resolved:     get("Resolved_Y_N"),
		}
		if upd.Resolved == "" {
			upd.Resolved = "N"
		}

		for _, f := range []struct {
			name string
			dst  *types.Count
		}{
			{"Positive_Patients", &upd.PositivePatients},
			{"Deceased_Patients", &upd.DeceasedPatients},
			{"Positive_HCWs", &upd.PositiveHCWs},
		} {
			c, err := parseCountCell(get(f.name))
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", rowIdx+1, f.name, err)
			}
			*f.dst = c
		}

		for _, f := range []struct {
			name    string
			dst     **time.Time
			enabled bool
		}{
			{"Date_Resolved", &upd.DateResolved, true},
			{"Notification_Date", &upd.NotificationDate, true},
			{"LastPos_Resident", &upd.LastPosResident, schema.LastPosResident},
		} {
			if !f.enabled {
				continue
			}
			d, err := parseDateCell(get(f.name))
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", rowIdx+1, f.name, err)
			}
			*f.dst = d
		}

		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = upd // duplicate UniqueID: last occurrence wins
	}

	out := make([]types.UpdateRecord, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID < out[j].UniqueID })
	return out, nil
}

func parseIntCell(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("blank cell where integer required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing integer %q: %w", s, err)
	}
	return n, nil
}

// parseCountCell treats a blank cell as "not yet reported".
func parseCountCell(s string) (types.Count, error) {
	if s == "" {
		return types.UnknownCount, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing count %q: %w", s, err)
	}
	return types.Count(n), nil
}

func parseDateCell(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

package feature

import (
	"context"
	"fmt"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// snapshotXY anchors every events-by-day feature at a fixed point; the table
// is displayed as a chart, not a map, but the layer schema requires geometry.
var snapshotXY = geometry{X: 40, Y: -111}

// Snapshots reads the full events-by-day history.
func (p *Provider) Snapshots(ctx context.Context) ([]types.DailySnapshot, error) {
	feats, err := p.query(ctx, p.cfg.SnapshotURL, false)
	if err != nil {
		return nil, fmt.Errorf("querying events-by-day table: %w", err)
	}

	snaps := make([]types.DailySnapshot, 0, len(feats))
	for _, f := range feats {
		snaps = append(snaps, snapshotFromAttrs(f))
	}
	return snaps, nil
}

// AppendSnapshot adds the row for a new date.
func (p *Provider) AppendSnapshot(ctx context.Context, snap types.DailySnapshot) error {
	f := snapshotToAttrs(snap)
	f.Geometry = &snapshotXY
	if err := p.applyEdits(ctx, p.cfg.SnapshotURL, "addFeatures", []feature{f}); err != nil {
		return fmt.Errorf("appending daily snapshot: %w", err)
	}
	return nil
}

// UpdateSnapshots rewrites derived and case-fatality fields on existing rows.
func (p *Provider) UpdateSnapshots(ctx context.Context, snaps []types.DailySnapshot) error {
	feats := make([]feature, 0, len(snaps))
	for _, snap := range snaps {
		feats = append(feats, snapshotToAttrs(snap))
	}
	if err := p.applyEdits(ctx, p.cfg.SnapshotURL, "updateFeatures", feats); err != nil {
		return fmt.Errorf("updating daily snapshots: %w", err)
	}
	return nil
}

func snapshotFromAttrs(f feature) types.DailySnapshot {
	a := f.Attributes
	snap := types.DailySnapshot{
		ObjectID:               attrInt(a, "OBJECTID"),
		TotalInvestigations:    attrInt(a, "Total_Investigations"),
		TotalOutbreaks:         attrInt(a, "Total_Outbreaks"),
		TotalOutbreaksResolved: attrInt(a, "Total_Outbreaks_Resolved"),
		TotalPositiveResidents: attrInt(a, "Total_Positive_Residents"),
		TotalDeceasedResidents: attrInt(a, "Total_Deceased_Residents"),
		TotalPositiveHCWs:      attrInt(a, "Total_Positive_HCWs"),

		TodayFacilitiesActiveCases: attrInt(a, "Today_Facilities_Active_Cases"),
		TodayCountMoreThan20:       attrInt(a, "Today_Count_More_than_20"),
		TodayCount11To20:           attrInt(a, "Today_Count_11_to_20"),
		TodayCount5To10:            attrInt(a, "Today_Count_5_to_10"),
		TodayCount1To4:             attrInt(a, "Today_Count_1_to_4"),
		TodayCountNoResCases:       attrInt(a, "Today_Count_No_Res_Cases"),

		TodayInvestigations:    attrIntPtr(a, "Today_Investigations"),
		TodayOutbreaks:         attrIntPtr(a, "Today_Outbreaks"),
		TodayOutbreaksResolved: attrIntPtr(a, "Today_Outbreaks_Resolved"),
		TodayPositiveResidents: attrIntPtr(a, "Today_Positive_Residents"),
		TodayDeceasedResidents: attrIntPtr(a, "Today_Deceased_Residents"),
		TodayPositiveHCWs:      attrIntPtr(a, "Today_Positive_HCWs"),

		TodayFacActiveCases7DayAvg: attrFloatPtr(a, "Today_Fac_Active_Cases_7_Day_Av"),
		TodayOutbreaks7DayAvg:      attrFloatPtr(a, "Today_Outbreaks_7_Day_Avg"),
		TodayOutbreaksRes7DayAvg:   attrFloatPtr(a, "Today_Outbreaks_Res_7_Day_Avg"),
		TotalPositiveRes7DayAvg:    attrFloatPtr(a, "Total_Positive_Res_7_Day_Avg"),
		TotalDeceasedRes7DayAvg:    attrFloatPtr(a, "Total_Deceased_Res_7_Day_Avg"),
		TotalPositiveHCWs7DayAvg:   attrFloatPtr(a, "Total_Positive_HCWs_7_Day_Avg"),
		TodayPositiveRes7DayAvg:    attrFloatPtr(a, "Today_Positive_Res_7_Day_Avg"),
		TodayDeceasedRes7DayAvg:    attrFloatPtr(a, "Today_Deceased_Res_7_Day_Avg"),
		TodayPositiveHCWs7DayAvg:   attrFloatPtr(a, "Today_Positive_HCWs_7_Day_Avg"),
		FacMoreThan207DayAvg:       attrFloatPtr(a, "Fac_More_than_20_7_Day_Avg"),
		Fac11To207DayAvg:           attrFloatPtr(a, "Fac_11_to_20_7_Day_Avg"),
		Fac5To107DayAvg:            attrFloatPtr(a, "Fac_5_to_10_7_Day_Avg"),
		Fac1To47DayAvg:             attrFloatPtr(a, "Fac_1_to_4_7_Day_Avg"),
		FacNoResCases7DayAvg:       attrFloatPtr(a, "Fac_No_Res_Cases_7_Day_Avg"),

		UTCumulativeCases:        attrIntPtr(a, "UT_Cumulative_Cases"),
		UTCumulativeDeaths:       attrIntPtr(a, "UT_Cumulative_Deaths"),
		ResidentCumulativeDeaths: attrIntPtr(a, "Corrected_Res_Cumulative_Deaths"),
		LTCFDeathRatio:           attrFloatPtr(a, "LTCF_DeathRatio"),
		UTDeathRatio:             attrFloatPtr(a, "UT_DeathRatio"),
	}
	if d := attrDate(a, "Date"); d != nil {
		snap.Date = types.Day(*d)
	}
	return snap
}

func snapshotToAttrs(snap types.DailySnapshot) feature {
	a := map[string]interface{}{
		"OBJECTID":                 snap.ObjectID,
		"Date":                     snap.Date.UnixMilli(),
		"Total_Investigations":     snap.TotalInvestigations,
		"Total_Outbreaks":          snap.TotalOutbreaks,
		"Total_Outbreaks_Resolved": snap.TotalOutbreaksResolved,
		"Total_Positive_Residents": snap.TotalPositiveResidents,
		"Total_Deceased_Residents": snap.TotalDeceasedResidents,
		"Total_Positive_HCWs":      snap.TotalPositiveHCWs,

		"Today_Facilities_Active_Cases": snap.TodayFacilitiesActiveCases,
		"Today_Count_More_than_20":      snap.TodayCountMoreThan20,
		"Today_Count_11_to_20":          snap.TodayCount11To20,
		"Today_Count_5_to_10":           snap.TodayCount5To10,
		"Today_Count_1_to_4":            snap.TodayCount1To4,
		"Today_Count_No_Res_Cases":      snap.TodayCountNoResCases,
	}

	putIntPtr(a, "Today_Investigations", snap.TodayInvestigations)
	putIntPtr(a, "Today_Outbreaks", snap.TodayOutbreaks)
	putIntPtr(a, "Today_Outbreaks_Resolved", snap.TodayOutbreaksResolved)
	putIntPtr(a, "Today_Positive_Residents", snap.TodayPositiveResidents)
	putIntPtr(a, "Today_Deceased_Residents", snap.TodayDeceasedResidents)
	putIntPtr(a, "Today_Positive_HCWs", snap.TodayPositiveHCWs)

	putFloatPtr(a, "Today_Fac_Active_Cases_7_Day_Av", snap.TodayFacActiveCases7DayAvg)
	putFloatPtr(a, "Today_Outbreaks_7_Day_Avg", snap.TodayOutbreaks7DayAvg)
	putFloatPtr(a, "Today_Outbreaks_Res_7_Day_Avg", snap.TodayOutbreaksRes7DayAvg)
	putFloatPtr(a, "Total_Positive_Res_7_Day_Avg", snap.TotalPositiveRes7DayAvg)
	putFloatPtr(a, "Total_Deceased_Res_7_Day_Avg", snap.TotalDeceasedRes7DayAvg)
	putFloatPtr(a, "Total_Positive_HCWs_7_Day_Avg", snap.TotalPositiveHCWs7DayAvg)
	putFloatPtr(a, "Today_Positive_Res_7_Day_Avg", snap.TodayPositiveRes7DayAvg)
	putFloatPtr(a, "Today_Deceased_Res_7_Day_Avg", snap.TodayDeceasedRes7DayAvg)
	putFloatPtr(a, "Today_Positive_HCWs_7_Day_Avg", snap.TodayPositiveHCWs7DayAvg)
	putFloatPtr(a, "Fac_More_than_20_7_Day_Avg", snap.FacMoreThan207DayAvg)
	putFloatPtr(a, "Fac_11_to_20_7_Day_Avg", snap.Fac11To207DayAvg)
	putFloatPtr(a, "Fac_5_to_10_7_Day_Avg", snap.Fac5To107DayAvg)
	putFloatPtr(a, "Fac_1_to_4_7_Day_Avg", snap.Fac1To47DayAvg)
	putFloatPtr(a, "Fac_No_Res_Cases_7_Day_Avg", snap.FacNoResCases7DayAvg)

	putIntPtr(a, "UT_Cumulative_Cases", snap.UTCumulativeCases)
	putIntPtr(a, "UT_Cumulative_Deaths", snap.UTCumulativeDeaths)
	putIntPtr(a, "Corrected_Res_Cumulative_Deaths", snap.ResidentCumulativeDeaths)
	putFloatPtr(a, "LTCF_DeathRatio", snap.LTCFDeathRatio)
	putFloatPtr(a, "UT_DeathRatio", snap.UTDeathRatio)

	return feature{Attributes: a}
}

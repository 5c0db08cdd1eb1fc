package feature

import (
	"context"
	"fmt"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// Facilities reads the full facility layer extent.
func (p *Provider) Facilities(ctx context.Context) ([]types.FacilityRecord, error) {
	feats, err := p.query(ctx, p.cfg.FacilityURL, true)
	if err != nil {
		return nil, fmt.Errorf("querying facility layer: %w", err)
	}

	recs := make([]types.FacilityRecord, 0, len(feats))
	for _, f := range feats {
		recs = append(recs, facilityFromAttrs(f))
	}
	return recs, nil
}

// AddFacilities appends new facility features with point geometry taken from
// the record's coordinates.
func (p *Provider) AddFacilities(ctx context.Context, recs []types.FacilityRecord) error {
	feats := make([]feature, 0, len(recs))
	for _, rec := range recs {
		f := facilityToAttrs(rec)
		f.Geometry = &geometry{X: rec.Longitude, Y: rec.Latitude}
		feats = append(feats, f)
	}
	if err := p.applyEdits(ctx, p.cfg.FacilityURL, "addFeatures", feats); err != nil {
		return fmt.Errorf("adding facilities: %w", err)
	}
	return nil
}

// UpdateFacilities rewrites attribute fields on existing facility features.
func (p *Provider) UpdateFacilities(ctx context.Context, recs []types.FacilityRecord) error {
	feats := make([]feature, 0, len(recs))
	for _, rec := range recs {
		feats = append(feats, facilityToAttrs(rec))
	}
	if err := p.applyEdits(ctx, p.cfg.FacilityURL, "updateFeatures", feats); err != nil {
		return fmt.Errorf("updating facilities: %w", err)
	}
	return nil
}

func facilityFromAttrs(f feature) types.FacilityRecord {
	a := f.Attributes
	rec := types.FacilityRecord{
		ObjectID:             attrInt(a, "OBJECTID"),
		UniqueID:             attrInt(a, "UniqueID"),
		FacilityName:         attrString(a, "Facility_Name"),
		Address:              attrString(a, "Address"),
		City:                 attrString(a, "City"),
		ZIPCode:              attrString(a, "ZIP_Code"),
		FacilityType:         attrString(a, "Facility_Type"),
		LHD:                  attrString(a, "LHD"),
		Resolved:             attrString(a, "Resolved_Y_N"),
		DateResolved:         attrDate(a, "Date_Resolved"),
		NotificationDate:     attrDate(a, "Notification_Date"),
		LastPosResident:      attrDate(a, "LastPos_Resident"),
		Longitude:            attrFloat(a, "Longitude"),
		Latitude:             attrFloat(a, "Latitude"),
		PositivePatients:     types.Count(attrInt(a, "Positive_Patients")),
		DeceasedPatients:     types.Count(attrInt(a, "Deceased_Patients")),
		PositiveHCWs:         types.Count(attrInt(a, "Positive_HCWs")),
		PositivePatientsDesc: types.DescBucket(attrString(a, "Positive_Patients_Desc")),
		DashboardDisplay:     attrString(a, "Dashboard_Display"),
		DashboardDisplayCat:  attrInt(a, "Dashboard_Display_Cat"),
		CreationDate:         attrDate(a, "CreationDate"),
		Creator:              attrString(a, "Creator"),
		EditDate:             attrDate(a, "EditDate"),
		Editor:               attrString(a, "Editor"),
	}
	if f.Geometry != nil && rec.Longitude == 0 && rec.Latitude == 0 {
		rec.Longitude = f.Geometry.X
		rec.Latitude = f.Geometry.Y
	}
	return rec
}

func facilityToAttrs(rec types.FacilityRecord) feature {
	a := map[string]interface{}{
		"OBJECTID":               rec.ObjectID,
		"UniqueID":               rec.UniqueID,
		"Facility_Name":          rec.FacilityName,
		"Address":                rec.Address,
		"City":                   rec.City,
		"ZIP_Code":               rec.ZIPCode,
		"Facility_Type":          rec.FacilityType,
		"LHD":                    rec.LHD,
		"Resolved_Y_N":           rec.Resolved,
		"Longitude":              rec.Longitude,
		"Latitude":               rec.Latitude,
		"Positive_Patients":      int(rec.PositivePatients),
		"Deceased_Patients":      int(rec.DeceasedPatients),
		"Positive_HCWs":          int(rec.PositiveHCWs),
		"Positive_Patients_Desc": string(rec.PositivePatientsDesc),
		"Dashboard_Display":      rec.DashboardDisplay,
		"Dashboard_Display_Cat":  rec.DashboardDisplayCat,
		"Creator":                rec.Creator,
		"Editor":                 rec.Editor,
	}
	putDate(a, "Date_Resolved", rec.DateResolved)
	putDate(a, "Notification_Date", rec.NotificationDate)
	putDate(a, "LastPos_Resident", rec.LastPosResident)
	putDate(a, "CreationDate", rec.CreationDate)
	putDate(a, "EditDate", rec.EditDate)
	return feature{Attributes: a}
}

package models

// Reliability thresholds for rent predictions. A commune indicator is
// trustworthy only when the regression fit and the local sample size both
// clear these policy constants.
const (
	MinReliableR2  = 0.5
	MinReliableObs = 30
)

// RentIndicator is one commune-year row of the Carte des loyers dataset
// (one commune × property type row for split vintages). Numeric fields are
// nil when the source cell is empty.
type RentIndicator struct {
	ZoneID         string   `json:"id_zone"`
	INSEECode      string   `json:"code_insee"`
	CommuneName    string   `json:"commune"`
	EPCI           string   `json:"epci"`
	DepartmentCode string   `json:"departement"`
	RegionCode     string   `json:"region"`
	PredictedRent  *float64 `json:"loyer_moyen_m2"`
	RentLowerBound *float64 `json:"loyer_bas_m2"`
	RentUpperBound *float64 `json:"loyer_haut_m2"`
	PredictionType string   `json:"type_prediction"`
	CommuneObs     *int     `json:"nb_observations_commune"`
	ZoneObs        *int     `json:"nb_observations_maille"`
	AdjustedR2     *float64 `json:"r2_ajuste"`
	PropertyType   string   `json:"type_bien"`
}

// IsReliable reports whether the prediction is trustworthy: adjusted R²
// and commune observation count must both be present and clear the policy
// thresholds. Recomputed from the stored fields on every call.
func (r *RentIndicator) IsReliable() bool {
	if r.AdjustedR2 == nil || r.CommuneObs == nil {
		return false
	}
	return *r.AdjustedR2 >= MinReliableR2 && *r.CommuneObs >= MinReliableObs
}

// DepartmentRentStats aggregates rent indicators over the communes of one
// department.
type DepartmentRentStats struct {
	DepartmentCode string  `json:"code_departement"`
	DepartmentName string  `json:"departement"`
	CommuneCount   int     `json:"nb_communes"`
	MeanRent       float64 `json:"loyer_moyen"`
	MedianRent     float64 `json:"loyer_median"`
	MinRent        float64 `json:"loyer_min"`
	MaxRent        float64 `json:"loyer_max"`
	MeanLowerBound float64 `json:"loyer_bas_moyen"`
	MeanUpperBound float64 `json:"loyer_haut_moyen"`
}

package models

// RoomCounts breaks transactions down by main room count. The bucket
// boundaries are fixed business constants.
type RoomCounts struct {
	One      int `json:"pieces_1"`
	Two      int `json:"pieces_2"`
	Three    int `json:"pieces_3"`
	Four     int `json:"pieces_4"`
	FivePlus int `json:"pieces_5_plus"`
}

// PropertyTypeStats holds the statistic set computed over the apartment or
// house subset of a commune.
type PropertyTypeStats struct {
	MeanPriceM2      float64 `json:"prix_moyen_m2"`
	MinPriceM2       float64 `json:"prix_min_m2"`
	MaxPriceM2       float64 `json:"prix_max_m2"`
	TransactionCount int     `json:"nombre_transactions"`
	MeanSurface      float64 `json:"surface_moyenne"`
}

// CityStats holds the descriptive sale price statistics for one commune.
// Apartments and Houses are present only when the matching subset is
// non-empty.
type CityStats struct {
	MeanPriceM2      float64            `json:"prix_moyen_m2"`
	MedianPriceM2    float64            `json:"prix_median_m2"`
	MinPriceM2       float64            `json:"prix_min_m2"`
	MaxPriceM2       float64            `json:"prix_max_m2"`
	TransactionCount int                `json:"nombre_transactions"`
	MeanSurface      float64            `json:"surface_moyenne"`
	Rooms            RoomCounts         `json:"repartition_pieces"`
	Apartments       *PropertyTypeStats `json:"appartements,omitempty"`
	Houses           *PropertyTypeStats `json:"maisons,omitempty"`
}

// CityRow is one line of the all-cities price table.
type CityRow struct {
	Commune        string `json:"ville"`
	DepartmentCode string `json:"code_departement"`
	CityStats
}

// CombinedRow is one line of the price + rent + yield join. Pointers are
// nil on whichever side has no data; the yield fields are nil whenever
// either side is missing or the mean sale price is zero.
type CombinedRow struct {
	Commune          string   `json:"commune"`
	INSEECode        string   `json:"code_insee"`
	DepartmentCode   string   `json:"departement"`
	PropertyType     string   `json:"type_bien,omitempty"`
	MeanRentM2       *float64 `json:"loyer_moyen_m2"`
	RentLowM2        *float64 `json:"loyer_bas_m2"`
	RentHighM2       *float64 `json:"loyer_haut_m2"`
	RentObs          *int     `json:"nb_obs_loyers"`
	RentR2           *float64 `json:"r2_loyers"`
	MeanPriceM2      *float64 `json:"prix_moyen_m2"`
	MinPriceM2       *float64 `json:"prix_min_m2"`
	MaxPriceM2       *float64 `json:"prix_max_m2"`
	TransactionCount *int     `json:"nb_transactions"`
	GrossYieldPct    *float64 `json:"rendement_brut_pct"`
	LowYieldPct      *float64 `json:"rendement_bas_pct"`
	HighYieldPct     *float64 `json:"rendement_haut_pct"`
}

// YieldReport details the gross rental yield computation for one commune.
type YieldReport struct {
	Commune         string   `json:"commune"`
	MonthlyRentM2   float64  `json:"loyer_mensuel_m2"`
	AnnualRentM2    float64  `json:"loyer_annuel_m2"`
	PurchasePriceM2 *float64 `json:"prix_achat_m2"`
	GrossYieldPct   *float64 `json:"rendement_brut_pct"`
	LowYieldPct     *float64 `json:"rendement_bas_pct"`
	HighYieldPct    *float64 `json:"rendement_haut_pct"`
	Reliable        bool     `json:"fiable"`
}

// CombinedCityStats pairs the two per-commune views; either side may be
// nil when that dataset has no row for the commune.
type CombinedCityStats struct {
	Commune   string         `json:"commune"`
	INSEECode string         `json:"code_insee"`
	Rents     *RentIndicator `json:"loyers"`
	Prices    *CityStats     `json:"prix_vente"`
}

// DepartmentAverages aggregates combined rows with both sides present.
type DepartmentAverages struct {
	DepartmentCode string  `json:"code_departement"`
	DepartmentName string  `json:"departement"`
	CommuneCount   int     `json:"nb_communes"`
	MeanPriceM2    float64 `json:"prix_moyen_m2"`
	MeanRentM2     float64 `json:"loyer_moyen_m2"`
	MeanYieldPct   float64 `json:"rendement_moyen_pct"`
}

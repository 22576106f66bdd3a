package models

import "time"

// RawTransaction is one DVF row as read from a raw department CSV.
// Numeric fields are nil when the source cell is empty or unparsable.
type RawTransaction struct {
	MutationDate   string
	MutationType   string
	Value          *float64
	CommuneCode    string
	CommuneName    string
	DepartmentCode string
	PropertyType   string
	Surface        *float64
	RoomCount      *int
}

// Transaction is one cleaned sale, holding exactly the analysis column
// set. Date is the zero time when the source date could not be parsed.
type Transaction struct {
	Date           time.Time `json:"date_mutation"`
	MutationType   string    `json:"nature_mutation"`
	Value          float64   `json:"valeur_fonciere"`
	CommuneCode    string    `json:"code_commune"`
	CommuneName    string    `json:"nom_commune"`
	DepartmentCode string    `json:"code_departement"`
	PropertyType   string    `json:"type_local"`
	Surface        float64   `json:"surface_reelle_bati"`
	RoomCount      int       `json:"nombre_pieces_principales"`
	PriceM2        float64   `json:"prix_m2"`
}

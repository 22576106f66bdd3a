package config

// Department represents an Île-de-France department
type Department struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// IDFDepartments is the list of departments covered by the analysis
var IDFDepartments = []Department{
	{Code: "75", Name: "Paris"},
	{Code: "77", Name: "Seine-et-Marne"},
	{Code: "78", Name: "Yvelines"},
	{Code: "91", Name: "Essonne"},
	{Code: "92", Name: "Hauts-de-Seine"},
	{Code: "93", Name: "Seine-Saint-Denis"},
	{Code: "94", Name: "Val-de-Marne"},
	{Code: "95", Name: "Val-d'Oise"},
}

// ValidMutationTypes lists the mutation natures retained by the cleaner.
// Only final sales are kept; mixed sales (e.g. "Vente en l'état futur
// d'achèvement") are excluded.
var ValidMutationTypes = []string{"Vente"}

// Property type labels as they appear in the DVF dataset
const (
	PropertyTypeApartment = "Appartement"
	PropertyTypeHouse     = "Maison"
)

// Rent file property type tags
const (
	RentTypeApartments = "appartements"
	RentTypeHouses     = "maisons"
	RentTypeAll        = "tous"
)

// DepartmentCodes returns the list of covered department codes
func DepartmentCodes() []string {
	codes := make([]string, len(IDFDepartments))
	for i, dept := range IDFDepartments {
		codes[i] = dept.Code
	}
	return codes
}

// DepartmentByCode returns a department by its code
func DepartmentByCode(code string) *Department {
	for _, dept := range IDFDepartments {
		if dept.Code == code {
			return &dept
		}
	}
	return nil
}

// IsIDFDepartment reports whether a department code is part of the region
func IsIDFDepartment(code string) bool {
	return DepartmentByCode(code) != nil
}

// IsValidMutationType reports whether a mutation nature is retained
func IsValidMutationType(nature string) bool {
	for _, t := range ValidMutationTypes {
		if t == nature {
			return true
		}
	}
	return false
}

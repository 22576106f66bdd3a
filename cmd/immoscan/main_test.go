package main

import (
	"testing"

	"immoscan/internal/models"
)

func TestPrintTopCitiesClampsCount(t *testing.T) {
	rows := []models.CityRow{
		{Commune: "Paris", DepartmentCode: "75", CityStats: models.CityStats{MeanPriceM2: 10000, TransactionCount: 3}},
	}

	// Out-of-range counts must not panic.
	printTopCities(rows, -1, 2023)
	printTopCities(nil, 5, 2023)
	printTopCities(rows, 5, 2023)
}

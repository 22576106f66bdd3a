package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immoscan/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Paths.DataDir = t.TempDir()
	return cfg
}

const dvfHeader = "id_mutation,date_mutation,nature_mutation,valeur_fonciere,code_commune,nom_commune,type_local,surface_reelle_bati,nombre_pieces_principales\n"

func writeDVFFile(t *testing.T, cfg *config.Config, year int, dept, body string) {
	t.Helper()
	dir := cfg.RawDataDir()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, fmt.Sprintf("dvf_%d_%s.csv", year, dept))
	require.NoError(t, os.WriteFile(path, []byte(dvfHeader+body), 0644))
}

func TestLoadRawTransactions(t *testing.T) {
	cfg := testConfig(t)
	writeDVFFile(t, cfg, 2023, "75",
		"1,2023-03-15,Vente,500000,75056,Paris,Appartement,50,2\n"+
			"2,2023-04-01,Vente,,75056,Paris,Appartement,30,1\n")
	writeDVFFile(t, cfg, 2023, "92",
		"3,2023-05-10,Vente,300000,92012,Boulogne-Billancourt,Maison,80,4.0\n")

	rows, err := LoadRawTransactions(cfg, testLogger(), 2023)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "75", rows[0].DepartmentCode)
	assert.Equal(t, "Paris", rows[0].CommuneName)
	require.NotNil(t, rows[0].Value)
	assert.Equal(t, 500000.0, *rows[0].Value)

	// Empty numeric cells become nil, never a row error.
	assert.Nil(t, rows[1].Value)

	// Department tag comes from the file, room count "4.0" parses as 4.
	assert.Equal(t, "92", rows[2].DepartmentCode)
	require.NotNil(t, rows[2].RoomCount)
	assert.Equal(t, 4, *rows[2].RoomCount)
}

func TestLoadRawTransactionsSkipsMissingDepartments(t *testing.T) {
	cfg := testConfig(t)
	writeDVFFile(t, cfg, 2023, "77", "1,2023-01-01,Vente,200000,77001,Meaux,Maison,100,5\n")

	rows, err := LoadRawTransactions(cfg, testLogger(), 2023)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoadRawTransactionsNoFiles(t *testing.T) {
	cfg := testConfig(t)

	_, err := LoadRawTransactions(cfg, testLogger(), 2023)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRawData))
}

func TestLoadRawTransactionsMissingRequiredColumn(t *testing.T) {
	cfg := testConfig(t)
	dir := cfg.RawDataDir()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "dvf_2023_75.csv")
	require.NoError(t, os.WriteFile(path, []byte("id_mutation,date_mutation\n1,2023-01-01\n"), 0644))

	_, err := LoadRawTransactions(cfg, testLogger(), 2023)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column")
}

func TestParseNumericCells(t *testing.T) {
	assert.Nil(t, parseFloat(""))
	assert.Nil(t, parseFloat("abc"))
	require.NotNil(t, parseFloat("123.5"))
	assert.Equal(t, 123.5, *parseFloat("123.5"))

	assert.Nil(t, parseInt(""))
	assert.Nil(t, parseInt("garbage"))
	assert.Equal(t, 3, *parseInt("3"))
	assert.Equal(t, 3, *parseInt("3.0"))
}

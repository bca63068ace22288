package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
)

func tbl(id uint, number, capacity int) models.Table {
	return models.Table{ID: id, TableNumber: number, Capacity: capacity, Status: models.TableAvailable}
}

func capacities(combo []models.Table) []int {
	caps := make([]int, len(combo))
	for i, t := range combo {
		caps[i] = t.Capacity
	}
	return caps
}

func TestFindTableCombinationsSingleTableFastPath(t *testing.T) {
	// Meja kapasitas 6 untuk rombongan 5 masuk band [5, 6]: jawaban tunggal,
	// kombinasi multi-meja tidak dienumerasi lagi
	available := []models.Table{tbl(1, 1, 2), tbl(2, 2, 4), tbl(3, 3, 6)}

	combos := services.FindTableCombinations(available, 5, services.DefaultFinderConfig())

	assert.Len(t, combos, 1)
	assert.Equal(t, []int{6}, capacities(combos[0]))
}

func TestFindTableCombinationsFastPathSkipsOversizedTable(t *testing.T) {
	// Rombongan 3: band atas 3.6, meja 4 terlalu besar untuk fast path tapi
	// tetap jadi kandidat kombinasi biasa (4 <= 3*1.5)
	available := []models.Table{tbl(1, 1, 4)}

	combos := services.FindTableCombinations(available, 3, services.DefaultFinderConfig())

	assert.Len(t, combos, 1)
	assert.Equal(t, []int{4}, capacities(combos[0]))
}

func TestFindTableCombinationsPrefersFewerTablesThenDeviation(t *testing.T) {
	// Rombongan 6 dengan meja 2, 2, 4: [2,4] menang atas [2,2,4] (lebih
	// sedikit meja), dan kombinasi pas (deviasi 0) mendahului yang longgar
	available := []models.Table{tbl(1, 1, 2), tbl(2, 2, 2), tbl(3, 3, 4)}

	combos := services.FindTableCombinations(available, 6, services.DefaultFinderConfig())

	assert.NotEmpty(t, combos)
	assert.Equal(t, []int{2, 4}, capacities(combos[0]))
	for i := 1; i < len(combos); i++ {
		assert.GreaterOrEqual(t, len(combos[i]), len(combos[i-1]))
	}
	for _, combo := range combos {
		total := 0
		for _, c := range capacities(combo) {
			total += c
		}
		assert.GreaterOrEqual(t, total, 6)
		assert.LessOrEqual(t, float64(total), 6*services.DefaultWasteTolerance)
	}
}

func TestFindTableCombinationsWasteToleranceRejectsOversized(t *testing.T) {
	// Meja 8 untuk rombongan 2 melewati 2*1.5=3: tidak ada hasil walau muat
	available := []models.Table{tbl(1, 1, 8)}

	combos := services.FindTableCombinations(available, 2, services.DefaultFinderConfig())

	assert.Empty(t, combos)
}

func TestFindTableCombinationsMaxTablesLimit(t *testing.T) {
	// Empat meja kapasitas 2 bisa menampung 7, tapi batas 3 meja membuat
	// maksimum 6 kursi: tidak ada jawaban
	available := []models.Table{tbl(1, 1, 2), tbl(2, 2, 2), tbl(3, 3, 2), tbl(4, 4, 2)}

	combos := services.FindTableCombinations(available, 7, services.DefaultFinderConfig())
	assert.Empty(t, combos)

	// Batas dinaikkan jadi 4 meja: 2+2+2+2=8 <= 7*1.5, jawaban muncul
	cfg := services.DefaultFinderConfig()
	cfg.MaxTables = 4
	combos = services.FindTableCombinations(available, 7, cfg)
	assert.Len(t, combos, 1)
	assert.Equal(t, []int{2, 2, 2, 2}, capacities(combos[0]))
}

func TestFindTableCombinationsNoSupersetOfAcceptedCombo(t *testing.T) {
	// Begitu 4+4 >= 8 diterima cabangnya berhenti: [4,4,4] tidak pernah
	// muncul walau masih dalam toleransi (12 <= 8*1.5)
	available := []models.Table{tbl(1, 1, 4), tbl(2, 2, 4), tbl(3, 3, 4)}

	combos := services.FindTableCombinations(available, 8, services.DefaultFinderConfig())

	assert.NotEmpty(t, combos)
	for _, combo := range combos {
		assert.Len(t, combo, 2)
	}
}

func TestFindTableCombinationsEmptyInputs(t *testing.T) {
	assert.Empty(t, services.FindTableCombinations(nil, 4, services.DefaultFinderConfig()))
	assert.Empty(t, services.FindTableCombinations([]models.Table{tbl(1, 1, 4)}, 0, services.DefaultFinderConfig()))
}

func TestFindTableCombinationsDoesNotMutateInput(t *testing.T) {
	available := []models.Table{tbl(1, 1, 6), tbl(2, 2, 2), tbl(3, 3, 4)}

	services.FindTableCombinations(available, 4, services.DefaultFinderConfig())

	assert.Equal(t, 6, available[0].Capacity)
	assert.Equal(t, 2, available[1].Capacity)
	assert.Equal(t, 4, available[2].Capacity)
}

package services

import (
	"sort"

	"github.com/yeremiapane/restaurant-reservation/models"
)

// Default batas pencarian kombinasi meja. Nilai 1.5 dan 1.2 mengikuti
// kebijakan produk; jangan diubah tanpa persetujuan, tapi bisa dioverride
// lewat FinderConfig.
const (
	DefaultMaxTables       = 3
	DefaultWasteTolerance  = 1.5
	DefaultSingleTableBand = 1.2
)

// FinderConfig mengatur batas pencarian kombinasi meja.
type FinderConfig struct {
	// MaxTables membatasi jumlah meja per kombinasi
	MaxTables int
	// WasteTolerance membatasi rasio kapasitas total terhadap party size
	WasteTolerance float64
	// SingleTableBand adalah batas atas fast path satu meja "nyaris pas"
	SingleTableBand float64
}

func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		MaxTables:       DefaultMaxTables,
		WasteTolerance:  DefaultWasteTolerance,
		SingleTableBand: DefaultSingleTableBand,
	}
}

func (c FinderConfig) withDefaults() FinderConfig {
	if c.MaxTables <= 0 {
		c.MaxTables = DefaultMaxTables
	}
	if c.WasteTolerance <= 0 {
		c.WasteTolerance = DefaultWasteTolerance
	}
	if c.SingleTableBand <= 0 {
		c.SingleTableBand = DefaultSingleTableBand
	}
	return c
}

// FindTableCombinations mencari kombinasi meja untuk partySize dari daftar
// meja yang tersedia. Fungsi murni: tidak menyentuh DB dan tidak memodifikasi
// input.
//
// Enumerasi DFS di atas meja terurut kapasitas menaik, hanya lewat suffix
// dengan indeks strictly increasing (kombinasi = himpunan, bukan permutasi).
// Sebuah cabang diterima begitu total kapasitas >= partySize (superset tidak
// ditelusuri lagi), dan dipangkas bila menambah meja berikutnya melewati
// partySize * WasteTolerance. Kedalaman dibatasi MaxTables.
//
// Fast path: satu meja dengan kapasitas di [partySize, partySize*SingleTableBand]
// langsung dikembalikan sebagai satu-satunya jawaban.
//
// Hasil diurutkan jumlah meja menaik, lalu deviasi absolut kapasitas total
// terhadap partySize menaik. Hasil kosong berarti memang tidak ada
// ketersediaan; itu bukan error dan caller harus melaporkannya apa adanya.
func FindTableCombinations(available []models.Table, partySize int, cfg FinderConfig) [][]models.Table {
	if partySize <= 0 || len(available) == 0 {
		return nil
	}
	cfg = cfg.withDefaults()

	sorted := make([]models.Table, len(available))
	copy(sorted, available)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Capacity != sorted[j].Capacity {
			return sorted[i].Capacity < sorted[j].Capacity
		}
		return sorted[i].TableNumber < sorted[j].TableNumber
	})

	// Fast path: meja tunggal yang nyaris pas
	band := float64(partySize) * cfg.SingleTableBand
	for _, t := range sorted {
		if float64(t.Capacity) > band {
			break
		}
		if t.Capacity >= partySize {
			return [][]models.Table{{t}}
		}
	}

	maxCapacity := float64(partySize) * cfg.WasteTolerance
	var results [][]models.Table

	var search func(start int, current []models.Table, sum int)
	search = func(start int, current []models.Table, sum int) {
		for i := start; i < len(sorted); i++ {
			t := sorted[i]
			if float64(sum+t.Capacity) > maxCapacity {
				// Terurut menaik: meja selanjutnya pasti juga melewati batas
				break
			}
			next := make([]models.Table, len(current), len(current)+1)
			copy(next, current)
			next = append(next, t)
			if sum+t.Capacity >= partySize {
				results = append(results, next)
				continue
			}
			if len(next) < cfg.MaxTables {
				search(i+1, next, sum+t.Capacity)
			}
		}
	}
	search(0, nil, 0)

	sort.SliceStable(results, func(i, j int) bool {
		if len(results[i]) != len(results[j]) {
			return len(results[i]) < len(results[j])
		}
		return deviation(results[i], partySize) < deviation(results[j], partySize)
	})
	return results
}

func totalCapacity(tables []models.Table) int {
	sum := 0
	for _, t := range tables {
		sum += t.Capacity
	}
	return sum
}

func deviation(tables []models.Table, partySize int) int {
	d := totalCapacity(tables) - partySize
	if d < 0 {
		d = -d
	}
	return d
}

package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/models"
)

// blockingStatuses: hanya reservasi confirmed/checked_in yang memblokir meja.
// Reservasi pending adalah advisory hold dan sengaja tidak ikut diperiksa.
var blockingStatuses = []models.ReservationStatus{
	models.ReservationConfirmed,
	models.ReservationCheckedIn,
}

// FindConflicts memeriksa window [start, end) terhadap seluruh reservasi
// blocking pada meja-meja yang diminta. Dua window [a,b) dan [c,d) dianggap
// bentrok jika a < d && c < b; endpoint yang bersentuhan tidak bentrok,
// sehingga booking back-to-back tetap sah.
//
// Hasilnya dikelompokkan per meja lengkap dengan daftar reservasi yang
// bentrok, supaya caller bisa menyusun pesan error yang detail. Murni baca.
// excludeReservationID mengeluarkan satu reservasi dari pemeriksaan (dipakai
// saat re-check di confirm); isi 0 jika tidak ada.
func FindConflicts(tx *gorm.DB, tableIDs []uint, start, end time.Time, excludeReservationID uint) ([]TableConflict, error) {
	if len(tableIDs) == 0 {
		return nil, nil
	}

	var reservations []models.Reservation
	q := tx.
		Preload("Tables").
		Joins("JOIN reservation_tables rt ON rt.reservation_id = reservations.id").
		Where("rt.table_id IN ?", tableIDs).
		Where("reservations.status IN ?", blockingStatuses).
		Where("reservations.start_time < ? AND reservations.end_time > ?", end, start).
		Distinct("reservations.*")
	if excludeReservationID != 0 {
		q = q.Where("reservations.id != ?", excludeReservationID)
	}
	if err := q.Find(&reservations).Error; err != nil {
		return nil, err
	}
	if len(reservations) == 0 {
		return nil, nil
	}

	requested := make(map[uint]bool, len(tableIDs))
	for _, id := range tableIDs {
		requested[id] = true
	}

	byTable := make(map[uint][]models.Reservation)
	for _, r := range reservations {
		for _, t := range r.Tables {
			if requested[t.ID] {
				byTable[t.ID] = append(byTable[t.ID], r)
			}
		}
	}

	// Urutan hasil mengikuti urutan tableIDs yang diminta
	var tables []models.Table
	if err := tx.Where("id IN ?", tableIDs).Find(&tables).Error; err != nil {
		return nil, err
	}
	tableByID := make(map[uint]models.Table, len(tables))
	for _, t := range tables {
		tableByID[t.ID] = t
	}

	var conflicts []TableConflict
	for _, id := range tableIDs {
		if list, ok := byTable[id]; ok {
			conflicts = append(conflicts, TableConflict{
				Table:        tableByID[id],
				Reservations: list,
			})
		}
	}
	return conflicts, nil
}

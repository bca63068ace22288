package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

// TableService menangani status meja sebagai materialized view dari klaim
// aktif (reservasi + order). Status tersimpan hanyalah cache untuk dibaca;
// sumber kebenarannya adalah union klaim, dan service ini yang menjaga
// keduanya tetap konsisten.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// hasOtherActiveClaims -> cek apakah masih ada entity aktif lain yang
// mengklaim meja: order non-terminal, atau reservasi confirmed/checked_in.
// excludeReservationID / excludeOrderID mengecualikan entity yang sedang
// bertransisi (isi 0 jika tidak ada). Pemeriksaan ini wajib sebelum
// melepaskan meja; melepas meja yang masih dipegang klaim lain adalah kelas
// bug paling merusak di subsistem ini.
func hasOtherActiveClaims(tx *gorm.DB, tableID, excludeReservationID, excludeOrderID uint) (bool, error) {
	var orderCount int64
	q := tx.Model(&models.Order{}).
		Where("table_id = ?", tableID).
		Where("status NOT IN ?", []models.OrderStatus{models.OrderCancelled, models.OrderPaid})
	if excludeOrderID != 0 {
		q = q.Where("id != ?", excludeOrderID)
	}
	if err := q.Count(&orderCount).Error; err != nil {
		return false, err
	}
	if orderCount > 0 {
		return true, nil
	}

	var reservationCount int64
	q = tx.Model(&models.Reservation{}).
		Joins("JOIN reservation_tables rt ON rt.reservation_id = reservations.id").
		Where("rt.table_id = ?", tableID).
		Where("reservations.status IN ?", blockingStatuses)
	if excludeReservationID != 0 {
		q = q.Where("reservations.id != ?", excludeReservationID)
	}
	if err := q.Count(&reservationCount).Error; err != nil {
		return false, err
	}
	return reservationCount > 0, nil
}

// deriveTableStatus menurunkan status meja dari klaim aktif saat ini:
// order non-terminal atau reservasi checked_in -> occupied, reservasi
// confirmed yang belum berakhir -> reserved. Status cleaning dan
// under_maintenance bersifat operasional dan dipertahankan.
func deriveTableStatus(tx *gorm.DB, table *models.Table) (models.TableStatus, error) {
	var orderCount int64
	if err := tx.Model(&models.Order{}).
		Where("table_id = ?", table.ID).
		Where("status NOT IN ?", []models.OrderStatus{models.OrderCancelled, models.OrderPaid}).
		Count(&orderCount).Error; err != nil {
		return "", err
	}
	if orderCount > 0 {
		return models.TableOccupied, nil
	}

	var checkedIn int64
	if err := tx.Model(&models.Reservation{}).
		Joins("JOIN reservation_tables rt ON rt.reservation_id = reservations.id").
		Where("rt.table_id = ?", table.ID).
		Where("reservations.status = ?", models.ReservationCheckedIn).
		Count(&checkedIn).Error; err != nil {
		return "", err
	}
	if checkedIn > 0 {
		return models.TableOccupied, nil
	}

	var confirmed int64
	if err := tx.Model(&models.Reservation{}).
		Joins("JOIN reservation_tables rt ON rt.reservation_id = reservations.id").
		Where("rt.table_id = ?", table.ID).
		Where("reservations.status = ?", models.ReservationConfirmed).
		Where("reservations.end_time > ?", time.Now()).
		Count(&confirmed).Error; err != nil {
		return "", err
	}
	if confirmed > 0 {
		return models.TableReserved, nil
	}

	if table.Status == models.TableCleaning || table.Status == models.TableMaintenance {
		return table.Status, nil
	}
	return models.TableAvailable, nil
}

// SyncStatus menghitung ulang status meja dari klaim aktif dan memperbaiki
// drift bila cache tersimpan tidak cocok
func (s *TableService) SyncStatus(tableID uint) (*models.Table, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table", ID: tableID}
		}
		return nil, err
	}

	derived, err := deriveTableStatus(tx, &table)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if derived != table.Status {
		utils.ErrorLogger.Printf("Table %d status drift: stored=%s derived=%s, repairing", table.ID, table.Status, derived)
		table.Status = derived
		if err := tx.Model(&table).Update("status", derived).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// FinishCleaning menutup log pembersihan dan melepaskan mejanya dalam satu
// transaksi: log dan status meja tidak pernah berubah separuh. Status meja
// setelah cleaning diturunkan ulang dari klaim aktif (ada reservasi confirmed
// yang menunggu -> reserved, tanpa klaim -> available).
func (s *TableService) FinishCleaning(logID uint) (*models.CleaningLog, *models.Table, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}

	var logEntry models.CleaningLog
	if err := tx.Preload("Table").First(&logEntry, logID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "cleaning log", ID: logID}
		}
		return nil, nil, err
	}
	if logEntry.FinishedAt != nil {
		tx.Rollback()
		return nil, nil, &InvalidStateError{Entity: "cleaning log", State: "finished", Operation: "finish"}
	}

	now := time.Now()
	if err := tx.Model(&logEntry).Update("finished_at", now).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	logEntry.FinishedAt = &now

	table := logEntry.Table
	if table.Status == models.TableCleaning {
		// Cleaning selesai; status berikutnya turun dari klaim aktif
		table.Status = models.TableAvailable
		derived, err := deriveTableStatus(tx, &table)
		if err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		table.Status = derived
		if err := tx.Model(&models.Table{}).Where("id = ?", table.ID).
			Update("status", derived).Error; err != nil {
			tx.Rollback()
			return nil, nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	logEntry.Table = table
	return &logEntry, &table, nil
}

// UpdateStatus mengubah status meja secara manual (operasional). reserved dan
// occupied tidak bisa di-set manual karena keduanya diturunkan dari klaim;
// kembali ke available hanya boleh bila tidak ada klaim aktif yang memegang
// meja tersebut.
func (s *TableService) UpdateStatus(tableID uint, status models.TableStatus) (*models.Table, error) {
	if !models.ValidTableStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: "unknown table status"}
	}
	if status == models.TableReserved || status == models.TableOccupied {
		return nil, &ValidationError{Field: "status", Reason: "reserved/occupied are derived from reservations and orders"}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table", ID: tableID}
		}
		return nil, err
	}

	if status == models.TableAvailable {
		held, err := hasOtherActiveClaims(tx, tableID, 0, 0)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if held {
			tx.Rollback()
			return nil, &InvalidStateError{Entity: "table", State: string(table.Status), Operation: "set available"}
		}
	}

	table.Status = status
	if err := tx.Model(&table).Update("status", status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// DeleteTable menghapus meja yang tidak lagi dipegang klaim aktif apa pun
func (s *TableService) DeleteTable(tableID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "table", ID: tableID}
		}
		return err
	}

	held, err := hasOtherActiveClaims(tx, tableID, 0, 0)
	if err != nil {
		tx.Rollback()
		return err
	}
	if held {
		tx.Rollback()
		return &InvalidStateError{Entity: "table", State: string(table.Status), Operation: "delete"}
	}

	if err := tx.Exec("DELETE FROM reservation_tables WHERE table_id = ?", tableID).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&table).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// UtilizationStats menghitung jumlah meja per status untuk dashboard
func (s *TableService) UtilizationStats() (map[string]int64, error) {
	stats := map[string]int64{}
	var total int64

	for _, status := range []models.TableStatus{
		models.TableAvailable,
		models.TableReserved,
		models.TableOccupied,
		models.TableCleaning,
		models.TableMaintenance,
	} {
		var count int64
		if err := s.db.Model(&models.Table{}).Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, err
		}
		stats[string(status)] = count
		total += count
	}
	stats["total"] = total
	return stats, nil
}

// Schedule mengembalikan reservasi blocking satu meja untuk satu hari
func (s *TableService) Schedule(tableID uint, date time.Time) ([]models.Reservation, error) {
	var table models.Table
	if err := s.db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table", ID: tableID}
		}
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var reservations []models.Reservation
	err := s.db.
		Preload("Customer").
		Joins("JOIN reservation_tables rt ON rt.reservation_id = reservations.id").
		Where("rt.table_id = ?", tableID).
		Where("reservations.status IN ?", blockingStatuses).
		Where("reservations.start_time >= ? AND reservations.start_time < ?", dayStart, dayEnd).
		Order("reservations.start_time asc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// MoveTable memindahkan meja ke sel grid lain; sel yang sudah terisi ditolak
func (s *TableService) MoveTable(tableID uint, gridX, gridY int) (*models.Table, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table", ID: tableID}
		}
		return nil, err
	}

	var occupied int64
	if err := tx.Model(&models.Table{}).
		Where("grid_x = ? AND grid_y = ? AND id != ?", gridX, gridY, tableID).
		Count(&occupied).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if occupied > 0 {
		tx.Rollback()
		return nil, &ValidationError{Field: "grid position", Reason: "cell already occupied by another table"}
	}

	table.GridX = gridX
	table.GridY = gridY
	if err := tx.Model(&table).Updates(map[string]interface{}{"grid_x": gridX, "grid_y": gridY}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &table, nil
}

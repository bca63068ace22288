package services

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

// ErrNoAvailability -> tidak ada kombinasi meja yang muat untuk window yang
// diminta. Ini hasil "tidak ada ketersediaan" yang sah, bukan kegagalan
// internal; caller melaporkannya ke user, tidak pernah melonggarkan batas
// secara diam-diam.
var ErrNoAvailability = errors.New("no available table combination for the requested time and party size")

// Window kebijakan check-in di sekitar waktu mulai reservasi
const (
	DefaultEarlyCheckIn = 15 * time.Minute
	DefaultLateCheckIn  = 30 * time.Minute
)

// ReservationService adalah facade siklus hidup reservasi. Setiap operasi
// exported berjalan sebagai satu transaksi: validasi -> resolve meja ->
// transisi + cek konflik -> persist, dengan rollback penuh saat gagal di
// tengah jalan. Operasi yang melakukan check-then-act (confirm, check-in)
// memakai isolasi serializable supaya dua confirm paralel tidak sama-sama
// lolos dari snapshot basi.
type ReservationService struct {
	db           *gorm.DB
	finder       FinderConfig
	earlyCheckIn time.Duration
	lateCheckIn  time.Duration
}

func NewReservationService(db *gorm.DB) *ReservationService {
	return NewReservationServiceWithConfig(db, DefaultFinderConfig())
}

func NewReservationServiceWithConfig(db *gorm.DB, finder FinderConfig) *ReservationService {
	return &ReservationService{
		db:           db,
		finder:       finder.withDefaults(),
		earlyCheckIn: DefaultEarlyCheckIn,
		lateCheckIn:  DefaultLateCheckIn,
	}
}

type CreateReservationInput struct {
	CustomerID      uint                       `json:"customer_id"`
	StartTime       time.Time                  `json:"start_time"`
	PartySize       int                        `json:"party_size"`
	Duration        int                        `json:"duration"` // menit, default 120
	TableIDs        []uint                     `json:"table_ids"`
	Notes           string                     `json:"notes"`
	SpecialRequests string                     `json:"special_requests"`
	Priority        models.ReservationPriority `json:"priority"`
}

// CreateReservation membuat reservasi baru berstatus pending. Meja bisa
// ditentukan eksplisit lewat TableIDs atau di-resolve otomatis lewat solver
// kombinasi. Window-nya dicek konflik di sini, tapi pending belum mengklaim
// meja; klaim baru terjadi saat confirm (dan konflik dicek ulang di sana).
func (s *ReservationService) CreateReservation(in CreateReservationInput) (*models.Reservation, error) {
	if in.Duration == 0 {
		in.Duration = 120
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	if in.PartySize < models.MinPartySize || in.PartySize > models.MaxPartySize {
		return nil, &ValidationError{Field: "party_size", Reason: "must be between 1 and 50"}
	}
	if in.Duration < models.MinDurationMinutes || in.Duration > models.MaxDurationMinutes {
		return nil, &ValidationError{Field: "duration", Reason: "must be between 30 and 480 minutes"}
	}
	if in.StartTime.Before(time.Now()) {
		return nil, &ValidationError{Field: "start_time", Reason: "cannot be in the past"}
	}
	end := in.StartTime.Add(time.Duration(in.Duration) * time.Minute)

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var customer models.Customer
	if err := tx.First(&customer, in.CustomerID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "customer", ID: in.CustomerID}
		}
		return nil, err
	}

	var tables []models.Table
	if len(in.TableIDs) > 0 {
		if err := tx.Where("id IN ?", in.TableIDs).Find(&tables).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if len(tables) != len(in.TableIDs) {
			tx.Rollback()
			return nil, &ValidationError{Field: "table_ids", Reason: "one or more tables not found"}
		}
		for _, t := range tables {
			if t.Status == models.TableMaintenance {
				tx.Rollback()
				return nil, &InvalidStateError{Entity: "table", State: string(t.Status), Operation: "assign to reservation"}
			}
		}
		if total := totalCapacity(tables); total < in.PartySize {
			tx.Rollback()
			return nil, &CapacityError{Required: in.PartySize, Provided: total}
		}
		conflicts, err := FindConflicts(tx, in.TableIDs, in.StartTime, end, 0)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if len(conflicts) > 0 {
			tx.Rollback()
			return nil, &ConflictError{Conflicts: conflicts}
		}
	} else {
		free, err := s.freeTablesInWindow(tx, in.StartTime, end)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		combos := FindTableCombinations(free, in.PartySize, s.finder)
		if len(combos) == 0 {
			tx.Rollback()
			return nil, ErrNoAvailability
		}
		tables = combos[0]
	}

	reservation := models.Reservation{
		CustomerID:      in.CustomerID,
		StartTime:       in.StartTime,
		EndTime:         end,
		Duration:        in.Duration,
		PartySize:       in.PartySize,
		Status:          models.ReservationPending,
		Priority:        in.Priority,
		Notes:           in.Notes,
		SpecialRequests: in.SpecialRequests,
	}
	reservation.Tables = tableRefs(tables)

	if err := tx.Create(&reservation).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reservation %d created (pending) for customer %d, party of %d", reservation.ID, in.CustomerID, in.PartySize)
	return s.GetReservation(reservation.ID)
}

// UpdateReservation mengganti detail reservasi pending. Semua field diganti
// utuh mengikuti input, termasuk set meja dan notes yang dikosongkan; tidak
// ada patch sebagian. Kapasitas dan konflik divalidasi ulang terhadap set
// baru.
func (s *ReservationService) UpdateReservation(id uint, in CreateReservationInput) (*models.Reservation, error) {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.PartySize < models.MinPartySize || in.PartySize > models.MaxPartySize {
		return nil, &ValidationError{Field: "party_size", Reason: "must be between 1 and 50"}
	}
	if in.Duration < models.MinDurationMinutes || in.Duration > models.MaxDurationMinutes {
		return nil, &ValidationError{Field: "duration", Reason: "must be between 30 and 480 minutes"}
	}
	if in.StartTime.Before(time.Now()) {
		return nil, &ValidationError{Field: "start_time", Reason: "cannot be in the past"}
	}
	if len(in.TableIDs) == 0 {
		return nil, &ValidationError{Field: "table_ids", Reason: "must not be empty"}
	}
	end := in.StartTime.Add(time.Duration(in.Duration) * time.Minute)

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	reservation, err := loadReservation(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if reservation.Status != models.ReservationPending {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "reservation", State: string(reservation.Status), Operation: "update"}
	}

	var tables []models.Table
	if err := tx.Where("id IN ?", in.TableIDs).Find(&tables).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(tables) != len(in.TableIDs) {
		tx.Rollback()
		return nil, &ValidationError{Field: "table_ids", Reason: "one or more tables not found"}
	}
	if total := totalCapacity(tables); total < in.PartySize {
		tx.Rollback()
		return nil, &CapacityError{Required: in.PartySize, Provided: total}
	}
	conflicts, err := FindConflicts(tx, in.TableIDs, in.StartTime, end, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(conflicts) > 0 {
		tx.Rollback()
		return nil, &ConflictError{Conflicts: conflicts}
	}

	updates := map[string]interface{}{
		"start_time":       in.StartTime,
		"end_time":         end,
		"duration":         in.Duration,
		"party_size":       in.PartySize,
		"notes":            in.Notes,
		"special_requests": in.SpecialRequests,
		"priority":         in.Priority,
	}
	if err := tx.Model(reservation).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(reservation).Association("Tables").Replace(tableRefs(tables)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetReservation(id)
}

// ConfirmReservation mengubah pending -> confirmed dan mengklaim meja.
// Konflik dicek ulang di sini: dua reservasi pending boleh saja dibuat untuk
// window yang sama, dan yang kalah race harus gagal dengan ConflictError,
// bukan ikut double-book.
func (s *ReservationService) ConfirmReservation(id uint) (*models.Reservation, error) {
	tx := s.db.Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		return nil, tx.Error
	}

	reservation, err := loadReservation(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !reservation.CanTransitionTo(models.ReservationConfirmed) {
		tx.Rollback()
		return nil, &InvalidTransitionError{Entity: "reservation", From: string(reservation.Status), To: string(models.ReservationConfirmed)}
	}

	conflicts, err := FindConflicts(tx, tableIDs(reservation.Tables), reservation.StartTime, reservation.EndTime, reservation.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(conflicts) > 0 {
		tx.Rollback()
		return nil, &ConflictError{Conflicts: conflicts}
	}

	if err := tx.Model(reservation).Update("status", models.ReservationConfirmed).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, t := range reservation.Tables {
		if t.Status == models.TableAvailable {
			if err := setTableStatus(tx, t.ID, models.TableReserved); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Reservation %d confirmed, %d table(s) reserved", id, len(reservation.Tables))
	return s.GetReservation(id)
}

// CheckIn mengubah confirmed -> checked_in. Hanya boleh dalam window
// kebijakan di sekitar waktu mulai (default 15 menit sebelum s.d. 30 menit
// sesudah); tamu tidak bisa check-in terlalu awal atau terlalu telat.
func (s *ReservationService) CheckIn(id uint) (*models.Reservation, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	reservation, err := loadReservation(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !reservation.CanTransitionTo(models.ReservationCheckedIn) {
		tx.Rollback()
		return nil, &InvalidTransitionError{Entity: "reservation", From: string(reservation.Status), To: string(models.ReservationCheckedIn)}
	}

	now := time.Now()
	if now.Before(reservation.StartTime.Add(-s.earlyCheckIn)) {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "reservation", State: "not yet within check-in window", Operation: "check in"}
	}
	if now.After(reservation.StartTime.Add(s.lateCheckIn)) {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "reservation", State: "past check-in window", Operation: "check in"}
	}

	if err := tx.Model(reservation).Update("status", models.ReservationCheckedIn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, t := range reservation.Tables {
		if err := setTableStatus(tx, t.ID, models.TableOccupied); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Reservation %d checked in", id)
	return s.GetReservation(id)
}

// CompleteReservation mengubah checked_in -> completed; meja turun ke
// cleaning kecuali masih dipegang klaim aktif lain
func (s *ReservationService) CompleteReservation(id uint) (*models.Reservation, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	reservation, err := loadReservation(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !reservation.CanTransitionTo(models.ReservationCompleted) {
		tx.Rollback()
		return nil, &InvalidTransitionError{Entity: "reservation", From: string(reservation.Status), To: string(models.ReservationCompleted)}
	}

	if err := tx.Model(reservation).Update("status", models.ReservationCompleted).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := releaseTables(tx, reservation, models.TableCleaning); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Reservation %d completed", id)
	return s.GetReservation(id)
}

// CancelReservation membatalkan reservasi pending/confirmed. Meja yang
// ter-reserve karena reservasi ini kembali available hanya bila tidak ada
// klaim aktif lain yang memegangnya. Membatalkan reservasi yang sudah
// terminal gagal dengan InvalidTransitionError, efek samping tidak diulang.
func (s *ReservationService) CancelReservation(id uint) (*models.Reservation, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	reservation, err := loadReservation(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !reservation.CanTransitionTo(models.ReservationCancelled) {
		tx.Rollback()
		return nil, &InvalidTransitionError{Entity: "reservation", From: string(reservation.Status), To: string(models.ReservationCancelled)}
	}

	if err := tx.Model(reservation).Update("status", models.ReservationCancelled).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := releaseTables(tx, reservation, models.TableAvailable); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Reservation %d cancelled", id)
	return s.GetReservation(id)
}

// MarkNoShow menandai reservasi confirmed yang tamunya tidak datang.
// Hanya sah setelah waktu mulai lewat.
func (s *ReservationService) MarkNoShow(id uint) (*models.Reservation, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	reservation, err := loadReservation(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !reservation.CanTransitionTo(models.ReservationNoShow) {
		tx.Rollback()
		return nil, &InvalidTransitionError{Entity: "reservation", From: string(reservation.Status), To: string(models.ReservationNoShow)}
	}
	if reservation.StartTime.After(time.Now()) {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "reservation", State: "start time not reached", Operation: "mark no-show"}
	}

	if err := tx.Model(reservation).Update("status", models.ReservationNoShow).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := releaseTables(tx, reservation, models.TableAvailable); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Reservation %d marked as no-show", id)
	return s.GetReservation(id)
}

// FindAvailableTables mengembalikan kombinasi meja (best-first) yang bebas
// konflik untuk window dan party size yang diminta. Murni baca. Hasil kosong
// berarti tidak ada ketersediaan.
func (s *ReservationService) FindAvailableTables(start time.Time, durationMinutes, partySize, maxTables int) ([][]models.Table, error) {
	if partySize < models.MinPartySize || partySize > models.MaxPartySize {
		return nil, &ValidationError{Field: "party_size", Reason: "must be between 1 and 50"}
	}
	if durationMinutes < models.MinDurationMinutes || durationMinutes > models.MaxDurationMinutes {
		return nil, &ValidationError{Field: "duration", Reason: "must be between 30 and 480 minutes"}
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	free, err := s.freeTablesInWindow(s.db, start, end)
	if err != nil {
		return nil, err
	}

	cfg := s.finder
	if maxTables > 0 {
		cfg.MaxTables = maxTables
	}
	return FindTableCombinations(free, partySize, cfg), nil
}

// GetReservation memuat satu reservasi lengkap dengan customer dan meja
func (s *ReservationService) GetReservation(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.db.Preload("Customer").Preload("Tables").First(&reservation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "reservation", ID: id}
		}
		return nil, err
	}
	return &reservation, nil
}

// ReservationFilter menyaring ListReservations; field kosong diabaikan
type ReservationFilter struct {
	Status     models.ReservationStatus
	CustomerID uint
	TableID    uint
	From       time.Time
	To         time.Time
}

func (s *ReservationService) ListReservations(f ReservationFilter) ([]models.Reservation, error) {
	q := s.db.Preload("Customer").Preload("Tables")

	if f.Status != "" {
		q = q.Where("reservations.status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("reservations.customer_id = ?", f.CustomerID)
	}
	if f.TableID != 0 {
		q = q.Joins("JOIN reservation_tables rt ON rt.reservation_id = reservations.id").
			Where("rt.table_id = ?", f.TableID)
	}
	if !f.From.IsZero() {
		q = q.Where("reservations.start_time >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("reservations.start_time <= ?", f.To)
	}

	var reservations []models.Reservation
	if err := q.Order("reservations.start_time desc").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// UpcomingReservations mengembalikan reservasi blocking beberapa jam ke depan
func (s *ReservationService) UpcomingReservations(hoursAhead int, includeCheckedIn bool) ([]models.Reservation, error) {
	if hoursAhead <= 0 {
		hoursAhead = 24
	}
	now := time.Now()
	end := now.Add(time.Duration(hoursAhead) * time.Hour)

	statuses := []models.ReservationStatus{models.ReservationConfirmed}
	if includeCheckedIn {
		statuses = append(statuses, models.ReservationCheckedIn)
	}

	var reservations []models.Reservation
	err := s.db.Preload("Customer").Preload("Tables").
		Where("start_time BETWEEN ? AND ?", now, end).
		Where("status IN ?", statuses).
		Order("start_time asc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// freeTablesInWindow mengembalikan meja (selain under_maintenance) yang
// tidak punya reservasi blocking pada window tersebut. Meja yang sedang
// occupied sekarang tetap ikut: yang menentukan adalah konflik pada window
// yang diminta, bukan status sesaat.
func (s *ReservationService) freeTablesInWindow(tx *gorm.DB, start, end time.Time) ([]models.Table, error) {
	var candidates []models.Table
	if err := tx.Where("status != ?", models.TableMaintenance).
		Order("capacity asc").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	conflicts, err := FindConflicts(tx, tableIDsOf(candidates), start, end, 0)
	if err != nil {
		return nil, err
	}
	conflicted := make(map[uint]bool, len(conflicts))
	for _, c := range conflicts {
		conflicted[c.Table.ID] = true
	}

	free := make([]models.Table, 0, len(candidates))
	for _, t := range candidates {
		if !conflicted[t.ID] {
			free = append(free, t)
		}
	}
	return free, nil
}

// releaseTables melepaskan meja reservasi ke status target, per meja hanya
// bila tidak ada klaim aktif lain yang memegangnya
func releaseTables(tx *gorm.DB, reservation *models.Reservation, target models.TableStatus) error {
	for _, t := range reservation.Tables {
		held, err := hasOtherActiveClaims(tx, t.ID, reservation.ID, 0)
		if err != nil {
			return err
		}
		if held {
			continue
		}
		if target == models.TableAvailable && t.Status != models.TableReserved {
			// Hanya meja yang ter-reserve karena reservasi ini yang
			// dikembalikan ke available
			continue
		}
		if err := setTableStatus(tx, t.ID, target); err != nil {
			return err
		}
	}
	return nil
}

func loadReservation(tx *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := tx.Preload("Tables").First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "reservation", ID: id}
		}
		return nil, err
	}
	return &reservation, nil
}

func setTableStatus(tx *gorm.DB, tableID uint, status models.TableStatus) error {
	return tx.Model(&models.Table{}).Where("id = ?", tableID).Update("status", status).Error
}

func tableRefs(tables []models.Table) []*models.Table {
	refs := make([]*models.Table, len(tables))
	for i := range tables {
		refs[i] = &tables[i]
	}
	return refs
}

func tableIDs(tables []*models.Table) []uint {
	ids := make([]uint, len(tables))
	for i, t := range tables {
		ids[i] = t.ID
	}
	return ids
}

func tableIDsOf(tables []models.Table) []uint {
	ids := make([]uint, len(tables))
	for i, t := range tables {
		ids[i] = t.ID
	}
	return ids
}

package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCheckedIn ReservationStatus = "checked_in"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

type ReservationPriority string

const (
	PriorityLow    ReservationPriority = "low"
	PriorityMedium ReservationPriority = "medium"
	PriorityHigh   ReservationPriority = "high"
)

// Batas kebijakan reservasi
const (
	MinDurationMinutes = 30
	MaxDurationMinutes = 480
	MinPartySize       = 1
	MaxPartySize       = 50
)

type Reservation struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	CustomerID uint     `gorm:"not null;index" json:"customer_id"`
	Customer   Customer `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer"`
	Tables     []*Table `gorm:"many2many:reservation_tables;" json:"tables"`
	StartTime  time.Time `gorm:"not null;index" json:"start_time"`
	// EndTime = StartTime + Duration, disimpan agar query overlap bisa murni SQL
	EndTime         time.Time           `gorm:"not null;index" json:"end_time"`
	Duration        int                 `gorm:"not null;default:120" json:"duration"` // menit
	PartySize       int                 `gorm:"not null" json:"party_size"`
	Status          ReservationStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority        ReservationPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Notes           string              `gorm:"type:varchar(500)" json:"notes"`
	SpecialRequests string              `gorm:"type:varchar(500)" json:"special_requests"`
	CreatedAt       time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"not null" json:"updated_at"`
}

// reservationTransitions memetakan status asal ke daftar status tujuan yang sah.
// Transisi di luar tabel ini selalu ditolak, tidak pernah dipaksa jadi valid.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCheckedIn, ReservationCancelled, ReservationNoShow},
	ReservationCheckedIn: {ReservationCompleted},
	ReservationCompleted: {},
	ReservationCancelled: {},
	ReservationNoShow:    {},
}

// CanTransitionTo -> cek legalitas transisi status reservasi
func (r *Reservation) CanTransitionTo(target ReservationStatus) bool {
	for _, s := range reservationTransitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal -> status terminal tidak pernah berpindah lagi
func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

// Blocking -> hanya confirmed dan checked_in yang memblokir meja.
// Reservasi pending adalah soft hold dan tidak memblokir booking lain.
func (s ReservationStatus) Blocking() bool {
	return s == ReservationConfirmed || s == ReservationCheckedIn
}

// Overlaps -> overlap interval half-open [start, end); endpoint yang
// bersentuhan tidak dianggap bentrok.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// TotalTableCapacity menjumlahkan kapasitas semua meja yang ditetapkan
func (r *Reservation) TotalTableCapacity() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Capacity
	}
	return total
}

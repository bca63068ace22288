package models

import "time"

// TableStatus adalah status meja. Status ini merupakan cache turunan dari
// union semua klaim aktif (reservasi + order) pada meja tersebut.
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableReserved    TableStatus = "reserved"
	TableOccupied    TableStatus = "occupied"
	TableCleaning    TableStatus = "cleaning"
	TableMaintenance TableStatus = "under_maintenance"
)

type Table struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	TableNumber int         `gorm:"not null;uniqueIndex" json:"table_number"`
	Capacity    int         `gorm:"not null" json:"capacity"`
	Status      TableStatus `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	// Posisi floor plan, hanya relevan untuk UI
	GridX        int            `json:"grid_x"`
	GridY        int            `json:"grid_y"`
	Reservations []*Reservation `gorm:"many2many:reservation_tables;" json:"-"`
	Orders       []Order        `gorm:"foreignKey:TableID" json:"-"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

// ValidTableStatus -> cek apakah nilai termasuk status meja yang dikenal
func ValidTableStatus(s TableStatus) bool {
	switch s {
	case TableAvailable, TableReserved, TableOccupied, TableCleaning, TableMaintenance:
		return true
	}
	return false
}

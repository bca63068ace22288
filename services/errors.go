package services

import (
	"fmt"
	"strings"

	"github.com/yeremiapane/restaurant-reservation/models"
)

// ValidationError -> input dari caller tidak valid (ukuran rombongan,
// durasi di luar batas, waktu lampau, dsb). Selalu bisa diperbaiki caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError -> entity dengan id tersebut tidak ada
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// CapacityError -> total kapasitas meja tidak cukup untuk party size
type CapacityError struct {
	Required int
	Provided int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("assigned tables seat %d, party of %d does not fit", e.Provided, e.Required)
}

// InvalidStateError -> operasi diminta pada entity yang statusnya tidak
// mengizinkan operasi tersebut (mis. buat order di meja occupied)
type InvalidStateError struct {
	Entity    string
	State     string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: %s is %s", e.Operation, e.Entity, e.State)
}

// InvalidTransitionError -> transisi status di luar tabel transisi
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition from %s to %s", e.Entity, e.From, e.To)
}

// TableConflict memuat seluruh reservasi yang bentrok pada satu meja,
// bukan sekadar boolean, supaya caller bisa menyusun pesan error yang detail.
type TableConflict struct {
	Table        models.Table         `json:"table"`
	Reservations []models.Reservation `json:"reservations"`
}

// ConflictError -> kombinasi meja/waktu bentrok dengan booking
// confirmed/checked_in yang sudah ada
type ConflictError struct {
	Conflicts []TableConflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("table %d (%d reservation(s))", c.Table.TableNumber, len(c.Reservations)))
	}
	return "time window conflicts with existing reservations on " + strings.Join(parts, ", ")
}

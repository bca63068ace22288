package models

import "time"

// CleaningLog mencatat siklus pembersihan meja. Menyelesaikan log untuk meja
// berstatus cleaning melepaskan meja tersebut; status berikutnya mengikuti
// klaim aktif di meja itu (available bila tidak ada).
type CleaningLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TableID     uint       `gorm:"not null;index" json:"table_id"`
	Table       Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"table"`
	CleanerName string     `gorm:"type:varchar(255)" json:"cleaner_name"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

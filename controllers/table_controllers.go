package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/events"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

type TableController struct {
	DB           *gorm.DB
	svc          *services.TableService
	reservations *services.ReservationService
}

func NewTableController(db *gorm.DB, svc *services.TableService, reservations *services.ReservationService) *TableController {
	return &TableController{DB: db, svc: svc, reservations: reservations}
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber int `json:"table_number" binding:"required"`
		Capacity    int `json:"capacity" binding:"required,gt=0"`
		GridX       int `json:"grid_x"`
		GridY       int `json:"grid_y"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Status:      models.TableAvailable,
		GridX:       req.GridX,
		GridY:       req.GridY,
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(table)
	utils.InfoLogger.Printf("New table created: #%d (capacity=%d)", table.TableNumber, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> menampilkan seluruh meja
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("table_number asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail satu meja
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// FindAvailableTables -> kombinasi meja yang muat untuk window + party size,
// terurut dari kombinasi terbaik
func (tc *TableController) FindAvailableTables(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
		return
	}
	duration, _ := strconv.Atoi(c.DefaultQuery("duration", "120"))
	partySize, err := strconv.Atoi(c.Query("party_size"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid party_size: %w", err))
		return
	}
	maxTables, _ := strconv.Atoi(c.Query("max_tables"))

	combos, err := tc.reservations.FindAvailableTables(start, duration, partySize, maxTables)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available table combinations", gin.H{
		"combinations": combos,
		"count":        len(combos),
	})
}

// UpdateTable -> mengubah nomor/kapasitas meja
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var req struct {
		TableNumber *int `json:"table_number"`
		Capacity    *int `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.TableNumber != nil {
		table.TableNumber = *req.TableNumber
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("capacity must be greater than zero"))
			return
		}
		table.Capacity = *req.Capacity
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(table)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// UpdateTableStatus -> perubahan status operasional (cleaning, maintenance,
// available); reserved/occupied tidak bisa di-set manual
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.svc.UpdateStatus(uint(id), models.TableStatus(body.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastTableUpdate(*table)
	utils.InfoLogger.Printf("Table %d status changed to %s", table.ID, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// MarkTableClean -> cleaning selesai, meja kembali available
func (tc *TableController) MarkTableClean(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.Status != models.TableCleaning {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("table is not being cleaned"))
		return
	}

	updated, err := tc.svc.UpdateStatus(uint(id), models.TableAvailable)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastTableUpdate(*updated)
	utils.RespondJSON(c, http.StatusOK, "Table marked as clean", updated)
}

// SyncTableStatus -> hitung ulang status meja dari klaim aktif dan perbaiki
// drift bila ada
func (tc *TableController) SyncTableStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	table, err := tc.svc.SyncStatus(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastTableUpdate(*table)
	utils.RespondJSON(c, http.StatusOK, "Table status synced", table)
}

// MoveTable -> memindahkan meja di grid floor plan
func (tc *TableController) MoveTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var body struct {
		GridX int `json:"grid_x"`
		GridY int `json:"grid_y"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.svc.MoveTable(uint(id), body.GridX, body.GridY)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastTableUpdate(*table)
	utils.RespondJSON(c, http.StatusOK, "Table moved", table)
}

// GetTableSchedule -> reservasi blocking satu meja untuk satu hari
func (tc *TableController) GetTableSchedule(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid date: %w", err))
			return
		}
		date = parsed
	}

	schedule, err := tc.svc.Schedule(uint(id), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table schedule", schedule)
}

// GetTableStats -> jumlah meja per status untuk dashboard okupansi
func (tc *TableController) GetTableStats(c *gin.Context) {
	stats, err := tc.svc.UtilizationStats()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastStats(stats)
	utils.RespondJSON(c, http.StatusOK, "Table utilization stats", stats)
}

// FindTablesByStatus -> mis. list meja available
func (tc *TableController) FindTablesByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.TableAvailable))
	if !models.ValidTableStatus(models.TableStatus(status)) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown table status: %s", status))
		return
	}

	var tables []models.Table
	if err := tc.DB.Where("status = ?", status).Order("table_number asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables with status: "+status, tables)
}

// DeleteTable -> menghapus meja yang tidak dipegang klaim aktif
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	if err := tc.svc.DeleteTable(uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", id)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"table_id": id})
}

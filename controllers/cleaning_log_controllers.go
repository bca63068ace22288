package controllers

import (
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

type CleaningLogController struct {
	DB     *gorm.DB
	tables *services.TableService
}

func NewCleaningLogController(db *gorm.DB, tables *services.TableService) *CleaningLogController {
	return &CleaningLogController{DB: db, tables: tables}
}

// GetAllCleaningLogs -> ?open=true hanya log yang belum selesai
func (clc *CleaningLogController) GetAllCleaningLogs(c *gin.Context) {
	q := clc.DB.Preload("Table").Order("started_at desc")
	if c.Query("open") == "true" {
		q = q.Where("finished_at IS NULL")
	}

	var logs []models.CleaningLog
	if err := q.Find(&logs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All cleaning logs", logs)
}

// CreateCleaningLog -> mulai siklus pembersihan untuk meja berstatus cleaning
func (clc *CleaningLogController) CreateCleaningLog(c *gin.Context) {
	var req struct {
		TableID     uint   `json:"table_id" binding:"required"`
		CleanerName string `json:"cleaner_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := clc.DB.First(&table, req.TableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.Status != models.TableCleaning {
		utils.RespondError(c, http.StatusConflict, ErrTableNotCleaning)
		return
	}

	logEntry := models.CleaningLog{
		TableID:     req.TableID,
		CleanerName: req.CleanerName,
		StartedAt:   time.Now(),
	}
	if err := clc.DB.Create(&logEntry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Cleaning log created", logEntry)
}

// GetCleaningLogByID
func (clc *CleaningLogController) GetCleaningLogByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("clean_id"))

	var logEntry models.CleaningLog
	if err := clc.DB.Preload("Table").First(&logEntry, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cleaning log detail", logEntry)
}

// FinishCleaningLog -> menutup log dan melepaskan mejanya sekaligus; status
// pasca-cleaning diturunkan dari klaim aktif meja tersebut
func (clc *CleaningLogController) FinishCleaningLog(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("clean_id"))

	logEntry, table, err := clc.tables.FinishCleaning(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	events.BroadcastTableUpdate(*table)

	utils.RespondJSON(c, http.StatusOK, "Cleaning log finished", logEntry)
}

// DeleteCleaningLog
func (clc *CleaningLogController) DeleteCleaningLog(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("clean_id"))

	if err := clc.DB.Delete(&models.CleaningLog{}, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cleaning log deleted", gin.H{"clean_id": id})
}

var ErrTableNotCleaning = &CustomError{"table is not in cleaning state"}

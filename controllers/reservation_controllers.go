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

type ReservationController struct {
	DB  *gorm.DB
	svc *services.ReservationService
}

func NewReservationController(db *gorm.DB, svc *services.ReservationService) *ReservationController {
	return &ReservationController{DB: db, svc: svc}
}

// CreateReservation -> membuat reservasi baru (pending). table_ids kosong
// berarti meja di-assign otomatis oleh solver kombinasi.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req services.CreateReservationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.svc.CreateReservation(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(*reservation)
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

// GetAllReservations -> list dengan filter opsional via query string
func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	var filter services.ReservationFilter

	filter.Status = models.ReservationStatus(c.Query("status"))
	if v := c.Query("customer_id"); v != "" {
		id, _ := strconv.Atoi(v)
		filter.CustomerID = uint(id)
	}
	if v := c.Query("table_id"); v != "" {
		id, _ := strconv.Atoi(v)
		filter.TableID = uint(id)
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		filter.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		filter.To = t
	}

	reservations, err := rc.svc.ListReservations(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// GetUpcomingReservations -> reservasi confirmed (dan checked_in jika diminta)
// beberapa jam ke depan, untuk papan kedatangan
func (rc *ReservationController) GetUpcomingReservations(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	includeCheckedIn := c.Query("include_checked_in") == "true"

	reservations, err := rc.svc.UpcomingReservations(hours, includeCheckedIn)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Upcoming reservations", reservations)
}

// GetReservationByID
func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("reservation_id"))

	reservation, err := rc.svc.GetReservation(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// UpdateReservation -> mengganti detail reservasi yang masih pending
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("reservation_id"))

	var req services.CreateReservationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.svc.UpdateReservation(uint(id), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(*reservation)
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

// ConfirmReservation -> pending -> confirmed, klaim meja
func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	rc.transition(c, "Reservation confirmed", rc.svc.ConfirmReservation)
}

// CheckInReservation -> confirmed -> checked_in dalam window check-in
func (rc *ReservationController) CheckInReservation(c *gin.Context) {
	rc.transition(c, "Reservation checked in", rc.svc.CheckIn)
}

// CompleteReservation -> checked_in -> completed, meja turun ke cleaning
func (rc *ReservationController) CompleteReservation(c *gin.Context) {
	rc.transition(c, "Reservation completed", rc.svc.CompleteReservation)
}

// CancelReservation -> pending/confirmed -> cancelled
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	rc.transition(c, "Reservation cancelled", rc.svc.CancelReservation)
}

// MarkNoShow -> confirmed -> no_show setelah waktu mulai lewat
func (rc *ReservationController) MarkNoShow(c *gin.Context) {
	rc.transition(c, "Reservation marked as no-show", rc.svc.MarkNoShow)
}

// transition menjalankan satu operasi siklus hidup lalu menyiarkan perubahan
// reservasi beserta status meja terbarunya
func (rc *ReservationController) transition(c *gin.Context, message string, op func(uint) (*models.Reservation, error)) {
	id, _ := strconv.Atoi(c.Param("reservation_id"))

	reservation, err := op(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(*reservation)
	for _, t := range reservation.Tables {
		events.BroadcastTableUpdate(*t)
	}

	utils.RespondJSON(c, http.StatusOK, message, reservation)
}

package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

func setupTestDBForReservations() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(
		&models.Table{}, &models.Customer{}, &models.Reservation{},
		&models.Order{}, &models.OrderItem{}, &models.Menu{}, &models.MenuCategory{},
	)
	if err != nil {
		panic(err)
	}

	// Seed data: satu customer dan tiga meja berkapasitas berbeda
	db.Create(&models.Customer{Name: "Dewi", Phone: "0812000"})
	db.Create(&models.Table{TableNumber: 1, Capacity: 2, Status: models.TableAvailable})
	db.Create(&models.Table{TableNumber: 2, Capacity: 4, Status: models.TableAvailable})
	db.Create(&models.Table{TableNumber: 3, Capacity: 6, Status: models.TableAvailable})
	return db
}

func setupReservationRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	reservationSvc := services.NewReservationService(db)
	tableSvc := services.NewTableService(db)
	reservationCtrl := controllers.NewReservationController(db, reservationSvc)
	tableCtrl := controllers.NewTableController(db, tableSvc, reservationSvc)

	router.POST("/reservations", reservationCtrl.CreateReservation)
	router.GET("/reservations/:reservation_id", reservationCtrl.GetReservationByID)
	router.POST("/reservations/:reservation_id/confirm", reservationCtrl.ConfirmReservation)
	router.POST("/reservations/:reservation_id/cancel", reservationCtrl.CancelReservation)
	router.GET("/tables/available", tableCtrl.FindAvailableTables)
	return router
}

func TestCreateAndConfirmReservation(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations()
	router := setupReservationRouter(db)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	payload := map[string]interface{}{
		"customer_id": 1,
		"start_time":  start.Format(time.RFC3339),
		"party_size":  4,
	}
	payloadBytes, err := json.Marshal(payload)
	assert.NoError(t, err)

	req, _ := http.NewRequest("POST", "/reservations", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var createResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.Equal(t, "Reservation created", createResp["message"])

	data := createResp["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	reservationID := int(data["id"].(float64))

	// Solver harus memilih meja kapasitas 4 untuk rombongan 4
	tables := data["tables"].([]interface{})
	assert.Len(t, tables, 1)
	assert.Equal(t, float64(4), tables[0].(map[string]interface{})["capacity"])

	// Confirm -> meja ikut ter-reserve
	req, _ = http.NewRequest("POST", "/reservations/"+strconv.Itoa(reservationID)+"/confirm", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var confirmResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmResp))
	confirmData := confirmResp["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", confirmData["status"])

	var table models.Table
	assert.NoError(t, db.Where("capacity = ?", 4).First(&table).Error)
	assert.Equal(t, models.TableReserved, table.Status)
}

func TestConfirmConflictingReservationReturns409(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations()
	router := setupReservationRouter(db)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	create := func(tableID uint) int {
		payload := map[string]interface{}{
			"customer_id": 1,
			"start_time":  start.Format(time.RFC3339),
			"party_size":  2,
			"table_ids":   []uint{tableID},
		}
		payloadBytes, _ := json.Marshal(payload)
		req, _ := http.NewRequest("POST", "/reservations", bytes.NewBuffer(payloadBytes))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &resp)
		return int(resp["data"].(map[string]interface{})["id"].(float64))
	}

	firstID := create(1)
	secondID := create(1)

	req, _ := http.NewRequest("POST", "/reservations/"+strconv.Itoa(firstID)+"/confirm", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Reservasi kedua kalah race: 409 plus detail meja yang bentrok
	req, _ = http.NewRequest("POST", "/reservations/"+strconv.Itoa(secondID)+"/confirm", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	var conflictResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflictResp))
	assert.Equal(t, false, conflictResp["status"])
	conflicts := conflictResp["data"].(map[string]interface{})["conflicts"].([]interface{})
	assert.Len(t, conflicts, 1)
}

func TestCreateReservationValidationErrors(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations()
	router := setupReservationRouter(db)

	payload := map[string]interface{}{
		"customer_id": 1,
		"start_time":  time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"party_size":  0,
	}
	payloadBytes, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", "/reservations", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFindAvailableTablesEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations()
	router := setupReservationRouter(db)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	target := "/tables/available?start=" + url.QueryEscape(start.Format(time.RFC3339)) + "&duration=120&party_size=5"
	req, _ := http.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	combos := data["combinations"].([]interface{})
	assert.NotEmpty(t, combos)

	// Rombongan 5: meja 6 masuk band satu meja "nyaris pas"
	best := combos[0].([]interface{})
	assert.Len(t, best, 1)
	assert.Equal(t, float64(6), best[0].(map[string]interface{})["capacity"])
}

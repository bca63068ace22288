package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

func setupTestDBForOrders() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(
		&models.Table{}, &models.Customer{}, &models.Reservation{},
		&models.MenuCategory{}, &models.Menu{}, &models.Order{}, &models.OrderItem{},
	)
	if err != nil {
		panic(err)
	}

	// Seed data: meja available, kategori, dan satu menu
	db.Create(&models.Table{TableNumber: 1, Capacity: 4, Status: models.TableAvailable})
	category := models.MenuCategory{Name: "Makanan"}
	db.Create(&category)
	db.Create(&models.Menu{CategoryID: category.ID, Name: "Nasi Goreng", Price: 15000, Stock: 100})
	return db
}

func setupOrderRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	orderCtrl := controllers.NewOrderController(db, services.NewOrderService(db))
	router.POST("/tables/:table_id/orders", orderCtrl.CreateOrder)
	router.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	router.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	router.POST("/orders/:order_id/items", orderCtrl.AddOrderItems)
	return router
}

func TestCreateAndGetOrder(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders()
	router := setupOrderRouter(db)

	payload := map[string]interface{}{
		"items": []map[string]interface{}{
			{"menu_id": 1, "quantity": 2, "notes": "Pedas"},
		},
	}
	payloadBytes, err := json.Marshal(payload)
	assert.NoError(t, err)

	req, _ := http.NewRequest("POST", "/tables/1/orders", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var createResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.Equal(t, "Order created", createResp["message"])

	data := createResp["data"].(map[string]interface{})
	orderID := int(data["id"].(float64))
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(30000), data["total_amount"])

	// Meja langsung occupied
	var table models.Table
	assert.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableOccupied, table.Status)

	// GET order by ID
	req, _ = http.NewRequest("GET", "/orders/"+strconv.Itoa(orderID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var getResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &getResp))
	assert.Equal(t, "Order detail", getResp["message"])
	getData := getResp["data"].(map[string]interface{})
	assert.Equal(t, float64(orderID), getData["id"].(float64))
	assert.Len(t, getData["order_items"].([]interface{}), 1)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders()
	router := setupOrderRouter(db)

	payloadBytes, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{{"menu_id": 1, "quantity": 1}},
	})
	req, _ := http.NewRequest("POST", "/tables/1/orders", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	patch := func(status string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"status": status})
		req, _ := http.NewRequest("PATCH", "/orders/1/status", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// Lompat pending -> paid ilegal
	assert.Equal(t, http.StatusConflict, patch("paid").Code)

	assert.Equal(t, http.StatusOK, patch("in_progress").Code)
	assert.Equal(t, http.StatusOK, patch("completed").Code)
	assert.Equal(t, http.StatusOK, patch("paid").Code)

	// Order paid melepaskan meja ke cleaning
	var table models.Table
	assert.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableCleaning, table.Status)

	// Status terminal tidak bisa ditransisikan lagi
	assert.Equal(t, http.StatusConflict, patch("in_progress").Code)
}

func TestAddItemsToRunningOrder(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders()
	router := setupOrderRouter(db)

	payloadBytes, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{{"menu_id": 1, "quantity": 1}},
	})
	req, _ := http.NewRequest("POST", "/tables/1/orders", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	payloadBytes, _ = json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{{"menu_id": 1, "quantity": 2}},
	})
	req, _ = http.NewRequest("POST", "/orders/1/items", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(45000), data["total_amount"])
	assert.Len(t, data["order_items"].([]interface{}), 2)
}

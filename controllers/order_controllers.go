package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/events"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

type OrderController struct {
	DB  *gorm.DB
	svc *services.OrderService
}

func NewOrderController(db *gorm.DB, svc *services.OrderService) *OrderController {
	return &OrderController{DB: db, svc: svc}
}

// CreateOrder -> membuat order walk-in pada satu meja; meja langsung occupied
func (oc *OrderController) CreateOrder(c *gin.Context) {
	tableID, _ := strconv.Atoi(c.Param("table_id"))

	var req struct {
		CustomerID *uint                     `json:"customer_id"`
		Items      []services.OrderItemInput `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.svc.CreateOrder(uint(tableID), req.CustomerID, req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastOrderUpdate(*order)
	events.BroadcastTableUpdate(order.Table)
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders -> list order; default hanya yang aktif, all=true untuk semua
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	if c.Query("all") != "true" {
		orders, err := oc.svc.GetActiveOrders()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Active orders", orders)
		return
	}

	var orders []models.Order
	err := oc.DB.
		Preload("Table").
		Preload("OrderItems").
		Preload("OrderItems.Menu").
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All orders", orders)
}

// GetOrderByID
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, err := oc.svc.GetOrder(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetTableOrders -> order milik satu meja
func (oc *OrderController) GetTableOrders(c *gin.Context) {
	tableID, _ := strconv.Atoi(c.Param("table_id"))
	includeFinished := c.Query("include_finished") == "true"

	orders, err := oc.svc.GetTableOrders(uint(tableID), includeFinished)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table orders", orders)
}

// UpdateOrderStatus -> menjalankan transisi status order; saat order masuk
// terminal, status mejanya ikut dilepas bila tidak ada klaim lain
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.svc.UpdateOrderStatus(uint(id), models.OrderStatus(body.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastOrderUpdate(*order)
	events.BroadcastTableUpdate(order.Table)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// AddOrderItems -> menambahkan item ke order yang masih berjalan
func (oc *OrderController) AddOrderItems(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	var req struct {
		Items []services.OrderItemInput `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.svc.AddItems(uint(id), req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastOrderUpdate(*order)
	utils.RespondJSON(c, http.StatusOK, "Order items added", order)
}

// RemoveOrderItem -> menghapus satu item dari order yang masih berjalan
func (oc *OrderController) RemoveOrderItem(c *gin.Context) {
	orderID, _ := strconv.Atoi(c.Param("order_id"))
	itemID, _ := strconv.Atoi(c.Param("item_id"))

	order, err := oc.svc.RemoveItem(uint(orderID), uint(itemID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastOrderUpdate(*order)
	utils.RespondJSON(c, http.StatusOK, "Order item removed", order)
}

package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/services"
)

func SetupRouter(db *gorm.DB, finder services.FinderConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.LoggerMiddleware())
	// Limiter global per IP (50 req/detik)
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Services inti; controller reservasi/order/meja berbagi instance yang sama
	reservationSvc := services.NewReservationServiceWithConfig(db, finder)
	tableSvc := services.NewTableService(db)
	orderSvc := services.NewOrderService(db)

	reservationCtrl := controllers.NewReservationController(db, reservationSvc)
	tableCtrl := controllers.NewTableController(db, tableSvc, reservationSvc)
	orderCtrl := controllers.NewOrderController(db, orderSvc)
	customerCtrl := controllers.NewCustomerController(db)
	categoryCtrl := controllers.NewMenuCategoryController(db)
	menuCtrl := controllers.NewMenuController(db)
	cleanLogCtrl := controllers.NewCleaningLogController(db, tableSvc)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Endpoint WebSocket untuk floor plan / dashboard real-time
	r.GET("/ws", controllers.EventsHandler)

	// Rate limiter khusus endpoint tulis yang memicu solver / transaksi
	writeLimiter := middlewares.NewWriteRateLimiter()

	// -- RESERVATIONS --
	reservations := r.Group("/reservations")
	{
		reservations.GET("", reservationCtrl.GetAllReservations)
		reservations.GET("/upcoming", reservationCtrl.GetUpcomingReservations)
		reservations.GET("/:reservation_id", reservationCtrl.GetReservationByID)
		reservations.POST("", writeLimiter, reservationCtrl.CreateReservation)
		reservations.PUT("/:reservation_id", writeLimiter, reservationCtrl.UpdateReservation)
		reservations.POST("/:reservation_id/confirm", writeLimiter, reservationCtrl.ConfirmReservation)
		reservations.POST("/:reservation_id/check-in", reservationCtrl.CheckInReservation)
		reservations.POST("/:reservation_id/complete", reservationCtrl.CompleteReservation)
		reservations.POST("/:reservation_id/cancel", reservationCtrl.CancelReservation)
		reservations.POST("/:reservation_id/no-show", reservationCtrl.MarkNoShow)
	}

	// -- TABLES --
	tables := r.Group("/tables")
	{
		tables.GET("", tableCtrl.GetAllTables)
		tables.GET("/available", tableCtrl.FindAvailableTables)
		tables.GET("/status", tableCtrl.FindTablesByStatus)
		tables.GET("/stats", tableCtrl.GetTableStats)
		tables.GET("/:table_id", tableCtrl.GetTableByID)
		tables.GET("/:table_id/schedule", tableCtrl.GetTableSchedule)
		tables.GET("/:table_id/orders", orderCtrl.GetTableOrders)
		tables.POST("", tableCtrl.CreateTable)
		tables.PUT("/:table_id", tableCtrl.UpdateTable)
		tables.PATCH("/:table_id/status", tableCtrl.UpdateTableStatus)
		tables.PATCH("/:table_id/position", tableCtrl.MoveTable)
		tables.POST("/:table_id/clean", tableCtrl.MarkTableClean)
		tables.POST("/:table_id/sync", tableCtrl.SyncTableStatus)
		tables.POST("/:table_id/orders", writeLimiter, orderCtrl.CreateOrder)
		tables.DELETE("/:table_id", tableCtrl.DeleteTable)
	}

	// -- ORDERS --
	orders := r.Group("/orders")
	{
		orders.GET("", orderCtrl.GetAllOrders)
		orders.GET("/:order_id", orderCtrl.GetOrderByID)
		orders.PATCH("/:order_id/status", orderCtrl.UpdateOrderStatus)
		orders.POST("/:order_id/items", orderCtrl.AddOrderItems)
		orders.DELETE("/:order_id/items/:item_id", orderCtrl.RemoveOrderItem)
	}

	// -- CUSTOMERS --
	customers := r.Group("/customers")
	{
		customers.GET("", customerCtrl.GetAllCustomers)
		customers.GET("/:customer_id", customerCtrl.GetCustomerByID)
		customers.POST("", customerCtrl.CreateCustomer)
		customers.PATCH("/:customer_id", customerCtrl.UpdateCustomer)
		customers.DELETE("/:customer_id", customerCtrl.DeleteCustomer)
	}

	// -- MENUS & CATEGORIES --
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.POST("/categories", categoryCtrl.CreateCategory)
	r.PATCH("/categories/:category_id", categoryCtrl.UpdateCategory)
	r.DELETE("/categories/:category_id", categoryCtrl.DeleteCategory)

	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/:menu_id", menuCtrl.GetMenuByID)
	r.POST("/menus", menuCtrl.CreateMenu)
	r.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)
	r.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)

	// -- CLEANING LOGS --
	cleaning := r.Group("/cleaning-logs")
	{
		cleaning.GET("", cleanLogCtrl.GetAllCleaningLogs)
		cleaning.GET("/:clean_id", cleanLogCtrl.GetCleaningLogByID)
		cleaning.POST("", cleanLogCtrl.CreateCleaningLog)
		cleaning.POST("/:clean_id/finish", cleanLogCtrl.FinishCleaningLog)
		cleaning.DELETE("/:clean_id", cleanLogCtrl.DeleteCleaningLog)
	}

	return r
}

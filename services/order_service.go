package services

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

// OrderService adalah facade order dine-in sekaligus koordinator okupansi
// meja: setiap transisi order dicerminkan ke status meja, dan meja hanya
// dilepas ketika tidak ada klaim aktif lain yang memegangnya.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

type OrderItemInput struct {
	MenuID   uint   `json:"menu_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// CreateOrder membuat order walk-in pada satu meja. Meja harus available
// atau reserved (reservasi boleh "melebur" jadi order walk-in di meja yang
// sama) dan langsung menjadi occupied. Seluruh operasi komposit
// create-lalu-isi-item berjalan dalam satu transaksi; kegagalan di item
// mana pun membatalkan semuanya, tidak pernah ada order setengah jadi.
func (s *OrderService) CreateOrder(tableID uint, customerID *uint, items []OrderItemInput) (*models.Order, error) {
	tx := s.db.Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		return nil, tx.Error
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table", ID: tableID}
		}
		return nil, err
	}
	if table.Status != models.TableAvailable && table.Status != models.TableReserved {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "table", State: string(table.Status), Operation: "create order"}
	}

	if customerID != nil {
		var customer models.Customer
		if err := tx.First(&customer, *customerID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Entity: "customer", ID: *customerID}
			}
			return nil, err
		}
	}

	order := models.Order{
		TableID:    tableID,
		CustomerID: customerID,
		Status:     models.OrderPending,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var total float64
	for _, in := range items {
		if in.Quantity <= 0 {
			tx.Rollback()
			return nil, &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
		}
		var menu models.Menu
		if err := tx.First(&menu, in.MenuID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Entity: "menu", ID: in.MenuID}
			}
			return nil, err
		}
		if !menu.IsAvailable() {
			tx.Rollback()
			return nil, &InvalidStateError{Entity: "menu", State: "out of stock", Operation: "order item"}
		}

		item := models.OrderItem{
			OrderID:  order.ID,
			MenuID:   menu.ID,
			Quantity: in.Quantity,
			Price:    menu.Price,
			Notes:    in.Notes,
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		total += menu.Price * float64(in.Quantity)
	}

	if err := tx.Model(&order).Update("total_amount", total).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := setTableStatus(tx, tableID, models.TableOccupied); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Order %d created on table %d (%d item(s))", order.ID, tableID, len(items))
	return s.GetOrder(order.ID)
}

// UpdateOrderStatus menjalankan transisi status order sesuai tabel transisi.
// Saat order masuk terminal (paid/cancelled), meja dilepas hanya bila tidak
// ada order non-terminal atau reservasi confirmed/checked_in lain yang masih
// mengklaimnya: paid menurunkan meja ke cleaning, cancelled sebelum layanan
// dimulai mengembalikannya ke available.
func (s *OrderService) UpdateOrderStatus(orderID uint, target models.OrderStatus) (*models.Order, error) {
	tx := s.db.Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		return nil, tx.Error
	}

	order, err := loadOrder(tx, orderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !order.CanTransitionTo(target) {
		tx.Rollback()
		return nil, &InvalidTransitionError{Entity: "order", From: string(order.Status), To: string(target)}
	}
	previous := order.Status

	if err := tx.Model(order).Update("status", target).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if target.IsTerminal() {
		held, err := hasOtherActiveClaims(tx, order.TableID, 0, order.ID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !held {
			next := models.TableCleaning
			if target == models.OrderCancelled && previous == models.OrderPending {
				// Dibatalkan sebelum layanan dimulai: meja tidak perlu dibersihkan
				next = models.TableAvailable
			}
			if err := setTableStatus(tx, order.TableID, next); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Order %d status %s -> %s", orderID, previous, target)
	return s.GetOrder(orderID)
}

// AddItems menambahkan item ke order yang masih berjalan dan menghitung
// ulang total, atomik
func (s *OrderService) AddItems(orderID uint, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must not be empty"}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	order, err := loadOrder(tx, orderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if order.Status != models.OrderPending && order.Status != models.OrderInProgress {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "order", State: string(order.Status), Operation: "add items"}
	}

	for _, in := range items {
		if in.Quantity <= 0 {
			tx.Rollback()
			return nil, &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
		}
		var menu models.Menu
		if err := tx.First(&menu, in.MenuID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Entity: "menu", ID: in.MenuID}
			}
			return nil, err
		}
		if !menu.IsAvailable() {
			tx.Rollback()
			return nil, &InvalidStateError{Entity: "menu", State: "out of stock", Operation: "order item"}
		}
		item := models.OrderItem{
			OrderID:  order.ID,
			MenuID:   menu.ID,
			Quantity: in.Quantity,
			Price:    menu.Price,
			Notes:    in.Notes,
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := recomputeTotal(tx, order.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// RemoveItem menghapus satu item dari order yang masih berjalan dan
// menghitung ulang total
func (s *OrderService) RemoveItem(orderID, itemID uint) (*models.Order, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	order, err := loadOrder(tx, orderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if order.Status != models.OrderPending && order.Status != models.OrderInProgress {
		tx.Rollback()
		return nil, &InvalidStateError{Entity: "order", State: string(order.Status), Operation: "remove item"}
	}

	var item models.OrderItem
	if err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order item", ID: itemID}
		}
		return nil, err
	}
	if err := tx.Delete(&item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recomputeTotal(tx, order.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// GetOrder memuat satu order lengkap dengan meja, customer, dan item
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.
		Preload("Table").
		Preload("Customer").
		Preload("OrderItems").
		Preload("OrderItems.Menu").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: id}
		}
		return nil, err
	}
	return &order, nil
}

// GetActiveOrders -> semua order yang belum terminal, terbaru dulu
func (s *OrderService) GetActiveOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.
		Preload("Table").
		Preload("OrderItems").
		Preload("OrderItems.Menu").
		Where("status NOT IN ?", []models.OrderStatus{models.OrderCancelled, models.OrderPaid}).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetTableOrders -> order milik satu meja; includeFinished ikut menyertakan
// order terminal
func (s *OrderService) GetTableOrders(tableID uint, includeFinished bool) ([]models.Order, error) {
	q := s.db.
		Preload("OrderItems").
		Preload("OrderItems.Menu").
		Where("table_id = ?", tableID)
	if !includeFinished {
		q = q.Where("status NOT IN ?", []models.OrderStatus{models.OrderCancelled, models.OrderPaid})
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func loadOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: id}
		}
		return nil, err
	}
	return &order, nil
}

func recomputeTotal(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return tx.Model(&models.Order{}).Where("id = ?", orderID).Update("total_amount", total).Error
}

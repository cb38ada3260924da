package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/database"
	"github.com/bermelken20/university-canteen-sub001/models"
)

// ExportHandler serves the legacy JSON feed consumed by the faculty
// display client. The wire shapes are kept as-is, but both endpoints
// sit behind the normal session middleware: the old anonymous intake
// path is gone.
type ExportHandler struct {
	Cfg *config.Config
}

func NewExportHandler(cfg *config.Config) *ExportHandler {
	return &ExportHandler{Cfg: cfg}
}

type exportProfessor struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	ID         string `json:"id"`
}

type exportOrder struct {
	ID            uint            `json:"id"`
	Professor     exportProfessor `json:"professor"`
	Items         string          `json:"items"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	Date          string          `json:"date"`
}

// buildExportOrders shapes orders for the legacy feed, resolving the
// professor block from an already-fetched user map.
func buildExportOrders(orders []models.Order, users map[string]models.User) []exportOrder {
	out := make([]exportOrder, 0, len(orders))
	for _, o := range orders {
		prof := exportProfessor{ID: o.UserID}
		if u, ok := users[o.UserID]; ok {
			prof.Name = u.Name
			prof.Department = u.College
		}
		out = append(out, exportOrder{
			ID:            o.OrderID,
			Professor:     prof,
			Items:         o.ItemsSummary,
			Total:         o.Total,
			PaymentMethod: "cash",
			Status:        string(o.Status),
			Date:          o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// GET /export/orders/recent — the 10 most recent orders
func (h *ExportHandler) RecentOrders(c echo.Context) error {
	var orders []models.Order
	if err := database.DB.Order("created_at DESC").Limit(10).Find(&orders).Error; err != nil {
		c.Logger().Errorf("export recent: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "lookup failed"})
	}

	users := map[string]models.User{}
	if len(orders) > 0 {
		ids := make([]string, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.UserID)
		}
		var rows []models.User
		if err := database.DB.Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
			c.Logger().Errorf("export recent: users: %v", err)
		}
		for _, u := range rows {
			users[u.UserID] = u
		}
	}
	return c.JSON(http.StatusOK, buildExportOrders(orders, users))
}

type exportIntakeReq struct {
	Professor exportProfessor `json:"professor"`
	Items     []orderLineReq  `json:"items"`
	// total, paymentMethod and status are accepted for wire
	// compatibility but ignored: totals are computed server-side and
	// new orders always start pending.
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

// POST /export/orders — legacy intake, same rules as POST /orders:
// the order is created for the authenticated caller, prices come from
// the catalog and the placement is one transaction.
func (h *ExportHandler) IntakeOrder(c echo.Context) error {
	userID := callerID(c)

	var req exportIntakeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "invalid payload"})
	}

	var menuItems []models.MenuItem
	if err := database.DB.Where("available = true").Find(&menuItems).Error; err != nil {
		c.Logger().Errorf("export intake: load menu: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "lookup failed"})
	}
	menu := make(map[uint]models.MenuItem, len(menuItems))
	for _, it := range menuItems {
		menu[it.ItemID] = it
	}

	lines := priceLines(req.Items, menu)
	if len(lines) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "no valid items"})
	}

	order := models.Order{
		UserID:       userID,
		Total:        models.OrderTotal(lines),
		Status:       models.StatusPending,
		ItemsSummary: summarizeLines(lines),
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, l := range lines {
			oi := models.OrderItem{
				OrderID:  order.OrderID,
				ItemID:   l.ItemID,
				Quantity: l.Quantity,
				Price:    l.Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.OrderStatusLog{
			OrderID:   order.OrderID,
			Status:    models.StatusPending,
			ChangedBy: userID,
			Notes:     "Order placed via export intake",
		}).Error
	})
	if err != nil {
		c.Logger().Errorf("export intake: tx: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "order creation failed"})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "order created",
		"order_id": order.OrderID,
	})
}

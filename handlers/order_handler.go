package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/database"
	"github.com/bermelken20/university-canteen-sub001/models"
)

type OrderHandler struct {
	Cfg *config.Config
}

func NewOrderHandler(cfg *config.Config) *OrderHandler {
	return &OrderHandler{Cfg: cfg}
}

/* ====================== DTOs & helpers ====================== */

type orderLineReq struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

type placeOrderReq struct {
	Items               []orderLineReq `json:"items"`
	SpecialInstructions string         `json:"special_instructions"`
}

// priceLines resolves submitted lines against the orderable menu.
// Lines with quantity <= 0 and item ids not on the menu are silently
// dropped; prices always come from the catalog, never the client.
func priceLines(lines []orderLineReq, menu map[uint]models.MenuItem) []models.PricedLine {
	var out []models.PricedLine
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		item, ok := menu[l.ItemID]
		if !ok {
			continue
		}
		out = append(out, models.PricedLine{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Quantity: l.Quantity,
			Price:    item.Price,
		})
	}
	return out
}

func summarizeLines(lines []models.PricedLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d× %s", l.Quantity, l.Name))
	}
	return strings.Join(parts, ", ")
}

func callerID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

/* ====================== Customer endpoints ====================== */

// POST /orders
//
// Header, items and the first audit row commit together or not at all;
// a failure after the header insert rolls the header back too.
func (h *OrderHandler) Place(c echo.Context) error {
	userID := callerID(c)

	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	var menuItems []models.MenuItem
	if err := database.DB.Where("available = true").Find(&menuItems).Error; err != nil {
		c.Logger().Errorf("place order: load menu: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	menu := make(map[uint]models.MenuItem, len(menuItems))
	for _, it := range menuItems {
		menu[it.ItemID] = it
	}

	lines := priceLines(req.Items, menu)
	if len(lines) == 0 {
		// rejected before any write
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "EMPTY_ORDER"})
	}

	order := models.Order{
		UserID:              userID,
		Total:               models.OrderTotal(lines),
		Status:              models.StatusPending,
		ItemsSummary:        summarizeLines(lines),
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
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
			Notes:     "Order placed by customer",
		}).Error
	})
	if err != nil {
		c.Logger().Errorf("place order: tx: %v", err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// friendlier hint for the kiosk UI; the raw constraint text
			// stays in the server log
			return c.JSON(http.StatusConflict, map[string]any{"error": "DUPLICATE_ORDER"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "ORDER_CREATE_FAILED"})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"order_id": order.OrderID,
		"total":    order.Total,
		"status":   order.Status,
	})
}

// POST /orders/:id/cancel
//
// The status guard lives in the UPDATE itself, so a concurrent staff
// update or a double cancel loses the race instead of overwriting it.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID := callerID(c)
	orderID := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("order_id = ? AND user_id = ?", orderID, userID).
			First(&order).Error; err != nil {
			return err
		}
		switch models.CancelCheck(order.Status, order.CreatedAt, time.Now(), h.Cfg.CancelWindow) {
		case models.CancelNotPending:
			return errNotPending
		case models.CancelWindowExpired:
			return errWindowExpired
		}

		res := tx.Model(&models.Order{}).
			Where("order_id = ? AND user_id = ? AND status = ?", order.OrderID, userID, models.StatusPending).
			Update("status", models.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotPending
		}
		return tx.Create(&models.OrderStatusLog{
			OrderID:   order.OrderID,
			Status:    models.StatusCancelled,
			ChangedBy: userID,
			Notes:     "Order cancelled by customer",
		}).Error
	})

	switch err {
	case nil:
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "status": models.StatusCancelled})
	case gorm.ErrRecordNotFound:
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	case errNotPending:
		return c.JSON(http.StatusConflict, map[string]any{"error": "NOT_PENDING"})
	case errWindowExpired:
		return c.JSON(http.StatusConflict, map[string]any{"error": "WINDOW_EXPIRED"})
	default:
		c.Logger().Errorf("cancel order: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_UPDATE_FAILED"})
	}
}

var (
	errNotPending    = fmt.Errorf("order is not pending")
	errWindowExpired = fmt.Errorf("cancellation window expired")
)

// GET /orders — caller's history; read failures degrade to an empty list
func (h *OrderHandler) ListMine(c echo.Context) error {
	var orders []models.Order
	if err := database.DB.Where("user_id = ?", callerID(c)).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		c.Logger().Errorf("list orders: %v", err)
		orders = []models.Order{}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

// GET /orders/:id — owner-scoped detail with line items
func (h *OrderHandler) GetMine(c echo.Context) error {
	var order models.Order
	err := database.DB.Where("order_id = ? AND user_id = ?", c.Param("id"), callerID(c)).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	var items []models.OrderItem
	if err := database.DB.Where("order_id = ?", order.OrderID).Find(&items).Error; err != nil {
		c.Logger().Errorf("order items: %v", err)
		items = []models.OrderItem{}
	}
	return c.JSON(http.StatusOK, map[string]any{"order": order, "items": items})
}

/* ====================== Admin endpoints ====================== */

// GET /admin/orders?status=&page=&size=
func (h *OrderHandler) AdminList(c echo.Context) error {
	page := atoiOr(c.QueryParam("page"), 1)
	size := atoiOr(c.QueryParam("size"), 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	tx := database.DB.Model(&models.Order{})
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		if !models.OrderStatus(status).Valid() {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_STATUS"})
		}
		tx = tx.Where("status = ?", status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_COUNT_FAILED"})
	}
	var orders []models.Order
	if err := tx.Order("created_at DESC").Limit(size).Offset((page - 1) * size).
		Find(&orders).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  orders,
		"page":  page,
		"size":  size,
		"total": total,
	})
}

// GET /admin/orders/:id
//
// Always answers with a JSON envelope, success flag included, so the
// admin panel never sees a half-rendered error page.
func (h *OrderHandler) AdminDetail(c echo.Context) error {
	var order models.Order
	err := database.DB.First(&order, "order_id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusOK, map[string]any{"success": false, "message": "order not found"})
		}
		c.Logger().Errorf("admin order detail: %v", err)
		return c.JSON(http.StatusOK, map[string]any{"success": false, "message": "lookup failed"})
	}
	var items []models.OrderItem
	if err := database.DB.Where("order_id = ?", order.OrderID).Find(&items).Error; err != nil {
		c.Logger().Errorf("admin order items: %v", err)
		items = []models.OrderItem{}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "order": order, "items": items})
}

type statusUpdateReq struct {
	Status models.OrderStatus `json:"status"`
	Notes  string             `json:"notes"`
}

// POST /admin/orders/:id/status — staff edges of the state machine
func (h *OrderHandler) AdminUpdateStatus(c echo.Context) error {
	var req statusUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_STATUS"})
	}
	adminID := callerID(c)
	orderID := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "order_id = ?", orderID).Error; err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(req.Status) {
			return errBadTransition
		}
		res := tx.Model(&models.Order{}).
			Where("order_id = ? AND status = ?", order.OrderID, order.Status).
			Update("status", req.Status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errBadTransition
		}
		notes := strings.TrimSpace(req.Notes)
		if notes == "" {
			notes = fmt.Sprintf("Status changed to %s by staff", req.Status)
		}
		return tx.Create(&models.OrderStatusLog{
			OrderID:   order.OrderID,
			Status:    req.Status,
			ChangedBy: adminID,
			Notes:     notes,
		}).Error
	})

	switch err {
	case nil:
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "status": req.Status})
	case gorm.ErrRecordNotFound:
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	case errBadTransition:
		return c.JSON(http.StatusConflict, map[string]any{"error": "INVALID_TRANSITION"})
	default:
		c.Logger().Errorf("admin status update: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_UPDATE_FAILED"})
	}
}

var errBadTransition = fmt.Errorf("transition not allowed")

package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bermelken20/university-canteen-sub001/database"
	"github.com/bermelken20/university-canteen-sub001/models"
)

type MenuHandler struct{}

func NewMenuHandler() *MenuHandler { return &MenuHandler{} }

// ===== Validation =====

var (
	menuReName     = regexp.MustCompile(`^[\p{L}0-9\s\.\-&'()]{2,120}$`)
	menuReCategory = regexp.MustCompile(`^[\p{L}0-9\s\-&]{2,60}$`)
)

type menuItemPayload struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Available   *bool   `json:"available"`
	ImageURL    string  `json:"image_url"`
	StockQty    int     `json:"stock_qty"`
}

func (p *menuItemPayload) normalize() {
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.Join(strings.Fields(p.Category), " ")
	p.ImageURL = strings.TrimSpace(p.ImageURL)
}

func (p *menuItemPayload) validate() map[string]string {
	errs := map[string]string{}
	if !menuReName.MatchString(p.Name) {
		errs["name"] = "name must be 2-120 characters"
	}
	if p.Price <= 0 {
		errs["price"] = "price must be positive"
	}
	if !menuReCategory.MatchString(p.Category) {
		errs["category"] = "category must be 2-60 characters"
	}
	if p.StockQty < 0 {
		errs["stock_qty"] = "stock must not be negative"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ===== Public reads =====

// GET /menu?category=&q=
//
// The orderable menu always applies the availability filter; only the
// admin listing below bypasses it.
func (h *MenuHandler) ListAvailable(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))

	tx := database.DB.Model(&models.MenuItem{}).Where("available = true")
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	if q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	var items []models.MenuItem
	if err := tx.Order("category, name").Find(&items).Error; err != nil {
		c.Logger().Errorf("menu list: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, items)
}

// GET /menu/:id
func (h *MenuHandler) Get(c echo.Context) error {
	var item models.MenuItem
	if err := database.DB.First(&item, "item_id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, item)
}

// ===== Admin CRUD =====

// GET /admin/menu?page=&size= — no availability filter
func (h *MenuHandler) ListAll(c echo.Context) error {
	page := atoiOr(c.QueryParam("page"), 1)
	size := atoiOr(c.QueryParam("size"), 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	tx := database.DB.Model(&models.MenuItem{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_COUNT_FAILED"})
	}
	var items []models.MenuItem
	if err := tx.Order("item_id DESC").Limit(size).Offset((page - 1) * size).Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  items,
		"page":  page,
		"size":  size,
		"total": total,
	})
}

// POST /admin/menu
func (h *MenuHandler) Create(c echo.Context) error {
	var p menuItemPayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	p.normalize()
	if errs := p.validate(); errs != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": errs})
	}

	available := true
	if p.Available != nil {
		available = *p.Available
	}
	item := models.MenuItem{
		Name: p.Name, Description: p.Description, Price: p.Price,
		Category: p.Category, Available: available,
		ImageURL: p.ImageURL, StockQty: p.StockQty,
	}
	if err := database.DB.Create(&item).Error; err != nil {
		c.Logger().Errorf("menu create: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, item)
}

// PUT /admin/menu/:id
func (h *MenuHandler) Update(c echo.Context) error {
	var item models.MenuItem
	if err := database.DB.First(&item, "item_id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	var p menuItemPayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	p.normalize()
	if errs := p.validate(); errs != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": errs})
	}

	item.Name = p.Name
	item.Description = p.Description
	item.Price = p.Price
	item.Category = p.Category
	item.ImageURL = p.ImageURL
	item.StockQty = p.StockQty
	if p.Available != nil {
		item.Available = *p.Available
	}
	if err := database.DB.Save(&item).Error; err != nil {
		c.Logger().Errorf("menu update: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_UPDATE_FAILED"})
	}
	return c.JSON(http.StatusOK, item)
}

// PATCH /admin/menu/:id/availability — toggled independently of edits
func (h *MenuHandler) SetAvailability(c echo.Context) error {
	var body struct {
		Available bool `json:"available"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	res := database.DB.Model(&models.MenuItem{}).
		Where("item_id = ?", c.Param("id")).
		Update("available", body.Available)
	if res.Error != nil {
		c.Logger().Errorf("menu availability: %v", res.Error)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_UPDATE_FAILED"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// DELETE /admin/menu/:id
func (h *MenuHandler) Delete(c echo.Context) error {
	res := database.DB.Delete(&models.MenuItem{}, "item_id = ?", c.Param("id"))
	switch deleteStatus(res) {
	case http.StatusInternalServerError:
		c.Logger().Errorf("menu delete: %v", res.Error)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_DELETE_FAILED"})
	case http.StatusNotFound:
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	default:
		return c.NoContent(http.StatusNoContent)
	}
}

// deleteStatus maps a delete result to a response code; zero affected
// rows means the id never existed.
func deleteStatus(res *gorm.DB) int {
	switch {
	case res.Error != nil:
		return http.StatusInternalServerError
	case res.RowsAffected == 0:
		return http.StatusNotFound
	default:
		return http.StatusNoContent
	}
}

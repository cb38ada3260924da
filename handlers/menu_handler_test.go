package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDeleteStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusInternalServerError,
		deleteStatus(&gorm.DB{Error: fmt.Errorf("connection reset")}))
	// zero affected rows: the id never existed
	assert.Equal(t, http.StatusNotFound, deleteStatus(&gorm.DB{RowsAffected: 0}))
	assert.Equal(t, http.StatusNoContent, deleteStatus(&gorm.DB{RowsAffected: 1}))
}

func TestMenuItemPayload_Validate(t *testing.T) {
	t.Parallel()

	good := menuItemPayload{
		Name:     "  Koshari   Plate ",
		Price:    30.00,
		Category: " Main  Dishes ",
		StockQty: 10,
	}
	good.normalize()
	assert.Equal(t, "Koshari Plate", good.Name)
	assert.Equal(t, "Main Dishes", good.Category)
	assert.Nil(t, good.validate())

	cases := []struct {
		name  string
		p     menuItemPayload
		field string
	}{
		{"zero price", menuItemPayload{Name: "Tea", Price: 0, Category: "Drinks"}, "price"},
		{"negative price", menuItemPayload{Name: "Tea", Price: -1, Category: "Drinks"}, "price"},
		{"empty name", menuItemPayload{Price: 5, Category: "Drinks"}, "name"},
		{"empty category", menuItemPayload{Name: "Tea", Price: 5}, "category"},
		{"negative stock", menuItemPayload{Name: "Tea", Price: 5, Category: "Drinks", StockQty: -1}, "stock_qty"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.p.normalize()
			errs := tc.p.validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

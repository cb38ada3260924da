package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bermelken20/university-canteen-sub001/models"
)

func TestBuildExportOrders(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	orders := []models.Order{
		{
			OrderID:      7,
			UserID:       "PROF-042917",
			Total:        160.00,
			Status:       models.StatusPending,
			ItemsSummary: "2× Grilled Chicken, 1× Lentil Soup",
			CreatedAt:    created,
		},
		{
			OrderID:   8,
			UserID:    "ASST-000002", // no matching user row
			Total:     40.00,
			Status:    models.StatusCompleted,
			CreatedAt: created.Add(time.Hour),
		},
	}
	users := map[string]models.User{
		"PROF-042917": {UserID: "PROF-042917", Name: "Ahmed Hassan", College: "Engineering"},
	}

	out := buildExportOrders(orders, users)
	require.Len(t, out, 2)

	assert.Equal(t, uint(7), out[0].ID)
	assert.Equal(t, "Ahmed Hassan", out[0].Professor.Name)
	assert.Equal(t, "Engineering", out[0].Professor.Department)
	assert.Equal(t, "PROF-042917", out[0].Professor.ID)
	assert.Equal(t, "2× Grilled Chicken, 1× Lentil Soup", out[0].Items)
	assert.Equal(t, 160.00, out[0].Total)
	assert.Equal(t, "pending", out[0].Status)
	assert.Equal(t, "2026-03-01T12:30:00Z", out[0].Date)

	// unknown user keeps the id but no name/department
	assert.Equal(t, "ASST-000002", out[1].Professor.ID)
	assert.Empty(t, out[1].Professor.Name)
	assert.Empty(t, out[1].Professor.Department)
}

func TestBuildExportOrders_Empty(t *testing.T) {
	t.Parallel()

	out := buildExportOrders(nil, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

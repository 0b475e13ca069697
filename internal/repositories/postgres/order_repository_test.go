package postgres

import (
	"testing"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPatchQuery(t *testing.T) {
	delivered := models.OrderStatusDelivered
	lat, lng := 12.5, 77.25

	tests := []struct {
		name      string
		patch     models.OrderPatch
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "location",
			patch:     models.OrderPatch{Latitude: &lat, Longitude: &lng},
			wantQuery: "UPDATE orders SET latitude = $1, longitude = $2 WHERE id = $3",
			wantArgs:  []interface{}{12.5, 77.25, "o-1"},
		},
		{
			name:      "status",
			patch:     models.OrderPatch{Status: &delivered},
			wantQuery: "UPDATE orders SET status = $1 WHERE id = $2",
			wantArgs:  []interface{}{"DELIVERED", "o-1"},
		},
		{
			name:      "all fields",
			patch:     models.OrderPatch{Latitude: &lat, Longitude: &lng, Status: &delivered},
			wantQuery: "UPDATE orders SET latitude = $1, longitude = $2, status = $3 WHERE id = $4",
			wantArgs:  []interface{}{12.5, 77.25, "DELIVERED", "o-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildPatchQuery("o-1", tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildPatchQuery_Empty(t *testing.T) {
	_, _, err := buildPatchQuery("o-1", models.OrderPatch{})
	assert.Error(t, err)
}

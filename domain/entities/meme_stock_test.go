package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemeStock_AppendPricePrunesWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	stock := &MemeStock{
		CurrentValue: 40,
		History: []PricePoint{
			{At: now.Add(-8 * 24 * time.Hour), Value: 10},
			{At: now.Add(-7 * 24 * time.Hour), Value: 20},
			{At: now.Add(-time.Hour), Value: 40},
		},
	}

	stock.AppendPrice(55, now, 7*24*time.Hour)

	assert.Equal(t, int64(55), stock.CurrentValue)
	assert.Len(t, stock.History, 3)
	assert.Equal(t, int64(20), stock.History[0].Value)
	assert.Equal(t, int64(55), stock.History[2].Value)
}

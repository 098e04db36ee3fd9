package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotGrid(t *testing.T) {
	grid := SlotGrid()

	assert.Len(t, grid, 28)
	assert.Equal(t, "09:00", grid[0])
	assert.Equal(t, "09:30", grid[1])
	assert.Equal(t, "22:30", grid[len(grid)-1])
}

func TestValidSlot(t *testing.T) {
	assert.True(t, ValidSlot("09:00"))
	assert.True(t, ValidSlot("14:30"))
	assert.True(t, ValidSlot("22:30"))

	assert.False(t, ValidSlot("08:30"))
	assert.False(t, ValidSlot("23:00"))
	assert.False(t, ValidSlot("14:15"))
	assert.False(t, ValidSlot("9:00")) // labels are zero-padded
	assert.False(t, ValidSlot(""))
}

func TestAvailability(t *testing.T) {
	out := Availability([]string{"10:00", "14:30"})

	assert.Len(t, out, 28)
	byTime := make(map[string]bool, len(out))
	for _, s := range out {
		byTime[s.Time] = s.Available
	}
	assert.False(t, byTime["10:00"])
	assert.False(t, byTime["14:30"])
	assert.True(t, byTime["09:00"])
	assert.True(t, byTime["10:30"])
	assert.True(t, byTime["22:30"])
}

func TestAvailabilityEmpty(t *testing.T) {
	out := Availability(nil)

	for _, s := range out {
		assert.True(t, s.Available, s.Time)
	}
}

func TestAvailabilityUnknownLabelIgnored(t *testing.T) {
	// A stored time outside the grid must not disturb the grid itself.
	out := Availability([]string{"03:15"})

	for _, s := range out {
		assert.True(t, s.Available, s.Time)
	}
}

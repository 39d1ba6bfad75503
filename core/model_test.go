package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChan(t *testing.T) {
	assert.Equal(t, "guests", Chan("guests", ""))
	assert.Equal(t, "guests?household_id=eq.h0", Chan("guests", "household_id=eq.h0"))
	assert.Equal(t, "notifications?user_id=eq.u0", Chan("notifications", "user_id=eq.u0"))

	// identical descriptors collapse to the same channel
	assert.Equal(t, Chan("guests", "household_id=eq.h0"), Chan("guests", "household_id=eq.h0"))
}

func TestNewPage(t *testing.T) {
	page := NewPage([]string{"a", "b"}, 25, 1, 10)
	assert.Equal(t, int64(25), page.Count)
	assert.Equal(t, 3, page.TotalPages)

	page = NewPage([]string{}, 30, 2, 10)
	assert.Equal(t, 3, page.TotalPages)

	page = NewPage([]string{}, 0, 1, 10)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Items)

	page = NewPage[string](nil, 1, 1, 10)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
}

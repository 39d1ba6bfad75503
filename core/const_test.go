package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionGuestStatus(t *testing.T) {
	allowed := [][2]string{
		{GuestStatusPending, GuestStatusApproved},
		{GuestStatusPending, GuestStatusDenied},
		{GuestStatusApproved, GuestStatusAtGate},
		{GuestStatusApproved, GuestStatusCompleted},
		{GuestStatusApproved, GuestStatusDenied},
		{GuestStatusAtGate, GuestStatusCompleted},
		{GuestStatusAtGate, GuestStatusDenied},
		{GuestStatusDenied, GuestStatusPending},
	}
	for _, pair := range allowed {
		assert.True(t, CanTransitionGuestStatus(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]string{
		{GuestStatusPending, GuestStatusAtGate},
		{GuestStatusPending, GuestStatusCompleted},
		{GuestStatusCompleted, GuestStatusPending},
		{GuestStatusCompleted, GuestStatusApproved},
		{GuestStatusDenied, GuestStatusApproved},
		{GuestStatusApproved, GuestStatusPending},
		{"bogus", GuestStatusPending},
	}
	for _, pair := range denied {
		assert.False(t, CanTransitionGuestStatus(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestGuestEditable(t *testing.T) {
	assert.True(t, GuestEditable(GuestStatusPending))
	assert.False(t, GuestEditable(GuestStatusApproved))
	assert.False(t, GuestEditable(GuestStatusCompleted))
}

func TestGuestDeletable(t *testing.T) {
	assert.True(t, GuestDeletable(GuestStatusPending))
	assert.True(t, GuestDeletable(GuestStatusDenied))
	assert.False(t, GuestDeletable(GuestStatusApproved))
	assert.False(t, GuestDeletable(GuestStatusAtGate))
}

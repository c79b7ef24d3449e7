package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestConflictReasonsMatchSentinel(t *testing.T) {
	for _, err := range []error{ErrMultipleCarts, ErrCartClosed, ErrEmptyCart, ErrCartRace} {
		assert.ErrorIs(t, err, ErrConflictState)
		assert.NotErrorIs(t, err, ErrNotFound)
	}
}

func TestInventoryExhaustedError(t *testing.T) {
	err := fmt.Errorf("checkout: %w", &InventoryExhaustedError{TierID: "t1", Requested: 3})
	assert.ErrorIs(t, err, ErrInventoryExhausted)

	var ie *InventoryExhaustedError
	if assert.True(t, errors.As(err, &ie)) {
		assert.Equal(t, "t1", ie.TierID)
		assert.Equal(t, 3, ie.Requested)
	}
	assert.Contains(t, err.Error(), "tier t1")
}

func TestCartInsertErr(t *testing.T) {
	assert.ErrorIs(t, cartInsertErr(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}), ErrCartRace)
	assert.ErrorIs(t, cartInsertErr(&mysql.MySQLError{Number: 1062}), ErrConflictState)
	other := &mysql.MySQLError{Number: 1146}
	assert.Same(t, other, cartInsertErr(other))
}

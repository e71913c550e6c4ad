package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
)

func admins(names ...string) []id.AdministrationID {
	out := make([]id.AdministrationID, len(names))
	for i, n := range names {
		out[i] = id.AdministrationID(n)
	}
	return out
}

func TestNewRoute(t *testing.T) {
	t.Run("closure appends the origin", func(t *testing.T) {
		r, err := NewRoute("permit", "Building permit", admins("A", "B"), true)
		require.NoError(t, err)
		assert.Equal(t, admins("A", "B", "A"), r.Stations())
		assert.Equal(t, admins("A", "B"), r.Departments())
		assert.True(t, r.HasClosure())
		assert.Equal(t, id.AdministrationID("A"), r.Origin())
	})

	t.Run("single station without closure", func(t *testing.T) {
		r, err := NewRoute("permit", "", admins("A"), false)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Len())
		assert.False(t, r.HasClosure())
	})

	t.Run("single station with closure has two entries", func(t *testing.T) {
		r, err := NewRoute("permit", "", admins("A"), true)
		require.NoError(t, err)
		assert.Equal(t, admins("A", "A"), r.Stations())
		assert.True(t, r.HasClosure())
	})

	t.Run("rejects empty route", func(t *testing.T) {
		_, err := NewRoute("permit", "", nil, false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects duplicate departments", func(t *testing.T) {
		_, err := NewRoute("permit", "", admins("A", "B", "B"), false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects missing file type", func(t *testing.T) {
		_, err := NewRoute("", "", admins("A"), false)
		assert.Error(t, err)
	})
}

func TestFromStations(t *testing.T) {
	r, err := FromStations("permit", "Permit", admins("A", "B", "C", "A"))
	require.NoError(t, err)
	assert.True(t, r.HasClosure())
	assert.Equal(t, 4, r.Len())

	_, err = FromStations("permit", "Permit", admins("A", "B", "A", "C"))
	assert.Error(t, err, "origin repeated mid-route is not a closure")

	_, err = FromStations("permit", "Permit", nil)
	assert.Error(t, err)
}

func TestPosition(t *testing.T) {
	r, err := NewRoute("permit", "", admins("A", "B", "C"), true)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Position("A", "B"), "origin with a next hop is at the start")
	assert.Equal(t, 3, r.Position("A", ""), "origin with no next hop is at the closure")
	assert.Equal(t, 1, r.Position("B", "C"))
	assert.Equal(t, 2, r.Position("C", "A"))
	assert.Equal(t, -1, r.Position("Z", "A"))

	assert.Equal(t, id.AdministrationID("B"), r.NextAfter(0))
	assert.Equal(t, id.AdministrationID(""), r.NextAfter(3))
}

func TestStationsReturnsCopy(t *testing.T) {
	r, err := NewRoute("permit", "", admins("A", "B"), false)
	require.NoError(t, err)
	s := r.Stations()
	s[0] = "Z"
	assert.Equal(t, id.AdministrationID("A"), r.At(0))
}

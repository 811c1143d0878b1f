package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-booking-client/internal/api/mocks"
)

func TestManager_OpenStartsFreshWorkflow(t *testing.T) {
	svc := new(mocks.MockService)
	m := NewManager(svc, testLogger())

	svc.On("GetFlight", mock.Anything, int64(1)).Return(testFlight(), nil).Twice()
	svc.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Twice()

	first, err := m.Open(context.Background(), "browser-a", 1)
	require.NoError(t, err)
	require.NoError(t, first.ToggleSeat("01"))

	// Reopening revalidates and drops the previous selection.
	second, err := m.Open(context.Background(), "browser-a", 1)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Empty(t, second.Selected())

	got, ok := m.Get("browser-a", 1)
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestManager_OpenFailureRegistersNothing(t *testing.T) {
	svc := new(mocks.MockService)
	m := NewManager(svc, testLogger())

	svc.On("GetFlight", mock.Anything, int64(1)).Return(nil, assert.AnError).Once()
	svc.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Maybe()

	_, err := m.Open(context.Background(), "browser-a", 1)
	require.Error(t, err)

	_, ok := m.Get("browser-a", 1)
	assert.False(t, ok)
}

func TestManager_ScopesByBrowserAndFlight(t *testing.T) {
	svc := new(mocks.MockService)
	m := NewManager(svc, testLogger())

	svc.On("GetFlight", mock.Anything, int64(1)).Return(testFlight(), nil)
	svc.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil)

	a, err := m.Open(context.Background(), "browser-a", 1)
	require.NoError(t, err)
	b, err := m.Open(context.Background(), "browser-b", 1)
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	_, ok := m.Get("browser-a", 2)
	assert.False(t, ok)
}

func TestManager_Drop(t *testing.T) {
	svc := new(mocks.MockService)
	m := NewManager(svc, testLogger())

	svc.On("GetFlight", mock.Anything, int64(1)).Return(testFlight(), nil).Once()
	svc.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Once()

	_, err := m.Open(context.Background(), "browser-a", 1)
	require.NoError(t, err)

	m.Drop("browser-a", 1)
	_, ok := m.Get("browser-a", 1)
	assert.False(t, ok)
}

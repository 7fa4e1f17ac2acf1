package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelay = errors.New("relay down")

func falla() error { return errRelay }
func ok() error    { return nil }

func TestCircuitBreaker_AbreTrasFallosConsecutivos(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Hour,
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(falla), errRelay)
	}
	assert.Equal(t, "open", cb.State())

	// Mientras está abierto, la función ni se invoca.
	llamado := false
	err := cb.Execute(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, llamado)
}

func TestCircuitBreaker_ExitoResetaElConteo(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Hour,
	})

	require.Error(t, cb.Execute(falla))
	require.Error(t, cb.Execute(falla))
	require.NoError(t, cb.Execute(ok))
	require.Error(t, cb.Execute(falla))
	require.Error(t, cb.Execute(falla))

	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreaker_SondeoYCierre(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(falla))
	require.Error(t, cb.Execute(falla))
	require.Equal(t, "open", cb.State())

	time.Sleep(15 * time.Millisecond)
	require.Equal(t, "half-open", cb.State())

	// Dos sondeos exitosos cierran el circuito.
	require.NoError(t, cb.Execute(ok))
	require.Equal(t, "half-open", cb.State())
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreaker_SondeoFallidoReabre(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(falla))
	require.Error(t, cb.Execute(falla))
	time.Sleep(15 * time.Millisecond)

	require.ErrorIs(t, cb.Execute(falla), errRelay)
	assert.Equal(t, "open", cb.State(), "el sondeo fallido reinicia el cool-down")
}

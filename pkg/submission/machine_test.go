package submission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	var transitions []string
	m := New(WithHook(func(from, to State) {
		transitions = append(transitions, string(from)+"->"+string(to))
	}))

	require.NoError(t, m.Begin())
	assert.True(t, m.IsSubmitting())
	ok, err := m.Validated(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Succeed())

	assert.Equal(t, Success, m.State())
	assert.False(t, m.IsSubmitting())
	assert.Equal(t, []string{"idle->validating", "validating->submitting", "submitting->success"}, transitions)
}

func TestMachine_ValidationFailureReturnsToIdle(t *testing.T) {
	m := New()
	require.NoError(t, m.Begin())

	errs := map[string]string{"phone": "phone is invalid"}
	ok, err := m.Validated(errs)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, errs, m.FieldErrors())

	errs["phone"] = "mutated"
	assert.Equal(t, "phone is invalid", m.FieldErrors()["phone"])

	require.NoError(t, m.Begin())
	assert.Empty(t, m.FieldErrors(), "a new attempt clears old field errors")
}

func TestMachine_InFlightGuard(t *testing.T) {
	m := New()
	require.NoError(t, m.Begin())
	assert.ErrorIs(t, m.Begin(), ErrInFlight)

	_, err := m.Validated(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Begin(), ErrInFlight)
}

func TestMachine_FailKeepsMessageAndAllowsRetry(t *testing.T) {
	m := New()
	require.NoError(t, m.Begin())
	_, _ = m.Validated(nil)
	require.NoError(t, m.Fail(""))

	assert.Equal(t, Error, m.State())
	assert.Equal(t, FallbackMessage, m.Message())

	require.NoError(t, m.Begin(), "error state must allow another attempt")
	_, _ = m.Validated(nil)
	require.NoError(t, m.Fail("Sự kiện đã đủ người đăng ký"))
	assert.Equal(t, "Sự kiện đã đủ người đăng ký", m.Message())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Succeed(), ErrInvalidTransition)
	assert.ErrorIs(t, m.Fail("x"), ErrInvalidTransition)
	_, err := m.Validated(nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_Reset(t *testing.T) {
	m := New()
	require.NoError(t, m.Begin())
	m.Reset()
	assert.Equal(t, Idle, m.State())
	assert.Empty(t, m.Message())
}

func TestMachine_Run(t *testing.T) {
	m := New()
	calls := 0
	err := m.Run(context.Background(),
		func() map[string]string { return nil },
		func(context.Context) error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Success, m.State())

	err = m.Run(context.Background(),
		func() map[string]string { return map[string]string{"email": "email is required"} },
		func(context.Context) error { calls++; return nil })
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, calls, "submit must not run when validation fails")

	boom := errors.New("server unavailable")
	err = m.Run(context.Background(),
		func() map[string]string { return nil },
		func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "server unavailable", m.Message())
	assert.Equal(t, 1, calls)
}

func TestMachine_RunCancelled(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx, func() map[string]string { return nil }, func(context.Context) error {
		t.Fatal("submit must not run with a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Error, m.State())
}

func TestMachine_ConcurrentBegin(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Begin() == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}

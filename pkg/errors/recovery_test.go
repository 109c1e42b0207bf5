package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Woe.Fit")
		panic("engine exploded")
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, As(err, &panicErr))
	assert.Equal(t, "Woe.Fit", panicErr.Operation)
	assert.Equal(t, "engine exploded", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in Woe.Fit: engine exploded", panicErr.Error())
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Woe.Fit")
		return nil
	}

	assert.NoError(t, testFunc())
}

func TestRecover_WrapsExistingError(t *testing.T) {
	base := fmt.Errorf("bin failed")
	testFunc := func() (err error) {
		defer Recover(&err, "Woe.Fit")
		err = base
		panic("after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after error")
	assert.True(t, Is(err, base))
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("autobin", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	require.Error(t, err)

	var panicErr *PanicError
	assert.True(t, As(err, &panicErr))

	assert.NoError(t, SafeExecute("autobin", func() error { return nil }))
}

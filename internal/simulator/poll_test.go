package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitUntilImmediate(t *testing.T) {
	start := time.Now()
	ok := WaitUntil(50*time.Millisecond, time.Second, func() bool { return true })

	assert.True(t, ok)
	// An already-satisfied predicate must not wait out the interval.
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitUntilEventuallySatisfied(t *testing.T) {
	calls := 0
	ok := WaitUntil(5*time.Millisecond, time.Second, func() bool {
		calls++
		return calls >= 3
	})

	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestWaitUntilTimeout(t *testing.T) {
	start := time.Now()
	ok := WaitUntil(5*time.Millisecond, 30*time.Millisecond, func() bool { return false })

	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

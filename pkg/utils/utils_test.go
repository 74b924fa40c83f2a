package utils

import (
	"context"
	"testing"
	"time"

	"montecarlo-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 66.7, Round(200.0/3, 1))
	assert.Equal(t, 1.33, Round(4.0/3, 2))
	assert.Equal(t, 2.5, Round(2.45, 1))
	assert.Equal(t, -2.5, Round(-2.45, 1))
	assert.Equal(t, 100.0, Round(100, 2))
}

func TestShouldContinue(t *testing.T) {
	log := logger.NewNop()
	assert.True(t, ShouldContinue(context.Background(), log))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, ShouldContinue(ctx, log))
}

func TestGoSafe_RecoversPanic(t *testing.T) {
	done := make(chan struct{})
	GoSafe(logger.NewNop(), func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine did not run")
	}
}

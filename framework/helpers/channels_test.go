package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTryReceive(t *testing.T) {
	ch := make(chan string, 1)
	_, ok := TryReceive(ch, time.Millisecond)
	assert.False(t, ok)

	go func() {
		time.Sleep(time.Millisecond * 20)
		ch <- "point-1"
	}()
	value, ok := TryReceive(ch, time.Second)
	assert.True(t, ok)
	assert.Equal(t, "point-1", value)
}

func TestReceiveWithContext(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 50
	value, err := ReceiveWithContext(context.Background(), ch)
	assert.NoError(t, err)
	assert.Equal(t, 50, value)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
	defer cancel()
	_, err = ReceiveWithContext(ctx, ch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequireValueWithMessage(t *testing.T) {
	ch := make(chan string, 1)
	ch <- "list-1"
	var r recorder
	assert.False(t, r.run(func() {
		assert.Equal(t, "list-1", RequireValueWithMessage(&r, ch, time.Millisecond, "no list"))
	}))

	assert.True(t, r.run(func() {
		RequireValueWithMessage(&r, ch, time.Millisecond, "no %s", "list")
	}))
	assert.Equal(t, []string{"no list"}, r.errors)
}

func TestRequireNoMoreValuesWithMessage(t *testing.T) {
	ch := make(chan string, 1)
	var r recorder
	assert.False(t, r.run(func() {
		RequireNoMoreValuesWithMessage(&r, ch, time.Millisecond, "unexpected")
	}))

	ch <- "late"
	assert.True(t, r.run(func() {
		RequireNoMoreValuesWithMessage(&r, ch, time.Millisecond, "unexpected %s", "value")
	}))
	assert.Equal(t, []string{"unexpected value (received late)"}, r.errors)
}

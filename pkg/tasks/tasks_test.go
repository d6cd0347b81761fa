package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGo_DeliversValue(t *testing.T) {
	ch := Go(func() (int, error) {
		return 42, nil
	})

	res := <-ch
	assert.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)

	// Channel is closed after the single result.
	_, open := <-ch
	assert.False(t, open)
}

func TestGo_DeliversError(t *testing.T) {
	wantErr := errors.New("boom")
	ch := Go(func() (string, error) {
		return "", wantErr
	})

	res := <-ch
	assert.ErrorIs(t, res.Err, wantErr)
}

func TestAwait_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	ch := Go(func() (int, error) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	<-started
	cancel()

	_, err := Await(ctx, ch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwait_Completes(t *testing.T) {
	ch := Go(func() (int, error) {
		return 7, nil
	})

	v, err := Await(context.Background(), ch)
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
}

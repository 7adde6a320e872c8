package poller_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/pkg/poller"
)

type updates struct {
	mu   sync.Mutex
	list []poller.Update
}

func (u *updates) add(up poller.Update) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.list = append(u.list, up)
}

func (u *updates) messages() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.list))
	for _, up := range u.list {
		out = append(out, up.Message)
	}
	return out
}

func await(t *testing.T, ch <-chan poller.Result) poller.Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not finish")
		return poller.Result{}
	}
}

func TestPollerStopsWhenDone(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	check := func(context.Context) (poller.Update, error) {
		if calls.Add(1) == 3 {
			return poller.Update{Done: true, Message: "done", Value: "cert-1"}, nil
		}
		return poller.Update{Message: "in progress"}, nil
	}

	var got updates
	p := poller.New(poller.WithInterval(time.Millisecond))
	res := await(t, p.Start(context.Background(), check, got.add))

	require.NoError(t, res.Err)
	assert.True(t, res.Update.Done)
	assert.Equal(t, "cert-1", res.Update.Value)
	assert.Equal(t, 3, res.Polls)
	// The repeated progress message is reported once.
	assert.Equal(t, []string{"in progress", "done"}, got.messages())
}

func TestPollerReportsFailure(t *testing.T) {
	t.Parallel()

	check := func(context.Context) (poller.Update, error) {
		return poller.Update{Failed: true, Message: "Error: boom", Details: []string{"hint"}}, nil
	}

	p := poller.New(poller.WithInterval(time.Millisecond))
	res := await(t, p.Start(context.Background(), check, nil))

	require.NoError(t, res.Err)
	assert.True(t, res.Update.Failed)
	assert.Equal(t, []string{"hint"}, res.Update.Details)
	assert.Equal(t, 1, res.Polls)
}

func TestPollerStopsAfterConsecutiveErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	var calls atomic.Int32
	check := func(context.Context) (poller.Update, error) {
		calls.Add(1)
		return poller.Update{}, errBoom
	}

	p := poller.New(poller.WithInterval(time.Millisecond), poller.WithMaxErrors(3))
	res := await(t, p.Start(context.Background(), check, nil))

	require.ErrorIs(t, res.Err, errBoom)
	assert.True(t, res.Update.Failed)
	assert.Equal(t, poller.ErrorsExhaustedMessage, res.Update.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPollerErrorCountResetsOnSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	check := func(context.Context) (poller.Update, error) {
		n := calls.Add(1)
		switch {
		case n == 6:
			return poller.Update{Done: true}, nil
		case n%2 == 1:
			return poller.Update{}, errors.New("flaky")
		default:
			return poller.Update{Message: "waiting"}, nil
		}
	}

	p := poller.New(poller.WithInterval(time.Millisecond), poller.WithMaxErrors(2))
	res := await(t, p.Start(context.Background(), check, nil))

	require.NoError(t, res.Err)
	assert.True(t, res.Update.Done)
	assert.Equal(t, 6, res.Polls)
}

func TestPollerBudgetExhausted(t *testing.T) {
	t.Parallel()

	check := func(context.Context) (poller.Update, error) {
		return poller.Update{Message: "still pending"}, nil
	}

	var got updates
	p := poller.New(poller.WithInterval(time.Millisecond), poller.WithMaxPolls(4))
	res := await(t, p.Start(context.Background(), check, got.add))

	require.ErrorIs(t, res.Err, poller.ErrBudgetExhausted)
	assert.Equal(t, 4, res.Polls)
	assert.True(t, res.Update.Failed)
	assert.Equal(t, []string{"still pending", poller.BudgetExhaustedMessage}, got.messages())
}

func TestPollerStartCancelsPreviousRun(t *testing.T) {
	t.Parallel()

	slow := func(context.Context) (poller.Update, error) {
		return poller.Update{Message: "slow"}, nil
	}
	p := poller.New(poller.WithInterval(time.Hour))
	first := p.Start(context.Background(), slow, nil)

	fast := func(context.Context) (poller.Update, error) {
		return poller.Update{Done: true}, nil
	}
	second := p.Start(context.Background(), fast, nil)

	res := await(t, first)
	assert.ErrorIs(t, res.Err, context.Canceled)

	res = await(t, second)
	require.NoError(t, res.Err)
	assert.True(t, res.Update.Done)
}

func TestPollerStop(t *testing.T) {
	t.Parallel()

	check := func(context.Context) (poller.Update, error) {
		return poller.Update{Message: "pending"}, nil
	}
	p := poller.New(poller.WithInterval(time.Hour))
	ch := p.Start(context.Background(), check, nil)

	assert.Eventually(t, p.Running, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()
	assert.False(t, p.Running())

	res := await(t, ch)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestPollerParentContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	check := func(context.Context) (poller.Update, error) {
		return poller.Update{Message: "pending"}, nil
	}
	p := poller.New(poller.WithInterval(time.Hour))
	ch := p.Start(ctx, check, nil)
	cancel()

	res := await(t, ch)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trace struct {
	order []string
}

func pass(name string) Gate[*trace] {
	return GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		tr.order = append(tr.order, name)
		return next(ctx)
	})
}

func stop(name string) Gate[*trace] {
	return GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		tr.order = append(tr.order, name)
		return nil
	})
}

func TestRun_Completes(t *testing.T) {
	tr := &trace{}
	done, err := Run(context.Background(), tr, pass("a"), pass("b"), pass("c"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"a", "b", "c"}, tr.order)
}

func TestRun_NoGates(t *testing.T) {
	done, err := Run[*trace](context.Background(), &trace{})
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRun_ShortCircuits(t *testing.T) {
	tr := &trace{}
	done, err := Run(context.Background(), tr, pass("a"), stop("b"), pass("c"))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []string{"a", "b"}, tr.order)
}

func TestRun_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	failing := GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		return boom
	})

	tr := &trace{}
	done, err := Run(context.Background(), tr, pass("a"), failing, pass("c"))
	assert.ErrorIs(t, err, boom)
	assert.False(t, done)
	assert.Equal(t, []string{"a"}, tr.order)
}

func TestRun_DownstreamErrorSurfacesThroughNext(t *testing.T) {
	boom := errors.New("boom")
	var seen error
	wrapper := GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		seen = next(ctx)
		return seen
	})
	failing := GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error { return boom })

	_, err := Run(context.Background(), &trace{}, wrapper, failing)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, seen, boom)
}

func TestRun_NextTwicePanics(t *testing.T) {
	twice := GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		_ = next(ctx)
		return next(ctx)
	})

	tr := &trace{}
	assert.Panics(t, func() {
		_, _ = Run(context.Background(), tr, twice, pass("b"))
	})
	assert.Equal(t, []string{"b"}, tr.order, "downstream gate must run only once")
}

func TestRun_PassesContextThrough(t *testing.T) {
	type key struct{}
	inject := GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		return next(context.WithValue(ctx, key{}, "v"))
	})
	var got any
	read := GateFunc[*trace](func(ctx context.Context, tr *trace, next Next) error {
		got = ctx.Value(key{})
		return next(ctx)
	})

	_, err := Run(context.Background(), &trace{}, inject, read)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

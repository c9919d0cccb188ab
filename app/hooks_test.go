// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockRuntime struct {
	runCalled bool
	runErr    error
	runFunc   func(context.Context) error
}

func (m *mockRuntime) Run(ctx context.Context) error {
	m.runCalled = true
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return m.runErr
}

func TestWithHooks_hooksRunInOrderAfterRuntime(t *testing.T) {
	var order []string
	mock := &mockRuntime{
		runFunc: func(ctx context.Context) error {
			order = append(order, "runtime")
			return nil
		},
	}

	builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
		h.OnPostRun(func(ctx context.Context) error {
			order = append(order, "flush")
			return nil
		})
		h.OnPostRun(func(ctx context.Context) error {
			order = append(order, "close")
			return nil
		})
		return mock, nil
	})

	rt, err := builder.Build(context.Background())
	require.NoError(t, err)

	err = rt.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"runtime", "flush", "close"}, order)
}

func TestWithHooks_collectsAllErrors(t *testing.T) {
	runtimeErr := errors.New("runtime error")
	hook1Err := errors.New("hook 1 error")
	hook2Err := errors.New("hook 2 error")

	var called []int
	builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
		h.OnPostRun(func(ctx context.Context) error {
			called = append(called, 1)
			return hook1Err
		})
		h.OnPostRun(func(ctx context.Context) error {
			called = append(called, 2)
			return nil
		})
		h.OnPostRun(func(ctx context.Context) error {
			called = append(called, 3)
			return hook2Err
		})
		return &mockRuntime{runErr: runtimeErr}, nil
	})

	rt, err := builder.Build(context.Background())
	require.NoError(t, err)

	err = rt.Run(context.Background())
	require.ErrorIs(t, err, runtimeErr)
	require.ErrorIs(t, err, hook1Err)
	require.ErrorIs(t, err, hook2Err)
	require.Equal(t, []int{1, 2, 3}, called)
}

func TestWithHooks_hooksReceiveUncancelledContext(t *testing.T) {
	type ctxKey string
	key := ctxKey("request")

	var hookCtx context.Context
	builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
		h.OnPostRun(func(ctx context.Context) error {
			hookCtx = ctx
			return nil
		})
		return &mockRuntime{}, nil
	})

	rt, err := builder.Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key, "value"))
	cancel()

	err = rt.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, hookCtx)
	require.NoError(t, hookCtx.Err())
	require.Equal(t, "value", hookCtx.Value(key))
}

func TestWithHooks_builderErrorRunsRegisteredHooks(t *testing.T) {
	buildErr := errors.New("build error")

	closed := false
	builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
		h.OnPostRun(func(ctx context.Context) error {
			closed = true
			return nil
		})
		return nil, buildErr
	})

	_, err := builder.Build(context.Background())
	require.ErrorIs(t, err, buildErr)
	require.True(t, closed)
}

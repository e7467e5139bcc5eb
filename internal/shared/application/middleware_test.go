package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type echoReq struct {
	Text string `validate:"required"`
}

func TestChain_Order(t *testing.T) {
	var trace []string
	mark := func(tag string) Middleware[string, string] {
		return func(name string, next Handler[string, string]) Handler[string, string] {
			return func(ctx context.Context, req string) (string, error) {
				trace = append(trace, tag+">")
				res, err := next(ctx, req)
				trace = append(trace, "<"+tag)
				return res, err
			}
		}
	}
	core := func(ctx context.Context, req string) (string, error) {
		trace = append(trace, "core")
		return req + "!", nil
	}

	h := Chain[string, string]("echo", core, mark("a"), mark("b"))
	out, err := h(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
	assert.Equal(t, []string{"a>", "b>", "core", "<b", "<a"}, trace)
}

func TestWithPerformance_WarnsOnSlowRequest(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	slow := func(ctx context.Context, req int) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return req, nil
	}
	h := Chain[int, int]("slow", slow, WithPerformance[int, int](log, 10*time.Millisecond))

	_, err := h(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "slow", logs.All()[0].ContextMap()["request"])

	fast := Chain[int, int]("fast", func(ctx context.Context, req int) (int, error) { return req, nil },
		WithPerformance[int, int](log, time.Second))
	_, _ = fast(context.Background(), 1)
	assert.Equal(t, 1, logs.Len())
}

func TestWithValidation(t *testing.T) {
	called := false
	core := func(ctx context.Context, req echoReq) (string, error) {
		called = true
		return req.Text, nil
	}
	h := Standard[echoReq, string]("echo", core, zap.NewNop(), validator.New())

	_, err := h(context.Background(), echoReq{})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.False(t, called)

	out, err := h(context.Background(), echoReq{Text: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/platinummonkey/mockapi/pkg/contextkeys"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("INFO", FormatJSON, &buf)
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.WithField("port", 8000).Info("started")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "started", entry["msg"])
		assert.Equal(t, float64(8000), entry["port"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("debug", FormatText, &buf)
		require.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

		logger.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger("loud", FormatJSON, nil)
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := NewLogger("info", "xml", nil)
		assert.Error(t, err)
	})
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", FormatJSON, &buf)
	require.NoError(t, err)

	t.Run("stored entry wins", func(t *testing.T) {
		stored := logger.WithField("component", "test")
		ctx := contextkeys.WithLogger(context.Background(), stored)
		assert.Same(t, stored, FromContext(ctx, logger))
	})

	t.Run("fallback carries request id", func(t *testing.T) {
		ctx := contextkeys.WithRequestID(context.Background(), "req-1")
		entry := FromContext(ctx, logger)
		assert.Equal(t, "req-1", entry.Data["request_id"])
	})

	t.Run("nil fallback", func(t *testing.T) {
		entry := FromContext(context.Background(), nil)
		assert.NotNil(t, entry)
	})
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", FormatJSON, &buf)
	require.NoError(t, err)

	func() {
		defer RecoverPanic(logger, "test")
		panic("kaboom")
	}()
	assert.Contains(t, buf.String(), "kaboom")
	assert.Contains(t, buf.String(), "PANIC recovered")

	called := false
	func() {
		defer RecoverPanicWithCallback(logger, "test", func() { called = true })
		panic(errors.New("again"))
	}()
	assert.True(t, called)

	called = false
	func() {
		defer RecoverPanicWithCallback(logger, "test", func() { called = true })
	}()
	assert.False(t, called, "callback only runs after a panic")
}

func TestShutdownManager(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	t.Run("runs shutdown funcs", func(t *testing.T) {
		srv := &http.Server{Addr: "127.0.0.1:0"}
		sm := NewShutdownManager(logger, time.Second, srv)

		ran := make(chan struct{}, 2)
		sm.RegisterShutdownFunc(func(context.Context) error { ran <- struct{}{}; return nil })
		sm.RegisterShutdownFunc(func(context.Context) error { ran <- struct{}{}; return nil })

		require.NoError(t, sm.Shutdown())
		assert.Len(t, ran, 2)
	})

	t.Run("collects errors", func(t *testing.T) {
		sm := NewShutdownManager(logger, time.Second)
		sm.RegisterShutdownFunc(func(context.Context) error { return errors.New("close failed") })

		err := sm.Shutdown()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 errors")
	})

	t.Run("context cancellation triggers shutdown", func(t *testing.T) {
		sm := NewShutdownManager(logger, time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, sm.WaitForShutdown(ctx))
	})

	t.Run("times out slow funcs", func(t *testing.T) {
		sm := NewShutdownManager(logger, 20*time.Millisecond)
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			time.Sleep(200 * time.Millisecond)
			return nil
		})
		assert.Error(t, sm.Shutdown())
	})
}

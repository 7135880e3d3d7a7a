package xlog

import (
	"bytes"
	"sync"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestAntsXLogger_NilSafe(t *testing.T) {
	var logger *AntsXLogger
	logger.Printf("test %d", 123)
	NewAntsXLogger(nil).Printf("test %d", 123)
}

func TestAntsXLogger_ParentLogLevelChanged(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewXLogger(
		WithXLoggerLevel(LogLevelInfo),
		WithXLoggerEncoder(JSON),
		WithXLoggerWriter(buf),
	)
	logger := NewAntsXLogger(parent)

	parent.IncreaseLogLevel(zapcore.FatalLevel)
	logger.Printf("hidden %d", 1)
	require.Empty(t, buf.String())

	parent.IncreaseLogLevel(zapcore.InfoLevel)
	logger.Printf("shown %d", 2)
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	require.Equal(t, "shown 2", lines[0]["msg"])
	require.Equal(t, "ants", lines[0]["component"])
	require.Equal(t, "ERROR", lines[0]["lvl"])
	require.NotContains(t, lines[0], "callAt")
}

func TestAntsXLogger_PoolPanic(t *testing.T) {
	buf := &syncBuffer{}
	parent := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerEncoder(JSON),
		WithXLoggerWriter(buf),
	)
	p, err := ants.NewPool(2, ants.WithLogger(NewAntsXLogger(parent)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	err = p.Submit(func() {
		defer wg.Done()
		panic("xlogger panic in ants pool")
	})
	require.NoError(t, err)
	wg.Wait()
	p.Release()
	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("xlogger panic in ants pool"))
	}, waitFor, tick)
}

package infra

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var initPC = caller()

func caller() Frame {
	var PCs [3]uintptr
	n := runtime.Callers(2, PCs[:])
	frames := runtime.CallersFrames(PCs[:n])
	frame, _ := frames.Next()
	return Frame(frame.PC)
}

func TestFrameFormat(t *testing.T) {
	testcases := []struct {
		Frame
		format string
		want   string
	}{
		{initPC, "%s", "err_stack_test.go"},
		{initPC, "%n", "init"},
		{Frame(0), "%s", "unknownFile"},
		{Frame(0), "%n", "unknownFunc"},
		{Frame(0), "%d", "0"},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.want, fmt.Sprintf(tc.format, tc.Frame))
	}
	require.True(t, strings.HasPrefix(fmt.Sprintf("%v", initPC), "err_stack_test.go:"))
	require.True(t, strings.HasPrefix(fmt.Sprintf("%+s", initPC), "github.com/benz9527/xrbtree/lib/infra.init\n\t"))
}

func TestFrameMarshalText(t *testing.T) {
	text, err := Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))

	text, err = initPC.MarshalText()
	require.NoError(t, err)
	require.Contains(t, string(text), "err_stack_test.go:")
}

func TestErrorStack(t *testing.T) {
	es := NewErrorStack("tree broken")
	require.Equal(t, "tree broken", es.Error())
	require.Nil(t, es.Unwrap())
	require.NotEmpty(t, es.Frames())
	require.Equal(t, "TestErrorStack", fmt.Sprintf("%n", es.Frames()[0]))

	cause := errors.New("red violation")
	wrapped := WrapErrorStack(cause, "job 3")
	require.Equal(t, "job 3: red violation", wrapped.Error())
	require.ErrorIs(t, wrapped, cause)

	rewrapped := WrapErrorStack(wrapped, "soak")
	require.Equal(t, "soak: job 3: red violation", rewrapped.Error())
	require.Equal(t, wrapped.Frames(), rewrapped.Frames())
	require.ErrorIs(t, rewrapped, cause)

	require.Nil(t, WrapErrorStack(nil, "nothing"))
}

func TestErrorStackMarshalLogObject(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	err := NewErrorStack("boom").MarshalLogObject(enc)
	require.NoError(t, err)
	require.Equal(t, "boom", enc.Fields["error"])
	stack, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, stack)
}

package xerrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test")

func TestWithStackTrace(t *testing.T) {
	require.NoError(t, WithStackTrace(nil))

	err := WithStackTrace(errTest)
	require.ErrorIs(t, err, errTest)
	require.True(t, strings.HasPrefix(err.Error(), "test at `"))
	require.Contains(t, err.Error(), "xerrors.TestWithStackTrace(xerrors_test.go:")

	nested := func() error {
		return WithStackTrace(errTest, WithSkipDepth(1))
	}()
	require.Contains(t, nested.Error(), "xerrors.TestWithStackTrace(xerrors_test.go:")
}

func TestJoin(t *testing.T) {
	require.NoError(t, Join())
	require.NoError(t, Join(nil, nil))

	other := errors.New("other")
	err := Join(errTest, nil, fmt.Errorf("wrapped: %w", other))
	require.Equal(t, `["test","wrapped: other"]`, err.Error())
	require.ErrorIs(t, err, errTest)
	require.ErrorIs(t, err, other)
	require.True(t, IsValidation(Join(errTest, Validation("tag", "bad"))))
}

func TestIs(t *testing.T) {
	require.True(t, Is(WithStackTrace(context.Canceled), context.DeadlineExceeded, context.Canceled))
	require.False(t, Is(errTest, context.Canceled))
	require.True(t, IsContextError(WithStackTrace(context.DeadlineExceeded)))
	require.Panics(t, func() {
		_ = Is(errTest)
	})
}

func TestValidation(t *testing.T) {
	err := WithStackTrace(Validation("drop", "expected %s", "bool"))
	require.True(t, IsValidation(err))
	require.False(t, IsValidation(errTest))

	var v *ValidationError
	require.ErrorAs(t, err, &v)
	require.Equal(t, "drop", v.Argument)
	require.Equal(t, "invalid drop: expected bool", v.Error())
}

package xstring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b := Buffer()
	b.WriteString("dirty")
	b.Free()

	b = Buffer()
	defer b.Free()
	require.Zero(t, b.Len())
	b.WriteString("clean")
	require.Equal(t, "clean", b.String())
}

package infra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAscAndDescComparator(t *testing.T) {
	testcases := []struct {
		name string
		i, j int
		asc  int64
	}{
		{"equal", 3, 3, 0},
		{"less", 1, 3, -1},
		{"greater", 7, 3, 1},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			require.Equal(tt, tc.asc, AscComparator(tc.i, tc.j))
			require.Equal(tt, -tc.asc, DescComparator(tc.i, tc.j))
		})
	}

	require.Equal(t, int64(-1), AscComparator("abc", "abd"))
	require.Equal(t, int64(1), AscComparator(2.5, -1.0))
}

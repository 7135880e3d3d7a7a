package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xrbtree/lib/tree"
)

func TestCollect_Empty(t *testing.T) {
	rbt := tree.NewRBTree[int]()
	stats := Collect[int](rbt.Root())
	require.True(t, stats.Empty)
	require.Equal(t, int64(0), stats.Nodes)
	require.Equal(t, 0, stats.Height)
	require.Empty(t, InOrder[int](rbt.Root()))
	require.Nil(t, Smallest[int](rbt.Root()))
	require.Nil(t, Largest[int](rbt.Root()))
	require.Equal(t, 0, BlackHeight[int](rbt.Root()))
}

func TestCollect_FiveKeys(t *testing.T) {
	rbt := tree.NewRBTree[int]()
	for _, key := range []int{10, 20, 30, 15, 25} {
		rbt.Insert(key)
	}

	stats := Collect[int](rbt.Root())
	require.False(t, stats.Empty)
	require.Equal(t, int64(5), stats.Nodes)
	require.Equal(t, int64(2), stats.Red)
	require.Equal(t, int64(3), stats.Black)
	require.Equal(t, 3, stats.Height)
	require.Equal(t, 20, stats.Root)
	require.Equal(t, tree.Black, stats.RootColor)
	require.Equal(t, 10, stats.Min)
	require.Equal(t, 30, stats.Max)
	require.Equal(t, []int{10, 15, 20, 25, 30}, InOrder[int](rbt.Root()))
	require.Equal(t, 2, BlackHeight[int](rbt.Root()))
}

func TestCollect_HeightBound(t *testing.T) {
	rbt := tree.NewRBTree[int]()
	total := 1 << 14
	for i := 0; i < total; i++ {
		rbt.Insert(i)
	}
	stats := Collect[int](rbt.Root())
	require.Equal(t, int64(total), stats.Nodes)
	require.Equal(t, stats.Nodes, stats.Red+stats.Black)
	// h <= 2 * log2(n + 1)
	require.LessOrEqual(t, stats.Height, 2*15)
	require.Equal(t, 0, stats.Min)
	require.Equal(t, total-1, stats.Max)
	require.Len(t, InOrder[int](rbt.Root()), total)
	require.GreaterOrEqual(t, stats.Height, BlackHeight[int](rbt.Root()))
}

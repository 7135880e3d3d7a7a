package tree

import (
	randv2 "math/rand/v2"
	"sort"
	"testing"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xrbtree/lib/infra"
)

type checkData[K infra.OrderedKey] struct {
	color RBColor
	key   K
}

// Inorder traversal over the read-only view.
func inorder[K infra.OrderedKey](tree RBTree[K]) []checkData[K] {
	res := make([]checkData[K], 0, tree.Len())
	stack := make([]RBNode[K], 0, 64)
	for aux := tree.Root(); aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		res = append(res, checkData[K]{color: aux.Color(), key: aux.Key()})
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return res
}

func inorderKeys[K infra.OrderedKey](tree RBTree[K]) []K {
	data := inorder[K](tree)
	keys := make([]K, 0, len(data))
	for _, d := range data {
		keys = append(keys, d.key)
	}
	return keys
}

func height[K infra.OrderedKey](node RBNode[K]) int {
	if node == nil {
		return 0
	}
	return 1 + max(height[K](node.Left()), height[K](node.Right()))
}

func requireRBTree[K infra.OrderedKey](t *testing.T, tree RBTree[K]) {
	t.Helper()
	require.NoError(t, RedViolationValidate[K](tree))
	require.NoError(t, BlackViolationValidate[K](tree))
	require.NoError(t, ParentLinkValidate[K](tree))
	require.NoError(t, Validate[K](tree))
}

func TestNilNode(t *testing.T) {
	var nilNode RBNode[uint64] = nil
	require.True(t, nilNode == nil)

	var nilNode2 *rbNode[uint64] = nil
	nilNode = nilNode2
	require.True(t, nilNode != nil)
	require.Nil(t, nilNode)

	// The getters never leak a typed nil.
	tree := NewRBTree[uint64]()
	require.True(t, tree.Root() == nil)
	require.True(t, tree.Minimum() == nil)
	require.True(t, tree.Maximum() == nil)
	require.True(t, tree.Search(1) == nil)
	require.True(t, tree.Insert(1))
	require.True(t, tree.Root().Left() == nil)
	require.True(t, tree.Root().Right() == nil)
	require.True(t, tree.Root().Parent() == nil)
}

func TestRBColorString(t *testing.T) {
	require.Equal(t, "BLACK", Black.String())
	require.Equal(t, "RED", Red.String())
	require.Equal(t, "UNKNOWN", RBColor(7).String())
}

func TestRbtreeInsertAndDelete_Colors(t *testing.T) {
	tree := newRBTree[uint64]()

	steps := []struct {
		name     string
		insert   bool
		key      uint64
		expected []checkData[uint64]
	}{
		{"insert 52 as root", true, 52, []checkData[uint64]{{Black, 52}}},
		{"insert 47 under black parent", true, 47, []checkData[uint64]{{Red, 47}, {Black, 52}}},
		{"insert 3 outer rotation", true, 3, []checkData[uint64]{{Red, 3}, {Black, 47}, {Red, 52}}},
		{"insert 35 red uncle", true, 35, []checkData[uint64]{{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52}}},
		{"insert 24 inner rotation", true, 24, []checkData[uint64]{{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}}},
		{"delete 24 borrow direct succ", false, 24, []checkData[uint64]{{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52}}},
		{"delete root 47 far nephew red", false, 47, []checkData[uint64]{{Black, 3}, {Black, 35}, {Black, 52}}},
		{"delete black leaf 52", false, 52, []checkData[uint64]{{Red, 3}, {Black, 35}}},
		{"delete red leaf 3", false, 3, []checkData[uint64]{{Black, 35}}},
		{"delete last 35", false, 35, []checkData[uint64]{}},
	}
	for _, step := range steps {
		if step.insert {
			require.True(t, tree.Insert(step.key), step.name)
		} else {
			require.True(t, tree.Delete(step.key), step.name)
		}
		require.Equal(t, step.expected, inorder[uint64](tree), step.name)
		requireRBTree[uint64](t, tree)
		require.Equal(t, int64(len(step.expected)), tree.Len())
	}
	require.Nil(t, tree.Root())
}

func TestRbtree_FiveKeysScenario(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range []int{10, 20, 30, 15, 25} {
		require.True(t, tree.Insert(key))
	}
	require.Equal(t, 20, tree.Root().Key())
	require.Equal(t, Black, tree.Root().Color())
	require.Equal(t, []int{10, 15, 20, 25, 30}, inorderKeys[int](tree))
	require.LessOrEqual(t, height[int](tree.Root()), 3)
	requireRBTree[int](t, tree)

	require.True(t, tree.Delete(20))
	require.Nil(t, tree.Search(20))
	require.Equal(t, []int{10, 15, 25, 30}, inorderKeys[int](tree))
	require.Equal(t, int64(4), tree.Len())
	require.Equal(t, 25, tree.Root().Key())
	requireRBTree[int](t, tree)
}

func TestRbtree_SearchEmpty(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range []int{0, -1, 42} {
		require.Nil(t, tree.Search(key))
	}
	require.False(t, tree.Delete(42))
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
}

func TestRbtree_Search(t *testing.T) {
	tree := NewRBTree[string]()
	for _, key := range []string{"m", "c", "x", "a", "e"} {
		require.True(t, tree.Insert(key))
	}
	x := tree.Search("e")
	require.NotNil(t, x)
	require.Equal(t, "e", x.Key())
	require.Equal(t, "c", x.Parent().Key())
	require.Nil(t, tree.Search("z"))
	require.Equal(t, "a", tree.Minimum().Key())
	require.Equal(t, "x", tree.Maximum().Key())
}

func TestRbtree_DuplicateRejection(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 0; i < 64; i++ {
		require.True(t, tree.Insert(i*3))
	}
	before := inorder[int](tree)
	rootKey := tree.Root().Key()

	for i := 0; i < 64; i++ {
		require.False(t, tree.Insert(i*3))
	}
	require.Equal(t, int64(64), tree.Len())
	require.Equal(t, before, inorder[int](tree))
	require.Equal(t, rootKey, tree.Root().Key())
	requireRBTree[int](t, tree)
}

func TestRbtree_DeleteAbsentIsNoop(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 0; i < 32; i++ {
		tree.Insert(i * 2)
	}
	before := inorder[int](tree)
	for i := 0; i < 32; i++ {
		require.False(t, tree.Delete(i*2+1))
	}
	require.Equal(t, before, inorder[int](tree))
	require.Equal(t, int64(32), tree.Len())
	requireRBTree[int](t, tree)
}

func TestRbtree_InsertDeleteRoundTrip(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 0; i < 200; i++ {
		tree.Insert(int(randv2.Int32N(1_000)) * 2)
	}
	before := inorderKeys[int](tree)

	for i := 0; i < 100; i++ {
		key := int(randv2.Int32N(1_000))*2 + 1
		require.True(t, tree.Insert(key))
		require.True(t, tree.Delete(key))
		require.Equal(t, before, inorderKeys[int](tree))
		requireRBTree[int](t, tree)
	}
}

func TestRbtree_Rotate(t *testing.T) {
	tree := newRBTree[int]()
	for i := 0; i < 127; i++ {
		tree.Insert(i)
	}
	keys := inorderKeys[int](tree)

	for i := 0; i < 127; i++ {
		x := tree.search(i)
		color := x.color
		if x.right != nil {
			y := x.right
			tree.leftRotate(x)
			require.Same(t, x, y.left)
			require.Same(t, y, x.parent)
			require.NoError(t, ParentLinkValidate[int](tree))
			require.NoError(t, OrderViolationValidate[int](tree, nil))
			require.Equal(t, keys, inorderKeys[int](tree))

			tree.rightRotate(y)
			require.Same(t, y, x.right)
			require.Equal(t, color, x.color)
			require.NoError(t, ParentLinkValidate[int](tree))
		}
		if x.left != nil {
			y := x.left
			tree.rightRotate(x)
			require.Same(t, x, y.right)
			require.NoError(t, ParentLinkValidate[int](tree))
			require.Equal(t, keys, inorderKeys[int](tree))

			tree.leftRotate(y)
			require.Same(t, y, x.left)
			require.NoError(t, ParentLinkValidate[int](tree))
		}
	}
	// Every rotation was undone.
	requireRBTree[int](t, tree)
}

func TestRbtree_RotateRoot(t *testing.T) {
	tree := newRBTree[int]()
	tree.Insert(2)
	tree.Insert(1)
	tree.Insert(3)
	root := tree.root

	tree.leftRotate(root)
	require.Equal(t, 3, tree.root.key)
	require.Nil(t, tree.root.parent)
	require.NoError(t, ParentLinkValidate[int](tree))

	tree.rightRotate(tree.root)
	require.Same(t, root, tree.root)
	require.Nil(t, tree.root.parent)
	require.NoError(t, ParentLinkValidate[int](tree))

	require.Panics(t, func() {
		tree.leftRotate(tree.search(1))
	})
}

func rbtreeSequentialNumberRunCore(t *testing.T, total uint64) {
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	tree := NewRBTree[uint64]()
	for i := uint64(0); i < insertTotal+removeTotal; i++ {
		require.True(t, tree.Insert(i))
		requireRBTree[uint64](t, tree)
	}
	for idx, key := range inorderKeys[uint64](tree) {
		require.Equal(t, uint64(idx), key)
	}

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		if i == 92 {
			x := tree.Search(i)
			require.Equal(t, uint64(92), x.Key())
		}
		require.True(t, tree.Delete(i))
		require.Nil(t, tree.Search(i))
		requireRBTree[uint64](t, tree)
	}
	for idx, key := range inorderKeys[uint64](tree) {
		require.Equal(t, uint64(idx), key)
	}
	require.Equal(t, int64(insertTotal), tree.Len())
}

func TestRbtreeInsertAndDelete_SequentialNumber(t *testing.T) {
	testcases := []struct {
		name  string
		total uint64
	}{
		{"100", 100},
		{"1000", 1000},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeSequentialNumberRunCore(tt, tc.total)
		})
	}
}

func TestRbtreeInsertAndDelete_ReverseSequentialNumber(t *testing.T) {
	total := int64(10000)
	insertTotal := int64(float64(total) * 0.8)
	removeTotal := int64(float64(total) * 0.2)

	tree := NewRBTree[int64](WithRBTreeDesc[int64]())

	rand := int64(randv2.Uint32() % 1_000)
	for i := insertTotal - 1; i >= 0; i-- {
		require.True(t, tree.Insert(i))
		if i%1000 == rand {
			requireRBTree[int64](t, tree)
		}
	}
	for idx, key := range inorderKeys[int64](tree) {
		require.Equal(t, insertTotal-1-int64(idx), key)
	}
	require.Equal(t, insertTotal-1, tree.Minimum().Key())
	require.Equal(t, int64(0), tree.Maximum().Key())

	for i := removeTotal + insertTotal - 1; i >= insertTotal; i-- {
		tree.Insert(i)
	}
	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		require.True(t, tree.Delete(i))
	}
	requireRBTree[int64](t, tree)
	for idx, key := range inorderKeys[int64](tree) {
		require.Equal(t, insertTotal-1-int64(idx), key)
	}
}

func TestRbtree_CustomComparator(t *testing.T) {
	tree := NewRBTree[int](WithRBTreeComparator[int](infra.DescComparator[int]))
	for _, key := range []int{5, 1, 9, 3, 7} {
		tree.Insert(key)
	}
	require.Equal(t, []int{9, 7, 5, 3, 1}, inorderKeys[int](tree))
	require.Equal(t, 9, tree.Minimum().Key())
	requireRBTree[int](t, tree)

	// A nil comparator keeps the default order.
	tree = NewRBTree[int](WithRBTreeComparator[int](nil))
	for _, key := range []int{5, 1, 9} {
		tree.Insert(key)
	}
	require.Equal(t, []int{1, 5, 9}, inorderKeys[int](tree))
}

func rbtreeRandomOracleRunCore(t *testing.T, total, keySpace int, violationCheck bool) {
	tree := NewRBTree[int]()
	oracle := rbt.NewWithIntComparator()

	for i := 0; i < total; i++ {
		key := randv2.IntN(keySpace)
		switch randv2.IntN(3) {
		case 0, 1:
			_, found := oracle.Get(key)
			require.Equal(t, !found, tree.Insert(key))
			oracle.Put(key, struct{}{})
		default:
			_, found := oracle.Get(key)
			require.Equal(t, found, tree.Delete(key))
			oracle.Remove(key)
		}
		if violationCheck {
			requireRBTree[int](t, tree)
		}
	}
	requireRBTree[int](t, tree)

	require.Equal(t, int64(oracle.Size()), tree.Len())
	expected := make([]int, 0, oracle.Size())
	for _, k := range oracle.Keys() {
		expected = append(expected, k.(int))
	}
	require.Equal(t, expected, inorderKeys[int](tree))
}

func TestRbtreeRandomInsertAndDelete_Oracle(t *testing.T) {
	testcases := []struct {
		name           string
		total          int
		keySpace       int
		violationCheck bool
	}{
		{name: "dense 100000", total: 100_000, keySpace: 512},
		{name: "sparse 100000", total: 100_000, keySpace: 1 << 30},
		{name: "violation check dense 5000", total: 5000, keySpace: 128, violationCheck: true},
		{name: "violation check sparse 5000", total: 5000, keySpace: 1 << 20, violationCheck: true},
	}
	t.Parallel()
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomOracleRunCore(tt, tc.total, tc.keySpace, tc.violationCheck)
		})
	}
}

func TestRbtreeRandomInsertAndDelete_Shuffle(t *testing.T) {
	total := 20000
	elements := randv2.Perm(total)

	tree := NewRBTree[int]()
	for _, e := range elements {
		require.True(t, tree.Insert(e))
	}
	requireRBTree[int](t, tree)

	rmElements := elements[:total/2]
	randv2.Shuffle(len(rmElements), func(i, j int) {
		rmElements[i], rmElements[j] = rmElements[j], rmElements[i]
	})
	for i, e := range rmElements {
		require.True(t, tree.Delete(e))
		if i%500 == 0 {
			requireRBTree[int](t, tree)
		}
	}
	requireRBTree[int](t, tree)

	rest := append([]int(nil), elements[total/2:]...)
	sort.Ints(rest)
	require.Equal(t, rest, inorderKeys[int](tree))
}

func TestRBTree_Release(t *testing.T) {
	tree := newRBTree[uint64]()
	for i := uint64(0); i < 10_000; i++ {
		tree.Insert(i)
	}
	root := tree.root
	minimum := tree.root.minimum()

	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.Nil(t, root.left)
	require.Nil(t, root.right)
	require.Nil(t, minimum.parent)

	// Reusable after release.
	require.True(t, tree.Insert(1))
	requireRBTree[uint64](t, tree)

	empty := NewRBTree[int]()
	empty.Release()
	require.Nil(t, empty.Root())
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(rngArr[i])
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	tree := NewRBTree[int]()
	for i := 0; i < b.N; i++ {
		tree.Insert(i)
	}
}

func BenchmarkRBTree_SerialDelete(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()
	for i := 0; i < b.N; i++ {
		tree.Insert(i)
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Delete(i)
	}
}

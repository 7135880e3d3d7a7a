// Package report computes statistics of a red-black tree from outside of
// the tree by walking its read-only node view. All traversals use an
// explicit stack, so deep trees never hit the goroutine stack limit.
package report

import (
	"github.com/benz9527/xrbtree/lib/infra"
	"github.com/benz9527/xrbtree/lib/tree"
)

type Stats[K infra.OrderedKey] struct {
	Empty     bool
	Nodes     int64
	Red       int64
	Black     int64
	Height    int
	Root      K
	RootColor tree.RBColor
	Min       K
	Max       K
}

type levelNode[K infra.OrderedKey] struct {
	node  tree.RBNode[K]
	level int
}

// Collect walks the whole tree once. The height counts the nodes on the
// longest root to leaf path, so an empty tree is 0 and a single root is 1.
func Collect[K infra.OrderedKey](root tree.RBNode[K]) Stats[K] {
	stats := Stats[K]{Empty: root == nil}
	if root == nil {
		return stats
	}
	stats.Root, stats.RootColor = root.Key(), root.Color()

	stack := make([]levelNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, levelNode[K]{node: root, level: 1})
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]

		stats.Nodes++
		if aux.node.Color() == tree.Red {
			stats.Red++
		} else {
			stats.Black++
		}
		stats.Height = max(stats.Height, aux.level)

		if l := aux.node.Left(); l != nil {
			stack = append(stack, levelNode[K]{node: l, level: aux.level + 1})
		}
		if r := aux.node.Right(); r != nil {
			stack = append(stack, levelNode[K]{node: r, level: aux.level + 1})
		}
	}

	stats.Min = Smallest[K](root).Key()
	stats.Max = Largest[K](root).Key()
	return stats
}

// Smallest returns the leftmost node of the subtree, nil if empty.
func Smallest[K infra.OrderedKey](node tree.RBNode[K]) tree.RBNode[K] {
	if node == nil {
		return nil
	}
	for l := node.Left(); l != nil; l = node.Left() {
		node = l
	}
	return node
}

// Largest returns the rightmost node of the subtree, nil if empty.
func Largest[K infra.OrderedKey](node tree.RBNode[K]) tree.RBNode[K] {
	if node == nil {
		return nil
	}
	for r := node.Right(); r != nil; r = node.Right() {
		node = r
	}
	return node
}

// InOrder lists the keys in the tree order.
func InOrder[K infra.OrderedKey](root tree.RBNode[K]) []K {
	keys := make([]K, 0, 64)
	stack := make([]tree.RBNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()

	for aux := root; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		keys = append(keys, aux.Key())
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return keys
}

// BlackHeight counts the black nodes on the leftmost path, the root
// included. It is the black height of every path in a valid tree.
func BlackHeight[K infra.OrderedKey](root tree.RBNode[K]) int {
	bh := 0
	for aux := root; aux != nil; aux = aux.Left() {
		if aux.Color() == tree.Black {
			bh++
		}
	}
	return bh
}

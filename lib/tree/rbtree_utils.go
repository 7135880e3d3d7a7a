package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xrbtree/lib/infra"
)

var (
	ErrRootColor      = errors.New("rbtree root is not black")
	ErrRedViolation   = errors.New("rbtree red violation")
	ErrBlackViolation = errors.New("rbtree black violation")
	ErrParentLink     = errors.New("rbtree parent link broken")
	ErrOrderViolation = errors.New("rbtree order violation")
)

func isBlack[K infra.OrderedKey](node RBNode[K]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K infra.OrderedKey](node RBNode[K]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K infra.OrderedKey](target, to RBNode[K]) int {
	depth := 0
	for aux := target; aux != nil && aux != to; aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// Inorder traversal to validate the rbtree properties.
func RedViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}
	if isRed[K](aux) {
		return ErrRootColor
	}

	stack := make([]RBNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; isRed[K](aux) {
			if isRed[K](aux.Left()) || isRed[K](aux.Right()) {
				return fmt.Errorf("%w: red node %v has a red child", ErrRedViolation, aux.Key())
			}
		}

		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// BFS traversal to load all nodes with at least one NIL child.
func bfsLeaves[K infra.OrderedKey](tree RBTree[K]) []RBNode[K] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[K], 0, tree.Len()>>1+1)
	queue := make([]RBNode[K], 0, 64)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each NIL leaf to root node black depth are equal.
*/
func BlackViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	leaves := bfsLeaves[K](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[K](leaves[0], nil)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K](leaves[i], nil); depth != blackDepth {
			return fmt.Errorf("%w: leaf %v black depth %d, expected %d",
				ErrBlackViolation, leaves[i].Key(), depth, blackDepth)
		}
	}
	return nil
}

// ParentLinkValidate checks that every child points back to its parent
// and the root has no parent.
func ParentLinkValidate[K infra.OrderedKey](tree RBTree[K]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}
	if aux.Parent() != nil {
		return fmt.Errorf("%w: root %v has a parent", ErrParentLink, aux.Key())
	}

	stack := make([]RBNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		for _, child := range [2]RBNode[K]{aux.Left(), aux.Right()} {
			if child == nil {
				continue
			}
			if child.Parent() != aux {
				return fmt.Errorf("%w: child %v of %v", ErrParentLink, child.Key(), aux.Key())
			}
			stack = append(stack, child)
		}
	}
	return nil
}

// OrderViolationValidate checks the in-order keys are strictly increasing
// under cmp and the node count matches the tree length.
func OrderViolationValidate[K infra.OrderedKey](tree RBTree[K], cmp infra.OrderedKeyComparator[K]) error {
	if cmp == nil {
		cmp = infra.AscComparator[K]
	}

	var (
		prev  RBNode[K]
		count int64
		aux   = tree.Root()
		stack = make([]RBNode[K], 0, 64)
	)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if prev != nil && cmp(prev.Key(), aux.Key()) >= 0 {
			return fmt.Errorf("%w: %v is not before %v", ErrOrderViolation, prev.Key(), aux.Key())
		}
		prev = aux
		count++
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	if count != tree.Len() {
		return fmt.Errorf("%w: %d reachable nodes, length %d", ErrOrderViolation, count, tree.Len())
	}
	return nil
}

// Validate runs all rule checks against a tree built by NewRBTree.
func Validate[K infra.OrderedKey](tree RBTree[K]) error {
	var cmp infra.OrderedKeyComparator[K]
	if t, ok := tree.(*rbTree[K]); ok {
		cmp = t.cmp
	}
	return multierr.Combine(
		RedViolationValidate[K](tree),
		BlackViolationValidate[K](tree),
		ParentLinkValidate[K](tree),
		OrderViolationValidate[K](tree, cmp),
	)
}

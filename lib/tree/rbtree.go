package tree

import (
	"github.com/benz9527/xrbtree/lib/infra"
)

type rbNode[K infra.OrderedKey] struct {
	parent *rbNode[K]
	left   *rbNode[K]
	right  *rbNode[K]
	key    K
	color  RBColor
}

func (node *rbNode[K]) Key() K {
	return node.key
}

func (node *rbNode[K]) Color() RBColor {
	return node.color
}

func (node *rbNode[K]) Left() RBNode[K] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K]) Right() RBNode[K] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[K]) Parent() RBNode[K] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

// NIL leaves are black.
func (node *rbNode[K]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[K]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[K]) direction() RBDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}

	if node.parent == nil {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *rbNode[K]) sibling() *rbNode[K] {
	switch node.direction() {
	case Left:
		return node.parent.right
	case Right:
		return node.parent.left
	default:
	}
	return nil
}

func (node *rbNode[K]) fixLink() {
	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
}

func (node *rbNode[K]) minimum() *rbNode[K] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *rbNode[K]) maximum() *rbNode[K] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

type rbTree[K infra.OrderedKey] struct {
	root  *rbNode[K]
	count int64
	cmp   infra.OrderedKeyComparator[K]
}

func (tree *rbTree[K]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K]) Root() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *rbTree[K]) Minimum() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root.minimum()
}

func (tree *rbTree[K]) Maximum() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root.maximum()
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// Introduction to Algorithms (CLRS), chapter 13.
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// So the longest path nodes' number is at most 2 * shortest path nodes' number.

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K]) leftRotate(x *rbNode[K]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	p, y := x.parent, x.right
	dir := x.direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
	}
	y.parent = p
}

/*
		 |                         |
		 X                         L
		/ \     rightRotate(X)    / \
	   L   R    ============>   Lc   X
	  / \                           / \
	Lc   Ld                       Ld   R
*/
func (tree *rbTree[K]) rightRotate(x *rbNode[K]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	p, y := x.parent, x.left
	dir := x.direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
	}
	y.parent = p
}

// rotate turns x down to the dir side.
func (tree *rbTree[K]) rotate(x *rbNode[K], dir RBDirection) {
	switch dir {
	case Left:
		tree.leftRotate(x)
	case Right:
		tree.rightRotate(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown rotate direction")
	}
}

func (tree *rbTree[K]) search(key K) *rbNode[K] {
	for aux := tree.root; aux != nil; {
		res := tree.cmp(key, aux.key)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil
}

func (tree *rbTree[K]) Search(key K) RBNode[K] {
	if x := tree.search(key); x != nil {
		return x
	}
	return nil
}

// i1: Empty rbtree, the new node becomes root and is painted into black.
func (tree *rbTree[K]) Insert(key K) bool {
	var (
		x, y *rbNode[K] = tree.root, nil
		res  int64
	)
	for x != nil {
		y = x
		if res = tree.cmp(key, x.key); /* equal */ res == 0 {
			return false
		} else /* less */ if res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	z := &rbNode[K]{
		key:    key,
		color:  Red,
		parent: y,
	}
	if /* i1 */ y == nil {
		tree.root = z
	} else if res < 0 {
		y.left = z
	} else {
		y.right = z
	}
	tree.count++
	tree.insertRebalance(z)
	return true
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

The loop only runs while the parent P is red. A red P is never the
root, so the grandpa G exists and is black.

i2: Both the parent P and the uncle U are red.
Repaint P and U into black, G into red. G may be red-violation
with its own parent now, continue to fix from G.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

i3: P is red but U is black and X is an inner grandchild
(X's direction is opposite to P's). Rotate P to make the old P
an outer grandchild, then enter i4 with X = old P.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

i4: P is red, U is black and X is an outer grandchild.
Repaint P into black, G into red, rotate G to the opposite
direction. The subtree root is black, stop.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K]) insertRebalance(x *rbNode[K]) {
	for x.parent.isRed() {
		p := x.parent
		gp := p.parent
		if uncle := p.sibling(); /* i2 */ uncle.isRed() {
			p.color = Black
			uncle.color = Black
			gp.color = Red
			x = gp
			continue
		}

		pDir := p.direction()
		if /* i3 */ x.direction() != pDir {
			tree.rotate(p, pDir)
			x, p = p, x
		}

		/* i4 */
		p.color = Black
		gp.color = Red
		tree.rotate(gp, -pDir)
		break
	}
	tree.root.color = Black
}

func (tree *rbTree[K]) Delete(key K) bool {
	z := tree.search(key)
	if z == nil {
		return false
	}
	tree.removeNode(z)
	tree.count--
	return true
}

// transplant replaces the subtree rooted at u with the subtree rooted at v.
// v may be nil.
func (tree *rbTree[K]) transplant(u, v *rbNode[K]) {
	switch u.direction() {
	case Root:
		tree.root = v
	case Left:
		u.parent.left = v
	case Right:
		u.parent.right = v
	default:
	}
	if v != nil {
		v.parent = u.parent
	}
}

/*
r1: Node Z has no left child, replace it by its right child (maybe NIL).

r2: Node Z has no right child, replace it by its left child.

r3: Node Z has both children. Borrow the succ Y (minimum of the right
subtree). Y has no left child. Y's right child X takes Y's place, then Y
takes Z's structural slot, children and color. The removed color is
Y's original color.

	  |                    |
	  Z                    Y
	 / \                  / \
	L   R   relocate(Y)  L   R
	   /    ==========>     /
	  ..                   ..
	 /                    /
	Y                    X
	 \
	  X

If the removed color is black, the path through X lost one black node.
X (maybe NIL, so its parent is carried along) is the fixup anchor.
*/
func (tree *rbTree[K]) removeNode(z *rbNode[K]) {
	var (
		x, xp        *rbNode[K]
		removedColor = z.color
	)
	if /* r1 */ z.left == nil {
		x, xp = z.right, z.parent
		tree.transplant(z, z.right)
	} else if /* r2 */ z.right == nil {
		x, xp = z.left, z.parent
		tree.transplant(z, z.left)
	} else /* r3 */ {
		y := z.right.minimum()
		removedColor = y.color
		x = y.right
		if y.parent == z {
			xp = y
		} else {
			xp = y.parent
			tree.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		tree.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	// Unlink node
	z.parent, z.left, z.right = nil, nil, nil

	if removedColor == Black {
		tree.removeRebalance(x, xp)
	}
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X carries an extra black. X may be NIL, so P is tracked separately.
Sc is the sibling's child on the same side as X (near nephew).
Sd is the sibling's child on the opposite side of X (far nephew).

r1: The sibling S is red, so P, Sc and Sd are black.
Repaint S into black, P into red, rotate P to X's side.
The new sibling is the old Sc which is black, go on with r2-r4.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

r2: S is black, both Sc and Sd are black.
Repaint S into red, move the extra black up to P.
If P is red the loop ends and P is painted into black.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

r3: S is black, Sc is red and Sd is black.
Repaint Sc into black, S into red, rotate S away from X's side.
The new sibling is the old Sc, enter r4.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

r4: S is black and Sd is red.
Paint S into P's color, P and Sd into black, rotate P to X's side.
The extra black is absorbed, stop.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (tree *rbTree[K]) removeRebalance(x, p *rbNode[K]) {
	for x != tree.root && x.isBlack() {
		// X's side. A NIL X is the nil child of P, and its sibling
		// is never NIL (p4), so the comparison is unambiguous.
		dir := Right
		if x == p.left {
			dir = Left
		}

		sibling := p.right
		if dir == Right {
			sibling = p.left
		}

		if /* r1 */ sibling.isRed() {
			sibling.color = Black
			p.color = Red
			tree.rotate(p, dir)
			sibling = p.right
			if dir == Right {
				sibling = p.left
			}
		}

		sc, sd := sibling.left, sibling.right
		if dir == Right {
			sc, sd = sibling.right, sibling.left
		}

		if /* r2 */ sc.isBlack() && sd.isBlack() {
			sibling.color = Red
			x, p = p, p.parent
			continue
		}

		if /* r3 */ sd.isBlack() {
			sc.color = Black
			sibling.color = Red
			tree.rotate(sibling, -dir)
			sibling = p.right
			if dir == Right {
				sibling = p.left
			}
			sd = sibling.right
			if dir == Right {
				sd = sibling.left
			}
		}

		/* r4 */
		sibling.color = p.color
		p.color = Black
		sd.color = Black
		tree.rotate(p, dir)
		x = tree.root
	}

	if x != nil {
		x.color = Black
	}
}

// Release clears the tree and unlinks every node without recursion.
func (tree *rbTree[K]) Release() {
	aux := tree.root
	tree.root = nil
	tree.count = 0
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.parent, aux.left, aux.right = nil, nil, nil
	}
}

type RBTreeOpt[K infra.OrderedKey] func(*rbTree[K])

func WithRBTreeDesc[K infra.OrderedKey]() RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.cmp = infra.DescComparator[K]
	}
}

// WithRBTreeComparator sets an explicit total order.
// The comparator must be consistent with key equality.
func WithRBTreeComparator[K infra.OrderedKey](cmp infra.OrderedKeyComparator[K]) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		if cmp != nil {
			tree.cmp = cmp
		}
	}
}

func NewRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) RBTree[K] {
	return newRBTree[K](opts...)
}

func newRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) *rbTree[K] {
	tree := &rbTree[K]{
		cmp: infra.AscComparator[K],
	}
	for _, o := range opts {
		o(tree)
	}
	return tree
}

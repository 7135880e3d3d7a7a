package tree

import "github.com/benz9527/xrbtree/lib/infra"

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "BLACK"
	case Red:
		return "RED"
	default:
	}
	return "UNKNOWN"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

// RBNode is the read-only view of a tree node, used by the
// reporting layer for diagnostic traversal.
// The relation getters return nil interface if absent.
type RBNode[K infra.OrderedKey] interface {
	Key() K
	Color() RBColor
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
}

// RBTree is a set of unique keys. It is not safe for concurrent use.
type RBTree[K infra.OrderedKey] interface {
	Len() int64
	Root() RBNode[K]
	// Insert returns false and leaves the tree unchanged if the key exists.
	Insert(key K) bool
	// Delete returns false and leaves the tree unchanged if the key is absent.
	Delete(key K) bool
	Search(key K) RBNode[K]
	Minimum() RBNode[K]
	Maximum() RBNode[K]
	Release()
}

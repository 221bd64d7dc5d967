// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

// rbColor is a red-black tree node color.
type rbColor bool

const (
	rbRed   rbColor = true
	rbBlack rbColor = false
)

// rbNode indexes one Pool by its TotalSize: a plain CLRS red-black tree
// keyed by capacity, used by the allocator to find the smallest pool able
// to satisfy a request without scanning every pool.
type rbNode struct {
	pool                *Pool
	color               rbColor
	left, right, parent *rbNode
}

// rbTree is the pool index. It is not safe for concurrent use on its own;
// the allocator façade guards it with its own mutex.
type rbTree struct {
	root *rbNode
	size int
}

func (t *rbTree) leftRotate(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *rbTree) rightRotate(y *rbNode) {
	x := y.left
	y.left = x.right
	if x.right != nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *rbTree) insertFixup(node *rbNode) {
	for node != t.root && node.parent.color == rbRed {
		if node.parent == node.parent.parent.left {
			uncle := node.parent.parent.right
			if uncle != nil && uncle.color == rbRed {
				node.parent.color = rbBlack
				uncle.color = rbBlack
				node.parent.parent.color = rbRed
				node = node.parent.parent
			} else {
				if node == node.parent.right {
					node = node.parent
					t.leftRotate(node)
				}
				node.parent.color = rbBlack
				node.parent.parent.color = rbRed
				t.rightRotate(node.parent.parent)
			}
		} else {
			uncle := node.parent.parent.left
			if uncle != nil && uncle.color == rbRed {
				node.parent.color = rbBlack
				uncle.color = rbBlack
				node.parent.parent.color = rbRed
				node = node.parent.parent
			} else {
				if node == node.parent.left {
					node = node.parent
					t.rightRotate(node)
				}
				node.parent.color = rbBlack
				node.parent.parent.color = rbRed
				t.leftRotate(node.parent.parent)
			}
		}
	}
	t.root.color = rbBlack
}

func (t *rbTree) transplant(u, v *rbNode) {
	if u.parent == nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func treeMinimum(node *rbNode) *rbNode {
	for node.left != nil {
		node = node.left
	}
	return node
}

func (t *rbTree) deleteFixup(x, parent *rbNode) {
	for x != t.root && (x == nil || x.color == rbBlack) {
		if x == parent.left {
			w := parent.right
			if w.color == rbRed {
				w.color = rbBlack
				parent.color = rbRed
				t.leftRotate(parent)
				w = parent.right
			}
			if (w.left == nil || w.left.color == rbBlack) && (w.right == nil || w.right.color == rbBlack) {
				w.color = rbRed
				x = parent
				parent = x.parent
			} else {
				if w.right == nil || w.right.color == rbBlack {
					if w.left != nil {
						w.left.color = rbBlack
					}
					w.color = rbRed
					t.rightRotate(w)
					w = parent.right
				}
				w.color = parent.color
				parent.color = rbBlack
				if w.right != nil {
					w.right.color = rbBlack
				}
				t.leftRotate(parent)
				x = t.root
				break
			}
		} else {
			w := parent.left
			if w.color == rbRed {
				w.color = rbBlack
				parent.color = rbRed
				t.rightRotate(parent)
				w = parent.left
			}
			if (w.right == nil || w.right.color == rbBlack) && (w.left == nil || w.left.color == rbBlack) {
				w.color = rbRed
				x = parent
				parent = x.parent
			} else {
				if w.left == nil || w.left.color == rbBlack {
					if w.right != nil {
						w.right.color = rbBlack
					}
					w.color = rbRed
					t.leftRotate(w)
					w = parent.left
				}
				w.color = parent.color
				parent.color = rbBlack
				if w.left != nil {
					w.left.color = rbBlack
				}
				t.rightRotate(parent)
				x = t.root
				break
			}
		}
	}
	if x != nil {
		x.color = rbBlack
	}
}

// insert adds pool to the index, keyed by pool.TotalSize().
func (t *rbTree) insert(pool *Pool) {
	node := &rbNode{pool: pool, color: rbRed}

	var y *rbNode
	x := t.root
	key := pool.TotalSize()
	for x != nil {
		y = x
		if key < x.pool.TotalSize() {
			x = x.left
		} else {
			x = x.right
		}
	}

	node.parent = y
	switch {
	case y == nil:
		t.root = node
	case key < y.pool.TotalSize():
		y.left = node
	default:
		y.right = node
	}

	t.insertFixup(node)
	t.size++
}

// findByIdentity searches the subtree rooted at n (remove passes the first
// node on its descent whose key equals pool's capacity, and that subtree
// holds every node of that capacity) for pool itself by pointer identity.
// Several small pools commonly share the same TotalSize, so a key match
// alone does not identify the right node; rotations can also place
// same-keyed nodes beneath nodes of a different capacity, so the subtree
// is searched exhaustively rather than re-using the key to prune
// left/right.
func findByIdentity(n *rbNode, pool *Pool) *rbNode {
	if n == nil {
		return nil
	}
	if n.pool == pool {
		return n
	}
	if found := findByIdentity(n.left, pool); found != nil {
		return found
	}
	return findByIdentity(n.right, pool)
}

// remove deletes pool's own node from the index; it reports whether a
// node was removed.
func (t *rbTree) remove(pool *Pool) bool {
	key := pool.TotalSize()
	z := t.root
	for z != nil && key != z.pool.TotalSize() {
		if key < z.pool.TotalSize() {
			z = z.left
		} else {
			z = z.right
		}
	}
	if z == nil {
		return false
	}
	z = findByIdentity(z, pool)
	if z == nil {
		return false
	}

	y := z
	var x, xParent *rbNode
	yOriginalColor := y.color

	switch {
	case z.left == nil:
		x = z.right
		xParent = z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		x = z.left
		xParent = z.parent
		t.transplant(z, z.left)
	default:
		y = treeMinimum(z.right)
		yOriginalColor = y.color
		x = y.right
		if y.parent == z {
			xParent = y
			if x != nil {
				x.parent = y
			}
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOriginalColor == rbBlack {
		t.deleteFixup(x, xParent)
	}

	t.size--
	return true
}

// findBestFit returns the smallest-capacity pool able to hold size, or nil.
func (t *rbTree) findBestFit(size int) *Pool {
	current := t.root
	var best *Pool
	for current != nil {
		if current.pool.TotalSize() >= size {
			best = current.pool
			current = current.left
		} else {
			current = current.right
		}
	}
	return best
}

// validate asserts red-black invariants; used only from tests.
func (t *rbTree) validate() bool {
	if t.root == nil {
		return true
	}
	if t.root.color != rbBlack {
		return false
	}

	blackCount := 0
	for n := t.root; n != nil; n = n.left {
		if n.color == rbBlack {
			blackCount++
		}
	}

	valid := true
	pathBlack := 0
	var walk func(n *rbNode)
	walk = func(n *rbNode) {
		if n == nil {
			if pathBlack != blackCount {
				valid = false
			}
			return
		}
		if n.color == rbRed {
			if (n.left != nil && n.left.color == rbRed) || (n.right != nil && n.right.color == rbRed) {
				valid = false
			}
		}
		if n.color == rbBlack {
			pathBlack++
		}
		walk(n.left)
		walk(n.right)
		if n.color == rbBlack {
			pathBlack--
		}
	}
	walk(t.root)
	return valid
}

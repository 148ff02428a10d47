package index

import (
	"gengartree/pkg/bnode"
)

// splitUp splits nodeID (already overflowing: Len() >= t.order) and
// threads the promoted/copied median into nodeID's parent, repeating as
// long as the parent itself overflows, and growing a new root if the
// split reaches the top. Generalizes the teacher's insertIntoParent
// (pkg/index/btree.go), trading its recursive call stack for an iterative
// walk over each node's own Parent/ParentIndex fields.
func (t *Tree[K, V, I]) splitUp(nodeID I) error {
	nowhere := t.store.Nowhere()

	for {
		refMut, ok, err := t.store.GetMut(nodeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDanglingNode
		}
		node := refMut.Value()
		isLeaf := node.IsLeaf
		parent := node.Parent
		parentIndex := node.ParentIndex
		oldNext := node.Next

		var median K
		var right *bnode.Node[K, V, I]
		if isLeaf {
			median, right = node.SplitLeaf(nowhere)
		} else {
			median, right = node.SplitInternal(nowhere)
		}
		refMut.Release()

		rightID, err := t.store.Insert(*right)
		if err != nil {
			return err
		}

		if isLeaf {
			if err := t.spliceLeafLinks(nodeID, rightID, oldNext); err != nil {
				return err
			}
		} else {
			if err := t.reindexChildrenFrom(rightID, 0); err != nil {
				return err
			}
		}

		if parent == nowhere {
			newRoot := bnode.NewInternal[K, V, I](nowhere)
			newRoot.Children = []I{nodeID}
			newRoot.InsertEdge(0, bnode.SideRight, median, rightID)
			newRootID, err := t.store.Insert(*newRoot)
			if err != nil {
				return err
			}
			t.root = newRootID
			if err := t.setParent(nodeID, newRootID, 0); err != nil {
				return err
			}
			if err := t.setParent(rightID, newRootID, 1); err != nil {
				return err
			}
			return nil
		}

		pRefMut, ok, err := t.store.GetMut(parent)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDanglingNode
		}
		childIdx := pRefMut.Value().InsertEdge(parentIndex, bnode.SideRight, median, rightID)
		overflow := pRefMut.Value().Len() >= t.order
		pRefMut.Release()

		if err := t.setParent(rightID, parent, childIdx); err != nil {
			return err
		}
		if err := t.reindexChildrenFrom(parent, childIdx+1); err != nil {
			return err
		}

		if !overflow {
			return nil
		}
		nodeID = parent
	}
}

// spliceLeafLinks wires the new right leaf into the sibling chain between
// leftID and whatever leftID used to point to.
func (t *Tree[K, V, I]) spliceLeafLinks(leftID, rightID, oldNext I) error {
	nowhere := t.store.Nowhere()

	if err := t.setLeafNext(leftID, rightID); err != nil {
		return err
	}
	refMut, ok, err := t.store.GetMut(rightID)
	if err != nil || !ok {
		return err
	}
	refMut.Value().Prev = leftID
	refMut.Value().Next = oldNext
	refMut.Release()

	if oldNext != nowhere {
		if err := t.setLeafPrev(oldNext, rightID); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree[K, V, I]) setLeafNext(id, next I) error {
	refMut, ok, err := t.store.GetMut(id)
	if err != nil || !ok {
		return err
	}
	refMut.Value().Next = next
	refMut.Release()
	return nil
}

func (t *Tree[K, V, I]) setLeafPrev(id, prev I) error {
	refMut, ok, err := t.store.GetMut(id)
	if err != nil || !ok {
		return err
	}
	refMut.Value().Prev = prev
	refMut.Release()
	return nil
}

func (t *Tree[K, V, I]) setParent(childID, parentID I, parentIndex int) error {
	refMut, ok, err := t.store.GetMut(childID)
	if err != nil || !ok {
		return err
	}
	refMut.Value().Parent = parentID
	refMut.Value().ParentIndex = parentIndex
	refMut.Release()
	return nil
}

// reindexChildrenFrom fixes Parent/ParentIndex on parentID's children at
// index >= from - needed whenever InsertEdge/RemoveEdge or a merge has
// shifted children's positions within their parent, since a Node has no
// way to reach the storage that would let it fix up a sibling itself.
func (t *Tree[K, V, I]) reindexChildrenFrom(parentID I, from int) error {
	ref, ok, err := t.store.Get(parentID)
	if err != nil || !ok {
		return err
	}
	children := append([]I(nil), ref.Value().Children[from:]...)
	ref.Release()
	for i, childID := range children {
		if err := t.setParent(childID, parentID, from+i); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree[K, V, I]) getSeparator(parent I, idx int) (K, error) {
	var zero K
	ref, ok, err := t.store.Get(parent)
	if err != nil || !ok {
		return zero, err
	}
	defer ref.Release()
	return ref.Value().Keys[idx], nil
}

func (t *Tree[K, V, I]) setSeparator(parent I, idx int, key K) error {
	refMut, ok, err := t.store.GetMut(parent)
	if err != nil || !ok {
		return err
	}
	refMut.Value().Keys[idx] = key
	refMut.Release()
	return nil
}

func (t *Tree[K, V, I]) firstLeafKey(leafID I) (K, error) {
	var zero K
	ref, ok, err := t.store.Get(leafID)
	if err != nil || !ok {
		return zero, err
	}
	defer ref.Release()
	return ref.Value().Keys[0], nil
}

// rebalanceUp repairs underflow starting at nodeID (already down a key
// from a Remove/Update) by borrowing a spare item from a sibling if one
// has room to spare, merging with a sibling otherwise, and repeating at
// the parent if the merge itself underflowed it. Mirrors splitUp's
// overflow propagation by symmetry, generalized from the redistribute-
// before-merge policy shown by Fantom-foundation-Carmen's innernode.go
// (reference pack).
func (t *Tree[K, V, I]) rebalanceUp(nodeID I) error {
	nowhere := t.store.Nowhere()
	minFill := bnode.MinFill(t.order)

	for {
		if nodeID == t.root {
			return t.collapseRootIfNeeded()
		}

		ref, ok, err := t.store.Get(nodeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDanglingNode
		}
		length := ref.Value().Len()
		isLeaf := ref.Value().IsLeaf
		parent := ref.Value().Parent
		parentIndex := ref.Value().ParentIndex
		ref.Release()

		if length >= minFill {
			return nil
		}

		pRef, ok, err := t.store.Get(parent)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDanglingNode
		}
		children := append([]I(nil), pRef.Value().Children...)
		pRef.Release()

		leftID, rightID := nowhere, nowhere
		if parentIndex > 0 {
			leftID = children[parentIndex-1]
		}
		if parentIndex < len(children)-1 {
			rightID = children[parentIndex+1]
		}

		if leftID != nowhere {
			borrowed, err := t.tryBorrowFromLeft(nodeID, leftID, parent, parentIndex, isLeaf)
			if err != nil {
				return err
			}
			if borrowed {
				return nil
			}
		}
		if rightID != nowhere {
			borrowed, err := t.tryBorrowFromRight(nodeID, rightID, parent, parentIndex, isLeaf)
			if err != nil {
				return err
			}
			if borrowed {
				return nil
			}
		}

		if leftID != nowhere {
			if err := t.mergeSiblings(leftID, nodeID, parent, parentIndex-1, isLeaf); err != nil {
				return err
			}
		} else if rightID != nowhere {
			if err := t.mergeSiblings(nodeID, rightID, parent, parentIndex, isLeaf); err != nil {
				return err
			}
		} else {
			return nil
		}

		nodeID = parent
	}
}

// tryBorrowFromLeft attempts a right-rotation: the left sibling's
// rightmost item/edge moves into nodeID's front slot, through the parent
// separator at parentIndex-1. Returns false (not an error) if the left
// sibling has nothing to spare.
func (t *Tree[K, V, I]) tryBorrowFromLeft(nodeID, leftID, parent I, parentIndex int, isLeaf bool) (bool, error) {
	minFill := bnode.MinFill(t.order)
	separatorIdx := parentIndex - 1

	leftRef, ok, err := t.store.GetMut(leftID)
	if err != nil || !ok {
		return false, err
	}

	if isLeaf {
		k, v, perr := leftRef.Value().PopRightItem(minFill)
		leftRef.Release()
		if perr != nil {
			return false, nil
		}
		nodeRef, ok, err := t.store.GetMut(nodeID)
		if err != nil || !ok {
			return false, err
		}
		nodeRef.Value().InsertItem(0, k, v)
		nodeRef.Release()
		return true, t.setSeparator(parent, separatorIdx, k)
	}

	sepKey, edge, perr := leftRef.Value().PopRightEdge(minFill)
	leftRef.Release()
	if perr != nil {
		return false, nil
	}
	oldSeparator, err := t.getSeparator(parent, separatorIdx)
	if err != nil {
		return false, err
	}

	nodeRef, ok, err := t.store.GetMut(nodeID)
	if err != nil || !ok {
		return false, err
	}
	nodeRef.Value().InsertEdge(0, bnode.SideLeft, oldSeparator, edge)
	nodeRef.Release()

	if err := t.setParent(edge, nodeID, 0); err != nil {
		return false, err
	}
	if err := t.reindexChildrenFrom(nodeID, 1); err != nil {
		return false, err
	}
	return true, t.setSeparator(parent, separatorIdx, sepKey)
}

// tryBorrowFromRight is tryBorrowFromLeft's mirror image: the right
// sibling's leftmost item/edge moves into nodeID's back slot.
func (t *Tree[K, V, I]) tryBorrowFromRight(nodeID, rightID, parent I, parentIndex int, isLeaf bool) (bool, error) {
	minFill := bnode.MinFill(t.order)
	separatorIdx := parentIndex

	rightRef, ok, err := t.store.GetMut(rightID)
	if err != nil || !ok {
		return false, err
	}

	if isLeaf {
		k, v, perr := rightRef.Value().PopLeftItem(minFill)
		rightRef.Release()
		if perr != nil {
			return false, nil
		}
		nodeRef, ok, err := t.store.GetMut(nodeID)
		if err != nil || !ok {
			return false, err
		}
		n := nodeRef.Value()
		n.InsertItem(n.Len(), k, v)
		nodeRef.Release()
		newSep, err := t.firstLeafKey(rightID)
		if err != nil {
			return false, err
		}
		return true, t.setSeparator(parent, separatorIdx, newSep)
	}

	sepKey, edge, perr := rightRef.Value().PopLeftEdge(minFill)
	rightRef.Release()
	if perr != nil {
		return false, nil
	}
	oldSeparator, err := t.getSeparator(parent, separatorIdx)
	if err != nil {
		return false, err
	}

	nodeRef, ok, err := t.store.GetMut(nodeID)
	if err != nil || !ok {
		return false, err
	}
	n := nodeRef.Value()
	childIdx := n.InsertEdge(n.Len(), bnode.SideRight, oldSeparator, edge)
	nodeRef.Release()

	if err := t.setParent(edge, nodeID, childIdx); err != nil {
		return false, err
	}
	if err := t.reindexChildrenFrom(rightID, 0); err != nil {
		return false, err
	}
	return true, t.setSeparator(parent, separatorIdx, sepKey)
}

// mergeSiblings absorbs rightID into leftID, consuming the separator at
// separatorIdx and the (separator, rightID) edge from parent. leftID and
// rightID must be adjacent siblings under parent, in that order.
func (t *Tree[K, V, I]) mergeSiblings(leftID, rightID, parent I, separatorIdx int, isLeaf bool) error {
	sepKey, err := t.getSeparator(parent, separatorIdx)
	if err != nil {
		return err
	}

	rightRef, ok, err := t.store.Get(rightID)
	if err != nil || !ok {
		return err
	}
	rightCopy := *rightRef.Value()
	rightRef.Release()

	leftRef, ok, err := t.store.GetMut(leftID)
	if err != nil || !ok {
		return err
	}
	childStart := leftRef.Value().Len() + 1
	leftRef.Value().MergeWithNext(sepKey, &rightCopy)
	leftRef.Release()

	if !isLeaf {
		if err := t.reindexChildrenFrom(leftID, childStart); err != nil {
			return err
		}
	} else if rightCopy.Next != t.store.Nowhere() {
		if err := t.setLeafPrev(rightCopy.Next, leftID); err != nil {
			return err
		}
	}

	if _, _, err := t.store.Remove(rightID); err != nil {
		return err
	}

	pRefMut, ok, err := t.store.GetMut(parent)
	if err != nil || !ok {
		return err
	}
	pRefMut.Value().RemoveEdge(separatorIdx, bnode.SideRight)
	pRefMut.Release()

	return t.reindexChildrenFrom(parent, separatorIdx)
}

// collapseRootIfNeeded handles the case where rebalanceUp walked all the
// way up to an empty internal root: its single remaining child becomes
// the new root, one level shallower. A leaf root is always allowed to be
// empty - that's just the empty tree - so it is never collapsed further.
func (t *Tree[K, V, I]) collapseRootIfNeeded() error {
	nowhere := t.store.Nowhere()
	ref, ok, err := t.store.Get(t.root)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDanglingNode
	}
	isLeaf := ref.Value().IsLeaf
	length := ref.Value().Len()
	var onlyChild I
	if !isLeaf && length == 0 {
		onlyChild = ref.Value().Children[0]
	}
	ref.Release()

	if isLeaf || length > 0 {
		return nil
	}

	oldRoot := t.root
	t.root = onlyChild
	if err := t.setParent(onlyChild, nowhere, 0); err != nil {
		return err
	}
	if _, _, err := t.store.Remove(oldRoot); err != nil {
		return err
	}
	return nil
}

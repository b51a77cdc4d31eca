package scene

import (
	"slices"

	"render-core/math"
)

func (n *TransformNode) Parent() *TransformNode { return n.parent }

// Children returns a copy of the direct children in attachment order.
func (n *TransformNode) Children() []*TransformNode {
	return slices.Clone(n.children)
}

// AttachTo changes the parent without touching the local transform, so the
// node moves with its new parent.
func (n *TransformNode) AttachTo(parent *TransformNode) {
	if n.parent == parent {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	n.touch()
}

func (n *TransformNode) removeChild(child *TransformNode) {
	if i := slices.Index(n.children, child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
}

// SetParent reparents the node while keeping its world transform: the local
// transform is rebuilt relative to the new parent.
func (n *TransformNode) SetParent(parent *TransformNode) {
	if n.parent == parent {
		return
	}

	world := n.ComputeWorldMatrix(true)
	diff := world
	if parent != nil {
		diff = world.Mul(parent.ComputeWorldMatrix(true).Inverse())
	}

	scale, rotation, position, _ := diff.Decompose()
	if n.hasQuaternion {
		n.rotationQuaternion = rotation
	} else {
		n.rotation = rotation.ToEulerAngles()
	}
	n.scaling = scale
	n.position = position

	n.AttachTo(parent)
}

// IsDescendantOf reports whether ancestor appears in the parent chain.
func (n *TransformNode) IsDescendantOf(ancestor *TransformNode) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Descendants lists the subtree below n depth first. With directOnly only the
// children are returned.
func (n *TransformNode) Descendants(directOnly bool) []*TransformNode {
	if directOnly {
		return n.Children()
	}
	var out []*TransformNode
	for _, child := range n.children {
		child.Traverse(func(d *TransformNode) {
			out = append(out, d)
		})
	}
	return out
}

// Traverse visits n and then its subtree depth first.
func (n *TransformNode) Traverse(callback func(*TransformNode)) {
	callback(n)
	for _, child := range n.children {
		child.Traverse(callback)
	}
}

// Find returns the first node in the subtree with the given name.
func (n *TransformNode) Find(name string) *TransformNode {
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Dispose releases the node. Children are disposed too unless doNotRecurse,
// in which case they are detached and keep their world transform.
func (n *TransformNode) Dispose(doNotRecurse bool) {
	if n.disposed {
		return
	}
	if n.onDisposing != nil {
		n.onDisposing()
	}
	n.scene.removeTransformNode(n)
	n.OnAfterWorldMatrixUpdateObservable.Clear()

	children := slices.Clone(n.children)
	if doNotRecurse {
		for _, child := range children {
			child.SetParent(nil)
			child.ComputeWorldMatrix(true)
		}
	} else {
		for _, child := range children {
			child.Dispose(false)
		}
	}

	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	n.children = nil

	n.OnDisposeObservable.NotifyObservers(n)
	n.OnDisposeObservable.Clear()
	n.disposed = true
}

// worldPosition is a shorthand used by the culling and sorting code.
func (n *TransformNode) worldPosition() math.Vec3 {
	return n.WorldMatrix().Translation()
}

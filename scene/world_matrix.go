package scene

import (
	"render-core/math"
)

// nonUniformScalingEpsilon is tighter than math.Epsilon so that small but
// real scaling differences still select the non-uniform normal path.
const nonUniformScalingEpsilon = 1e-6

// WorldMatrix returns the cached world matrix, recomputing it when the node
// is dirty or was last computed for another frame.
func (n *TransformNode) WorldMatrix() math.Mat4 {
	if n.isDirty || n.currentRenderID != n.scene.RenderID() {
		n.ComputeWorldMatrix(false)
	}
	return n.worldMatrix
}

// isSynchronized compares the live transform with the snapshot taken by the
// last computation.
func (n *TransformNode) isSynchronized() bool {
	if !n.isSynchronizedWithParent() {
		return false
	}
	c := &n.cache
	if n.billboardMode != c.billboardMode || n.billboardMode != BillboardModeNone {
		return false
	}
	if c.pivotMatrixUpdated || n.infiniteDistance {
		return false
	}
	if n.position != c.position || n.scaling != c.scaling {
		return false
	}
	if n.hasQuaternion {
		return n.rotationQuaternion == c.rotationQuaternion
	}
	return n.rotation == c.rotation
}

func (n *TransformNode) isSynchronizedWithParent() bool {
	if n.cache.parent != n.parent {
		n.cache.parent = n.parent
		return false
	}
	if n.parent == nil {
		return true
	}
	if n.parentUpdateID != n.parent.childUpdateID {
		return false
	}
	return n.parent.isSynchronized()
}

// ComputeWorldMatrix brings the world matrix up to date. Without force a
// synchronized node returns its cached matrix.
func (n *TransformNode) ComputeWorldMatrix(force bool) math.Mat4 {
	if n.isWorldMatrixFrozen && !n.isDirty {
		return n.worldMatrix
	}

	renderID := n.scene.RenderID()
	if !n.isDirty && !force && n.isSynchronized() {
		n.currentRenderID = renderID
		return n.worldMatrix
	}

	camera := n.scene.ActiveCamera
	usePosition := n.billboardMode&BillboardModeUsePosition != 0
	useBillboardPath := n.billboardMode != BillboardModeNone && !n.preserveParentRotationForBillboard

	if useBillboardPath && camera != nil && usePosition {
		n.LookAt(camera.Position(), 0, 0, 0, LocalSpace)
		r := n.rotation
		if n.billboardMode&BillboardModeX == 0 {
			r.X = 0
		}
		if n.billboardMode&BillboardModeY == 0 {
			r.Y = 0
		}
		if n.billboardMode&BillboardModeZ == 0 {
			r.Z = 0
		}
		n.rotation = r
	}

	n.updateCache()
	n.currentRenderID = renderID
	n.childUpdateID++
	n.isDirty = false

	parent := n.parent

	translation := n.position
	if n.infiniteDistance && parent == nil && camera != nil && &camera.TransformNode != n {
		translation = translation.Add(camera.WorldMatrix().Translation())
	}

	scaling := n.scaling.Mul(n.ScalingDeterminant)

	var rotation math.Quaternion
	if n.hasQuaternion {
		if n.ReIntegrateRotationIntoRotationQuaternion && n.rotation.LengthSqr() != 0 {
			n.rotationQuaternion = n.rotationQuaternion.Mul(math.QuaternionFromEuler(n.rotation))
			n.rotation = math.Vec3Zero
			n.cache.rotationQuaternion = n.rotationQuaternion
		}
		rotation = n.rotationQuaternion
	} else {
		rotation = math.QuaternionFromEuler(n.rotation)
	}

	if n.usePivotMatrix {
		local := n.pivotMatrix.Mul(math.Mat4Scale(scaling)).Mul(rotation.ToMat4())
		if n.postMultiplyPivotMatrix {
			local = local.Mul(n.pivotMatrixInverse)
		}
		n.localMatrix = local.SetTranslation(local.Translation().Add(translation))
	} else {
		n.localMatrix = math.Mat4Compose(scaling, rotation, translation)
	}

	if parent != nil {
		if force {
			parent.ComputeWorldMatrix(true)
		}
		parentWorld := parent.WorldMatrix()
		if useBillboardPath {
			parentScale, _, parentTranslation, _ := parentWorld.Decompose()
			n.worldMatrix = n.localMatrix.Mul(math.Mat4Scale(parentScale).SetTranslation(parentTranslation))
		} else {
			n.worldMatrix = n.localMatrix.Mul(parentWorld)
		}
		n.parentUpdateID = parent.childUpdateID
	} else {
		n.worldMatrix = n.localMatrix
	}

	if useBillboardPath && camera != nil && !usePosition {
		n.applyCameraBillboard(camera)
	}

	switch {
	case n.IgnoreNonUniformScaling:
		n.nonUniformScaling = false
	case n.scaling.IsNonUniformWithinEpsilon(nonUniformScalingEpsilon):
		n.nonUniformScaling = true
	case parent != nil:
		n.nonUniformScaling = parent.nonUniformScaling
	default:
		n.nonUniformScaling = false
	}

	n.absolutePosition = n.worldMatrix.Translation()
	n.isAbsoluteSynced = false
	n.worldDeterminantDirty = true

	n.afterWorldMatrixUpdate()

	if n.poseMatrix == nil {
		pose := n.worldMatrix.Inverse()
		n.poseMatrix = &pose
	}
	return n.worldMatrix
}

func (n *TransformNode) afterWorldMatrixUpdate() {
	if n.onWorldMatrixComputed != nil {
		n.onWorldMatrixComputed()
	}
	n.OnAfterWorldMatrixUpdateObservable.NotifyObservers(n)
}

func (n *TransformNode) updateCache() {
	c := &n.cache
	c.parent = n.parent
	c.pivotMatrixUpdated = false
	c.billboardMode = n.billboardMode
	c.infiniteDistance = n.infiniteDistance
	c.position = n.position
	c.scaling = n.scaling
	if n.hasQuaternion {
		c.rotationQuaternion = n.rotationQuaternion
	} else {
		c.rotation = n.rotation
	}
}

// applyCameraBillboard cancels the camera rotation on the enabled axes while
// keeping the world translation.
func (n *TransformNode) applyCameraBillboard(camera *Camera) {
	stored := n.worldMatrix.Translation()
	cancel := camera.ViewMatrix().WithoutTranslation().Inverse()

	if n.billboardMode&BillboardModeAll != BillboardModeAll {
		_, q, _, _ := cancel.Decompose()
		euler := q.ToEulerAngles()
		if n.billboardMode&BillboardModeX == 0 {
			euler.X = 0
		}
		if n.billboardMode&BillboardModeY == 0 {
			euler.Y = 0
		}
		if n.billboardMode&BillboardModeZ == 0 {
			euler.Z = 0
		}
		cancel = math.Mat4RotationYawPitchRoll(euler.Y, euler.X, euler.Z)
	}

	n.worldMatrix = n.worldMatrix.WithoutTranslation().Mul(cancel).SetTranslation(stored)
}

// ── Freezing ────────────────────────────────────────────────────────────────

// FreezeWorldMatrix computes the world matrix once and keeps it until
// UnfreezeWorldMatrix.
func (n *TransformNode) FreezeWorldMatrix() {
	n.isWorldMatrixFrozen = false
	n.ComputeWorldMatrix(true)
	n.isDirty = false
	n.isWorldMatrixFrozen = true
}

// FreezeWorldMatrixTo freezes the node on m. With decompose the local
// transform is rebuilt from m instead of adopting it verbatim.
func (n *TransformNode) FreezeWorldMatrixTo(m math.Mat4, decompose bool) {
	n.isWorldMatrixFrozen = false
	if decompose {
		scale, rotation, translation, _ := m.Decompose()
		n.scaling = scale
		n.SetRotationQuaternion(rotation)
		n.position = translation
		n.ComputeWorldMatrix(true)
	} else {
		n.worldMatrix = m
		n.absolutePosition = m.Translation()
		n.isAbsoluteSynced = false
		n.worldDeterminantDirty = true
		n.afterWorldMatrixUpdate()
	}
	n.isDirty = false
	n.isWorldMatrixFrozen = true
}

func (n *TransformNode) UnfreezeWorldMatrix() {
	n.isWorldMatrixFrozen = false
	n.ComputeWorldMatrix(true)
}

func (n *TransformNode) IsWorldMatrixFrozen() bool { return n.isWorldMatrixFrozen }

// ── Absolute values ─────────────────────────────────────────────────────────

func (n *TransformNode) syncAbsoluteScalingAndRotation() {
	if n.isAbsoluteSynced {
		return
	}
	scale, rotation, _, _ := n.worldMatrix.Decompose()
	n.absoluteScaling = scale
	n.absoluteRotationQuaternion = rotation
	n.isAbsoluteSynced = true
}

func (n *TransformNode) AbsoluteScaling() math.Vec3 {
	n.ComputeWorldMatrix(false)
	n.syncAbsoluteScalingAndRotation()
	return n.absoluteScaling
}

func (n *TransformNode) AbsoluteRotationQuaternion() math.Quaternion {
	n.ComputeWorldMatrix(false)
	n.syncAbsoluteScalingAndRotation()
	return n.absoluteRotationQuaternion
}

// WorldMatrixDeterminant is negative when the world transform mirrors.
func (n *TransformNode) WorldMatrixDeterminant() float32 {
	if n.worldDeterminantDirty {
		n.worldDeterminant = n.ComputeWorldMatrix(false).Determinant()
		n.worldDeterminantDirty = false
	}
	return n.worldDeterminant
}

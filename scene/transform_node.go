package scene

import (
	"github.com/chewxy/math32"

	"render-core/core"
	"render-core/math"
)

// Billboard modes are bit flags.
const (
	BillboardModeNone        = 0
	BillboardModeX           = 1
	BillboardModeY           = 2
	BillboardModeZ           = 4
	BillboardModeAll         = 7
	BillboardModeUsePosition = 128
)

type Space int

const (
	LocalSpace Space = iota
	WorldSpace
)

// invalidRenderID never matches a scene render id.
const invalidRenderID = -1

type transformCache struct {
	parent             *TransformNode
	position           math.Vec3
	scaling            math.Vec3
	rotation           math.Vec3
	rotationQuaternion math.Quaternion
	billboardMode      int
	infiniteDistance   bool
	pivotMatrixUpdated bool
}

// TransformNode carries a local transform and the cached world matrix derived
// from it and from its parent chain.
type TransformNode struct {
	Name string
	ID   string

	uniqueID int
	scene    *Scene
	enabled  bool

	parent   *TransformNode
	children []*TransformNode

	position           math.Vec3
	rotation           math.Vec3
	rotationQuaternion math.Quaternion
	hasQuaternion      bool
	scaling            math.Vec3

	billboardMode                      int
	preserveParentRotationForBillboard bool
	infiniteDistance                   bool

	// IgnoreNonUniformScaling forces NonUniformScaling to false.
	IgnoreNonUniformScaling bool
	// ScalingDeterminant multiplies the local scaling.
	ScalingDeterminant float32
	// ReIntegrateRotationIntoRotationQuaternion folds Euler rotation set next to
	// a quaternion into the quaternion on the next world matrix computation.
	ReIntegrateRotationIntoRotationQuaternion bool

	pivotMatrix             math.Mat4
	pivotMatrixInverse      math.Mat4
	usePivotMatrix          bool
	postMultiplyPivotMatrix bool

	localMatrix       math.Mat4
	worldMatrix       math.Mat4
	poseMatrix        *math.Mat4
	nonUniformScaling bool

	absolutePosition           math.Vec3
	absoluteScaling            math.Vec3
	absoluteRotationQuaternion math.Quaternion
	isAbsoluteSynced           bool

	worldDeterminant      float32
	worldDeterminantDirty bool

	cache               transformCache
	isDirty             bool
	isWorldMatrixFrozen bool
	currentRenderID     int
	childUpdateID       int
	parentUpdateID      int

	disposed bool
	// onDisposing lets embedding types release what they own before the
	// node detaches.
	onDisposing func()
	// onWorldMatrixComputed runs before the public observers are notified.
	onWorldMatrixComputed func()

	OnAfterWorldMatrixUpdateObservable core.Observable[*TransformNode]
	OnDisposeObservable                core.Observable[*TransformNode]
}

// NewTransformNode creates a node without geometry and registers it with scene.
func NewTransformNode(name string, scene *Scene) *TransformNode {
	n := &TransformNode{}
	n.init(name, scene)
	scene.addTransformNode(n)
	return n
}

func (n *TransformNode) init(name string, scene *Scene) {
	n.Name = name
	n.ID = name
	n.scene = scene
	n.uniqueID = scene.nextUniqueID()
	n.enabled = true
	n.scaling = math.Vec3One
	n.ScalingDeterminant = 1
	n.pivotMatrix = math.Mat4Identity()
	n.pivotMatrixInverse = math.Mat4Identity()
	n.localMatrix = math.Mat4Identity()
	n.worldMatrix = math.Mat4Identity()
	n.absoluteScaling = math.Vec3One
	n.absoluteRotationQuaternion = math.QuaternionIdentity()
	n.worldDeterminantDirty = true
	n.currentRenderID = invalidRenderID
	// A zero cached scaling never matches a live node, so the first
	// computation always runs.
	n.cache.scaling = math.Vec3Zero
}

func (n *TransformNode) UniqueID() int    { return n.uniqueID }
func (n *TransformNode) Scene() *Scene    { return n.scene }
func (n *TransformNode) IsDisposed() bool { return n.disposed }

// IsEnabled reports the node's own flag, and with checkAncestors also requires
// every ancestor to be enabled.
func (n *TransformNode) IsEnabled(checkAncestors bool) bool {
	if !checkAncestors {
		return n.enabled
	}
	for node := n; node != nil; node = node.parent {
		if !node.enabled {
			return false
		}
	}
	return true
}

func (n *TransformNode) SetEnabled(enabled bool) { n.enabled = enabled }

func (n *TransformNode) Position() math.Vec3 { return n.position }

func (n *TransformNode) SetPosition(p math.Vec3) {
	n.position = p
	n.touch()
}

// Rotation returns the Euler rotation (pitch, yaw, roll). While a rotation
// quaternion is set it is zero or a rotation pending reintegration.
func (n *TransformNode) Rotation() math.Vec3 { return n.rotation }

// SetRotation makes the Euler rotation authoritative and drops any quaternion.
// With ReIntegrateRotationIntoRotationQuaternion set and a quaternion present,
// r is kept as a pending rotation that the next world matrix computation
// applies after the quaternion and then resets to zero.
func (n *TransformNode) SetRotation(r math.Vec3) {
	n.rotation = r
	if !n.ReIntegrateRotationIntoRotationQuaternion {
		n.hasQuaternion = false
	}
	n.touch()
}

// RotationQuaternion returns the quaternion and whether one is set.
func (n *TransformNode) RotationQuaternion() (math.Quaternion, bool) {
	return n.rotationQuaternion, n.hasQuaternion
}

// SetRotationQuaternion makes q authoritative and zeroes the Euler rotation.
func (n *TransformNode) SetRotationQuaternion(q math.Quaternion) {
	n.rotationQuaternion = q
	n.hasQuaternion = true
	n.rotation = math.Vec3Zero
	n.touch()
}

// ClearRotationQuaternion returns the node to Euler rotation.
func (n *TransformNode) ClearRotationQuaternion() {
	n.hasQuaternion = false
	n.touch()
}

func (n *TransformNode) Scaling() math.Vec3 { return n.scaling }

func (n *TransformNode) SetScaling(s math.Vec3) {
	n.scaling = s
	n.touch()
}

func (n *TransformNode) BillboardMode() int { return n.billboardMode }

func (n *TransformNode) SetBillboardMode(mode int) {
	if n.billboardMode == mode {
		return
	}
	n.billboardMode = mode
	n.touch()
}

func (n *TransformNode) PreserveParentRotationForBillboard() bool {
	return n.preserveParentRotationForBillboard
}

func (n *TransformNode) SetPreserveParentRotationForBillboard(v bool) {
	if n.preserveParentRotationForBillboard == v {
		return
	}
	n.preserveParentRotationForBillboard = v
	n.touch()
}

func (n *TransformNode) InfiniteDistance() bool { return n.infiniteDistance }

func (n *TransformNode) SetInfiniteDistance(v bool) {
	if n.infiniteDistance == v {
		return
	}
	n.infiniteDistance = v
	n.touch()
}

// MarkAsDirty forces the next world matrix computation. Marking "rotation"
// hands authority back to the Euler angles.
func (n *TransformNode) MarkAsDirty(property string) {
	if property == "rotation" {
		n.hasQuaternion = false
	}
	n.currentRenderID = invalidRenderID
	n.isDirty = true
}

// touch records a field change. A frozen node keeps its matrix until it is
// unfrozen or explicitly marked dirty.
func (n *TransformNode) touch() {
	if !n.isWorldMatrixFrozen {
		n.isDirty = true
	}
}

func (n *TransformNode) IsDirty() bool { return n.isDirty }

// NonUniformScaling reports whether the world transform scales unevenly.
func (n *TransformNode) NonUniformScaling() bool { return n.nonUniformScaling }

func (n *TransformNode) LocalMatrix() math.Mat4 { return n.localMatrix }

// PoseMatrix is the inverse world matrix captured on first computation unless
// set explicitly.
func (n *TransformNode) PoseMatrix() math.Mat4 {
	if n.poseMatrix == nil {
		n.poseMatrix = new(math.Mat4)
		*n.poseMatrix = math.Mat4Identity()
	}
	return *n.poseMatrix
}

func (n *TransformNode) UpdatePoseMatrix(m math.Mat4) {
	if n.poseMatrix == nil {
		n.poseMatrix = new(math.Mat4)
	}
	*n.poseMatrix = m
}

// ── Pivot ───────────────────────────────────────────────────────────────────

// SetPivotMatrix sets the matrix applied before scaling. With
// postMultiply its inverse is applied after rotation, so the pivot only moves
// the center of rotation and scaling.
func (n *TransformNode) SetPivotMatrix(m math.Mat4, postMultiply bool) {
	n.pivotMatrix = m
	n.usePivotMatrix = !m.IsIdentity()
	n.cache.pivotMatrixUpdated = true
	n.postMultiplyPivotMatrix = postMultiply
	if postMultiply {
		n.pivotMatrixInverse = m.Inverse()
	}
}

func (n *TransformNode) PivotMatrix() math.Mat4 { return n.pivotMatrix }

// SetPreTransformMatrix sets a pivot matrix without the inverse post-multiply.
func (n *TransformNode) SetPreTransformMatrix(m math.Mat4) {
	n.SetPivotMatrix(m, false)
}

// SetPivotPoint moves the center of rotation and scaling to point, given in
// local or world space.
func (n *TransformNode) SetPivotPoint(point math.Vec3, space Space) {
	if n.scene.RenderID() == 0 {
		n.ComputeWorldMatrix(true)
	}
	if space == WorldSpace {
		point = point.TransformCoordinates(n.WorldMatrix().Inverse())
	}
	n.SetPivotMatrix(math.Mat4Translation(point.Negate()), true)
}

func (n *TransformNode) PivotPoint() math.Vec3 {
	return n.pivotMatrix.Translation().Negate()
}

func (n *TransformNode) AbsolutePivotPoint() math.Vec3 {
	return n.PivotPoint().TransformCoordinates(n.WorldMatrix())
}

// ── Position helpers ────────────────────────────────────────────────────────

// AbsolutePosition is the world-space position.
func (n *TransformNode) AbsolutePosition() math.Vec3 {
	n.ComputeWorldMatrix(false)
	return n.absolutePosition
}

// SetAbsolutePosition places the node at a world-space position.
func (n *TransformNode) SetAbsolutePosition(p math.Vec3) {
	if n.parent != nil {
		p = p.TransformCoordinates(n.parent.WorldMatrix().Inverse())
	}
	n.SetPosition(p)
}

// SetPositionWithLocalVector sets the position from a vector expressed in the
// node's local axes.
func (n *TransformNode) SetPositionWithLocalVector(v math.Vec3) {
	n.ComputeWorldMatrix(false)
	n.SetPosition(v.TransformNormal(n.localMatrix))
}

func (n *TransformNode) PositionExpressedInLocalSpace() math.Vec3 {
	n.ComputeWorldMatrix(false)
	return n.position.TransformNormal(n.localMatrix.Inverse())
}

// LocallyTranslate moves the node along its local axes.
func (n *TransformNode) LocallyTranslate(v math.Vec3) {
	n.ComputeWorldMatrix(true)
	n.SetPosition(n.position.Add(v.TransformCoordinates(n.localMatrix.WithoutTranslation())))
}

// ── Orientation ─────────────────────────────────────────────────────────────

// LookAt orients the node's forward axis toward target. The corrections are
// added to the resulting yaw, pitch and roll.
func (n *TransformNode) LookAt(target math.Vec3, yawCor, pitchCor, rollCor float32, space Space) {
	var origin math.Vec3
	if space == LocalSpace {
		origin = n.position
	} else {
		origin = n.AbsolutePosition()
	}
	n.SetDirection(target.Sub(origin), yawCor, pitchCor, rollCor)

	if space == WorldSpace && n.parent != nil {
		parentRotation := n.parent.AbsoluteRotationQuaternion().Inverse()
		if n.hasQuaternion {
			n.SetRotationQuaternion(parentRotation.Mul(n.rotationQuaternion))
		} else {
			q := parentRotation.Mul(math.QuaternionFromEuler(n.rotation))
			n.SetRotation(q.ToEulerAngles())
		}
	}
}

// SetDirection orients the node's forward axis along direction.
func (n *TransformNode) SetDirection(direction math.Vec3, yawCor, pitchCor, rollCor float32) {
	yaw := -math32.Atan2(direction.Z, direction.X) + math32.Pi/2
	length := math32.Sqrt(direction.X*direction.X + direction.Z*direction.Z)
	pitch := -math32.Atan2(direction.Y, length)

	if n.hasQuaternion {
		n.SetRotationQuaternion(math.QuaternionRotationYawPitchRoll(yaw+yawCor, pitch+pitchCor, rollCor))
		return
	}
	n.SetRotation(math.Vec3{X: pitch + pitchCor, Y: yaw + yawCor, Z: rollCor})
}

// Direction transforms a local axis into world space.
func (n *TransformNode) Direction(localAxis math.Vec3) math.Vec3 {
	return localAxis.TransformNormal(n.WorldMatrix())
}

func (n *TransformNode) Forward() math.Vec3 { return n.Direction(math.Vec3Front).Normalize() }
func (n *TransformNode) Up() math.Vec3      { return n.Direction(math.Vec3Up).Normalize() }
func (n *TransformNode) Right() math.Vec3   { return n.Direction(math.Vec3Right).Normalize() }

// toQuaternion converts an Euler rotation into the quaternion form used by the
// incremental rotation helpers.
func (n *TransformNode) toQuaternion() math.Quaternion {
	if !n.hasQuaternion {
		n.SetRotationQuaternion(math.QuaternionFromEuler(n.rotation))
	}
	return n.rotationQuaternion
}

// Rotate rotates the node by amount radians around axis. World-space axes are
// expressed in the parent's frame first.
func (n *TransformNode) Rotate(axis math.Vec3, amount float32, space Space) {
	axis = axis.Normalize()
	current := n.toQuaternion()

	if space == LocalSpace {
		n.SetRotationQuaternion(current.Mul(math.QuaternionFromAxisAngle(axis, amount)))
		return
	}
	if n.parent != nil {
		axis = axis.TransformNormal(n.parent.ComputeWorldMatrix(false).Inverse())
	}
	n.SetRotationQuaternion(math.QuaternionFromAxisAngle(axis, amount).Mul(current))
}

// RotateAround rotates the node around a world axis passing through point.
func (n *TransformNode) RotateAround(point, axis math.Vec3, amount float32) {
	axis = axis.Normalize()
	current := n.toQuaternion()

	offset := point.Sub(n.position)
	final := math.Mat4Translation(offset.Negate()).
		Mul(math.Mat4RotationAxis(axis, amount)).
		Mul(math.Mat4Translation(offset))

	_, rotation, translation, _ := final.Decompose()
	n.SetPosition(n.position.Add(translation))
	n.SetRotationQuaternion(rotation.Mul(current))
}

// Translate moves the node by distance along axis in the given space.
func (n *TransformNode) Translate(axis math.Vec3, distance float32, space Space) {
	displacement := axis.Mul(distance)
	if space == WorldSpace {
		n.SetAbsolutePosition(n.AbsolutePosition().Add(displacement))
		return
	}
	local := n.PositionExpressedInLocalSpace().Add(displacement)
	n.SetPositionWithLocalVector(local)
}

// AddRotation applies yaw y, pitch x and roll z after the current rotation,
// keeping whichever representation is authoritative.
func (n *TransformNode) AddRotation(x, y, z float32) {
	var current math.Quaternion
	if n.hasQuaternion {
		current = n.rotationQuaternion
	} else {
		current = math.QuaternionFromEuler(n.rotation)
	}
	current = current.Mul(math.QuaternionRotationYawPitchRoll(y, x, z))

	if n.hasQuaternion {
		n.SetRotationQuaternion(current)
		return
	}
	n.SetRotation(current.ToEulerAngles())
}

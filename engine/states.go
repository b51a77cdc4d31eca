package engine

// ── Depth / culling ─────────────────────────────────────────────────────────

// DepthCullingState caches depth, culling and polygon offset state. Setters
// only mark a field dirty when the value changes; Apply pushes dirty fields.
type DepthCullingState struct {
	depthTest    bool
	depthMask    bool
	depthFunc    uint32
	cull         bool
	cullFace     uint32
	zOffset      float32
	zOffsetUnits float32
	frontFace    uint32

	depthTestDirty bool
	depthMaskDirty bool
	depthFuncDirty bool
	cullDirty      bool
	cullFaceDirty  bool
	zOffsetDirty   bool
	frontFaceDirty bool
}

func NewDepthCullingState() *DepthCullingState {
	s := &DepthCullingState{}
	s.Reset()
	return s
}

func (s *DepthCullingState) IsDirty() bool {
	return s.depthTestDirty || s.depthMaskDirty || s.depthFuncDirty || s.cullDirty ||
		s.cullFaceDirty || s.zOffsetDirty || s.frontFaceDirty
}

func (s *DepthCullingState) DepthTest() bool       { return s.depthTest }
func (s *DepthCullingState) DepthMask() bool       { return s.depthMask }
func (s *DepthCullingState) DepthFunc() uint32     { return s.depthFunc }
func (s *DepthCullingState) Cull() bool            { return s.cull }
func (s *DepthCullingState) CullFace() uint32      { return s.cullFace }
func (s *DepthCullingState) ZOffset() float32      { return s.zOffset }
func (s *DepthCullingState) ZOffsetUnits() float32 { return s.zOffsetUnits }
func (s *DepthCullingState) FrontFace() uint32     { return s.frontFace }

func (s *DepthCullingState) SetDepthTest(v bool) {
	if s.depthTest == v {
		return
	}
	s.depthTest = v
	s.depthTestDirty = true
}

func (s *DepthCullingState) SetDepthMask(v bool) {
	if s.depthMask == v {
		return
	}
	s.depthMask = v
	s.depthMaskDirty = true
}

func (s *DepthCullingState) SetDepthFunc(v uint32) {
	if s.depthFunc == v {
		return
	}
	s.depthFunc = v
	s.depthFuncDirty = true
}

func (s *DepthCullingState) SetCull(v bool) {
	if s.cull == v {
		return
	}
	s.cull = v
	s.cullDirty = true
}

func (s *DepthCullingState) SetCullFace(v uint32) {
	if s.cullFace == v {
		return
	}
	s.cullFace = v
	s.cullFaceDirty = true
}

func (s *DepthCullingState) SetZOffset(v float32) {
	if s.zOffset == v {
		return
	}
	s.zOffset = v
	s.zOffsetDirty = true
}

func (s *DepthCullingState) SetZOffsetUnits(v float32) {
	if s.zOffsetUnits == v {
		return
	}
	s.zOffsetUnits = v
	s.zOffsetDirty = true
}

func (s *DepthCullingState) SetFrontFace(v uint32) {
	if s.frontFace == v {
		return
	}
	s.frontFace = v
	s.frontFaceDirty = true
}

// Reset restores defaults and marks every field dirty.
func (s *DepthCullingState) Reset() {
	s.depthMask = true
	s.depthTest = true
	s.depthFunc = GL_LEQUAL
	s.cullFace = GL_BACK
	s.cull = false
	s.zOffset = 0
	s.zOffsetUnits = 0
	s.frontFace = GL_CCW

	s.depthTestDirty = true
	s.depthMaskDirty = true
	s.depthFuncDirty = true
	s.cullDirty = true
	s.cullFaceDirty = true
	s.zOffsetDirty = true
	s.frontFaceDirty = true
}

func (s *DepthCullingState) Apply(d Driver) {
	if !s.IsDirty() {
		return
	}
	if s.cullDirty {
		if s.cull {
			d.Enable(GL_CULL_FACE)
		} else {
			d.Disable(GL_CULL_FACE)
		}
		s.cullDirty = false
	}
	if s.cullFaceDirty {
		d.CullFace(s.cullFace)
		s.cullFaceDirty = false
	}
	if s.depthMaskDirty {
		d.DepthMask(s.depthMask)
		s.depthMaskDirty = false
	}
	if s.depthTestDirty {
		if s.depthTest {
			d.Enable(GL_DEPTH_TEST)
		} else {
			d.Disable(GL_DEPTH_TEST)
		}
		s.depthTestDirty = false
	}
	if s.depthFuncDirty {
		d.DepthFunc(s.depthFunc)
		s.depthFuncDirty = false
	}
	if s.zOffsetDirty {
		if s.zOffset != 0 || s.zOffsetUnits != 0 {
			d.Enable(GL_POLYGON_OFFSET_FILL)
			d.PolygonOffset(s.zOffset, s.zOffsetUnits)
		} else {
			d.Disable(GL_POLYGON_OFFSET_FILL)
		}
		s.zOffsetDirty = false
	}
	if s.frontFaceDirty {
		d.FrontFace(s.frontFace)
		s.frontFaceDirty = false
	}
}

// ── Alpha blending ──────────────────────────────────────────────────────────

// AlphaState caches blending state. Parameters start unknown after Reset so the
// first explicit set is always pushed.
type AlphaState struct {
	alphaBlend     bool
	funcParams     [4]uint32
	equationParams [2]uint32
	constants      [4]float32
	funcKnown      bool
	equationKnown  bool
	constantsKnown bool

	alphaBlendDirty bool
	funcDirty       bool
	equationDirty   bool
	constantsDirty  bool
}

func NewAlphaState() *AlphaState {
	s := &AlphaState{}
	s.Reset()
	return s
}

func (s *AlphaState) IsDirty() bool {
	return s.alphaBlendDirty || s.funcDirty || s.equationDirty || s.constantsDirty
}

func (s *AlphaState) AlphaBlend() bool { return s.alphaBlend }

func (s *AlphaState) SetAlphaBlend(v bool) {
	if s.alphaBlend == v {
		return
	}
	s.alphaBlend = v
	s.alphaBlendDirty = true
}

func (s *AlphaState) FunctionParameters() [4]uint32 { return s.funcParams }

func (s *AlphaState) SetFunctionParameters(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	params := [4]uint32{srcRGB, dstRGB, srcAlpha, dstAlpha}
	if s.funcKnown && s.funcParams == params {
		return
	}
	s.funcParams = params
	s.funcKnown = true
	s.funcDirty = true
}

func (s *AlphaState) SetEquationParameters(rgb, alpha uint32) {
	params := [2]uint32{rgb, alpha}
	if s.equationKnown && s.equationParams == params {
		return
	}
	s.equationParams = params
	s.equationKnown = true
	s.equationDirty = true
}

func (s *AlphaState) SetConstants(r, g, b, a float32) {
	c := [4]float32{r, g, b, a}
	if s.constantsKnown && s.constants == c {
		return
	}
	s.constants = c
	s.constantsKnown = true
	s.constantsDirty = true
}

func (s *AlphaState) Reset() {
	s.alphaBlend = false
	s.funcParams = [4]uint32{}
	s.equationParams = [2]uint32{}
	s.constants = [4]float32{}
	s.funcKnown = false
	s.equationKnown = false
	s.constantsKnown = false

	s.alphaBlendDirty = true
	s.funcDirty = false
	s.equationDirty = false
	s.constantsDirty = false
}

func (s *AlphaState) Apply(d Driver) {
	if !s.IsDirty() {
		return
	}
	if s.alphaBlendDirty {
		if s.alphaBlend {
			d.Enable(GL_BLEND)
		} else {
			d.Disable(GL_BLEND)
		}
		s.alphaBlendDirty = false
	}
	if s.funcDirty {
		p := s.funcParams
		d.BlendFuncSeparate(p[0], p[1], p[2], p[3])
		s.funcDirty = false
	}
	if s.equationDirty {
		d.BlendEquationSeparate(s.equationParams[0], s.equationParams[1])
		s.equationDirty = false
	}
	if s.constantsDirty {
		c := s.constants
		d.BlendColor(c[0], c[1], c[2], c[3])
		s.constantsDirty = false
	}
}

// ── Stencil ─────────────────────────────────────────────────────────────────

type StencilState struct {
	enabled            bool
	mask               uint32
	fn                 uint32
	funcRef            int32
	funcMask           uint32
	opStencilFail      uint32
	opDepthFail        uint32
	opStencilDepthPass uint32

	testDirty bool
	maskDirty bool
	funcDirty bool
	opDirty   bool
}

func NewStencilState() *StencilState {
	s := &StencilState{}
	s.Reset()
	return s
}

func (s *StencilState) IsDirty() bool {
	return s.testDirty || s.maskDirty || s.funcDirty || s.opDirty
}

func (s *StencilState) Enabled() bool { return s.enabled }
func (s *StencilState) Func() uint32  { return s.fn }

func (s *StencilState) SetEnabled(v bool) {
	if s.enabled == v {
		return
	}
	s.enabled = v
	s.testDirty = true
}

func (s *StencilState) SetMask(v uint32) {
	if s.mask == v {
		return
	}
	s.mask = v
	s.maskDirty = true
}

func (s *StencilState) SetFunc(fn uint32, ref int32, mask uint32) {
	if s.fn == fn && s.funcRef == ref && s.funcMask == mask {
		return
	}
	s.fn = fn
	s.funcRef = ref
	s.funcMask = mask
	s.funcDirty = true
}

func (s *StencilState) SetOp(stencilFail, depthFail, pass uint32) {
	if s.opStencilFail == stencilFail && s.opDepthFail == depthFail && s.opStencilDepthPass == pass {
		return
	}
	s.opStencilFail = stencilFail
	s.opDepthFail = depthFail
	s.opStencilDepthPass = pass
	s.opDirty = true
}

func (s *StencilState) Reset() {
	s.enabled = false
	s.mask = 0xFF
	s.fn = GL_ALWAYS
	s.funcRef = 1
	s.funcMask = 0xFF
	s.opStencilFail = GL_KEEP
	s.opDepthFail = GL_KEEP
	s.opStencilDepthPass = GL_REPLACE

	s.testDirty = true
	s.maskDirty = true
	s.funcDirty = true
	s.opDirty = true
}

func (s *StencilState) Apply(d Driver) {
	if !s.IsDirty() {
		return
	}
	if s.testDirty {
		if s.enabled {
			d.Enable(GL_STENCIL_TEST)
		} else {
			d.Disable(GL_STENCIL_TEST)
		}
		s.testDirty = false
	}
	if s.maskDirty {
		d.StencilMask(s.mask)
		s.maskDirty = false
	}
	if s.funcDirty {
		d.StencilFunc(s.fn, s.funcRef, s.funcMask)
		s.funcDirty = false
	}
	if s.opDirty {
		d.StencilOp(s.opStencilFail, s.opDepthFail, s.opStencilDepthPass)
		s.opDirty = false
	}
}

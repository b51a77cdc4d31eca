package engine

// OpenGL enumerants used by the engine. Values match the GL 4.1 core headers so
// a driver can pass them through unchanged.
const (
	GL_NONE  uint32 = 0
	GL_ZERO  uint32 = 0
	GL_ONE   uint32 = 1
	GL_FALSE        = 0
	GL_TRUE         = 1

	GL_POINTS         uint32 = 0x0000
	GL_LINES          uint32 = 0x0001
	GL_LINE_LOOP      uint32 = 0x0002
	GL_LINE_STRIP     uint32 = 0x0003
	GL_TRIANGLES      uint32 = 0x0004
	GL_TRIANGLE_STRIP uint32 = 0x0005
	GL_TRIANGLE_FAN   uint32 = 0x0006

	GL_NEVER    uint32 = 0x0200
	GL_LESS     uint32 = 0x0201
	GL_EQUAL    uint32 = 0x0202
	GL_LEQUAL   uint32 = 0x0203
	GL_GREATER  uint32 = 0x0204
	GL_NOTEQUAL uint32 = 0x0205
	GL_GEQUAL   uint32 = 0x0206
	GL_ALWAYS   uint32 = 0x0207

	GL_SRC_COLOR           uint32 = 0x0300
	GL_ONE_MINUS_SRC_COLOR uint32 = 0x0301
	GL_SRC_ALPHA           uint32 = 0x0302
	GL_ONE_MINUS_SRC_ALPHA uint32 = 0x0303
	GL_DST_ALPHA           uint32 = 0x0304
	GL_ONE_MINUS_DST_ALPHA uint32 = 0x0305
	GL_DST_COLOR           uint32 = 0x0306
	GL_ONE_MINUS_DST_COLOR uint32 = 0x0307
	GL_CONSTANT_COLOR      uint32 = 0x8001

	GL_FUNC_ADD              uint32 = 0x8006
	GL_MIN                   uint32 = 0x8007
	GL_MAX                   uint32 = 0x8008
	GL_FUNC_SUBTRACT         uint32 = 0x800A
	GL_FUNC_REVERSE_SUBTRACT uint32 = 0x800B

	GL_FRONT          uint32 = 0x0404
	GL_BACK           uint32 = 0x0405
	GL_FRONT_AND_BACK uint32 = 0x0408
	GL_CW             uint32 = 0x0900
	GL_CCW            uint32 = 0x0901

	GL_CULL_FACE           uint32 = 0x0B44
	GL_DEPTH_TEST          uint32 = 0x0B71
	GL_STENCIL_TEST        uint32 = 0x0B90
	GL_BLEND               uint32 = 0x0BE2
	GL_POLYGON_OFFSET_FILL uint32 = 0x8037

	GL_KEEP      uint32 = 0x1E00
	GL_REPLACE   uint32 = 0x1E01
	GL_INCR      uint32 = 0x1E02
	GL_DECR      uint32 = 0x1E03
	GL_INVERT    uint32 = 0x150A
	GL_INCR_WRAP uint32 = 0x8507
	GL_DECR_WRAP uint32 = 0x8508

	GL_BYTE           uint32 = 0x1400
	GL_UNSIGNED_BYTE  uint32 = 0x1401
	GL_SHORT          uint32 = 0x1402
	GL_UNSIGNED_SHORT uint32 = 0x1403
	GL_INT            uint32 = 0x1404
	GL_UNSIGNED_INT   uint32 = 0x1405
	GL_FLOAT          uint32 = 0x1406

	GL_RGB  uint32 = 0x1907
	GL_RGBA uint32 = 0x1908
	GL_RED  uint32 = 0x1903

	GL_ARRAY_BUFFER         uint32 = 0x8892
	GL_ELEMENT_ARRAY_BUFFER uint32 = 0x8893
	GL_STATIC_DRAW          uint32 = 0x88E4
	GL_DYNAMIC_DRAW         uint32 = 0x88E8

	GL_FRAGMENT_SHADER uint32 = 0x8B30
	GL_VERTEX_SHADER   uint32 = 0x8B31

	GL_TEXTURE_2D                    uint32 = 0x0DE1
	GL_TEXTURE_CUBE_MAP              uint32 = 0x8513
	GL_TEXTURE0                      uint32 = 0x84C0
	GL_TEXTURE_MAG_FILTER            uint32 = 0x2800
	GL_TEXTURE_MIN_FILTER            uint32 = 0x2801
	GL_TEXTURE_WRAP_S                uint32 = 0x2802
	GL_TEXTURE_WRAP_T                uint32 = 0x2803
	GL_NEAREST                       uint32 = 0x2600
	GL_LINEAR                        uint32 = 0x2601
	GL_NEAREST_MIPMAP_NEAREST        uint32 = 0x2700
	GL_LINEAR_MIPMAP_NEAREST         uint32 = 0x2701
	GL_NEAREST_MIPMAP_LINEAR         uint32 = 0x2702
	GL_LINEAR_MIPMAP_LINEAR          uint32 = 0x2703
	GL_REPEAT                        uint32 = 0x2901
	GL_CLAMP_TO_EDGE                 uint32 = 0x812F
	GL_MIRRORED_REPEAT               uint32 = 0x8370
	GL_UNPACK_ALIGNMENT              uint32 = 0x0CF5
	GL_MAX_TEXTURE_IMAGE_UNITS       uint32 = 0x8872
	GL_MAX_VERTEX_ATTRIBS            uint32 = 0x8869
	GL_MAX_TEXTURE_SIZE              uint32 = 0x0D33
	GL_COLOR_BUFFER_BIT              uint32 = 0x00004000
	GL_DEPTH_BUFFER_BIT              uint32 = 0x00000100
	GL_STENCIL_BUFFER_BIT            uint32 = 0x00000400
	GL_NO_ERROR                      uint32 = 0
	GL_INVALID_ENUM                  uint32 = 0x0500
	GL_INVALID_VALUE                 uint32 = 0x0501
	GL_INVALID_OPERATION             uint32 = 0x0502
	GL_OUT_OF_MEMORY                 uint32 = 0x0505
	GL_CONTEXT_LOST                  uint32 = 0x0507
	GL_INVALID_FRAMEBUFFER_OPERATION uint32 = 0x0506
)

// Fill and draw modes accepted by Draw.
const (
	TriangleFillMode      = 0
	WireFrameFillMode     = 1
	PointFillMode         = 2
	PointListDrawMode     = 3
	LineListDrawMode      = 4
	LineLoopDrawMode      = 5
	LineStripDrawMode     = 6
	TriangleStripDrawMode = 7
	TriangleFanDrawMode   = 8
)

// Alpha blending modes accepted by SetAlphaMode.
const (
	AlphaDisable       = 0
	AlphaAdd           = 1
	AlphaCombine       = 2
	AlphaSubtract      = 3
	AlphaMultiply      = 4
	AlphaMaximized     = 5
	AlphaOneOne        = 6
	AlphaPremultiplied = 7
)

// Texture sampling modes.
const (
	TextureNearestSamplingMode   = 1
	TextureBilinearSamplingMode  = 2
	TextureTrilinearSamplingMode = 3
)

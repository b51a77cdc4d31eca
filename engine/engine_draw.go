package engine

// Draw issues an indexed draw with triangles or wireframe lines.
func (e *ThinEngine) Draw(useTriangles bool, indexStart, indexCount, instancesCount int) {
	mode := TriangleFillMode
	if !useTriangles {
		mode = WireFrameFillMode
	}
	e.DrawElementsType(mode, indexStart, indexCount, instancesCount)
}

// DrawPointClouds draws vertices as points.
func (e *ThinEngine) DrawPointClouds(verticesStart, verticesCount, instancesCount int) {
	e.DrawArraysType(PointFillMode, verticesStart, verticesCount, instancesCount)
}

// DrawElementsType applies pending state and draws from the bound index buffer.
func (e *ThinEngine) DrawElementsType(fillMode, indexStart, indexCount, instancesCount int) {
	e.ApplyStates()
	e.reportDrawCall()

	drawMode := e.drawMode(fillMode)
	indexFormat := GL_UNSIGNED_SHORT
	mult := 2
	if e.uintIndicesCurrentlySet {
		indexFormat = GL_UNSIGNED_INT
		mult = 4
	}
	if instancesCount > 0 {
		e.driver.DrawElementsInstanced(drawMode, int32(indexCount), indexFormat, indexStart*mult, int32(instancesCount))
	} else {
		e.driver.DrawElements(drawMode, int32(indexCount), indexFormat, indexStart*mult)
	}
}

// DrawArraysType applies pending state and draws unindexed vertices.
func (e *ThinEngine) DrawArraysType(fillMode, verticesStart, verticesCount, instancesCount int) {
	e.ApplyStates()
	e.reportDrawCall()

	drawMode := e.drawMode(fillMode)
	if instancesCount > 0 {
		e.driver.DrawArraysInstanced(drawMode, int32(verticesStart), int32(verticesCount), int32(instancesCount))
	} else {
		e.driver.DrawArrays(drawMode, int32(verticesStart), int32(verticesCount))
	}
}

func (e *ThinEngine) drawMode(fillMode int) uint32 {
	switch fillMode {
	case TriangleFillMode:
		return GL_TRIANGLES
	case PointFillMode, PointListDrawMode:
		return GL_POINTS
	case WireFrameFillMode, LineListDrawMode:
		return GL_LINES
	case LineLoopDrawMode:
		return GL_LINE_LOOP
	case LineStripDrawMode:
		return GL_LINE_STRIP
	case TriangleStripDrawMode:
		return GL_TRIANGLE_STRIP
	case TriangleFanDrawMode:
		return GL_TRIANGLE_FAN
	default:
		return GL_TRIANGLES
	}
}

func (e *ThinEngine) reportDrawCall() {
	e.drawCalls++
}

package engine

import "errors"

var (
	ErrContextLost     = errors.New("rendering context lost")
	ErrEngineDisposed  = errors.New("engine disposed")
	ErrBufferCreation  = errors.New("unable to create buffer")
	ErrShaderCreation  = errors.New("unable to create shader")
	ErrProgramCreation = errors.New("unable to create program")
)

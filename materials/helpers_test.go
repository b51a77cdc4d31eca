package materials

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"render-core/core"
	"render-core/engine"
	"render-core/engine/enginetest"
)

const (
	plainVertex   = "attribute vec3 position;\nvoid main(void) {\n    gl_Position = vec4(position, 1.0);\n}\n"
	plainFragment = "void main(void) {\n    gl_FragColor = vec4(1.0);\n}\n"
)

func newTestEngine(t *testing.T) (*engine.ThinEngine, *enginetest.Driver) {
	t.Helper()
	return newTestEngineWith(t, core.DefaultEngineConfig())
}

func newTestEngineWith(t *testing.T, config core.EngineConfig) (*engine.ThinEngine, *enginetest.Driver) {
	t.Helper()
	d := enginetest.NewDriver()
	e := engine.New(d, config, core.NopLogger())
	t.Cleanup(e.Dispose)
	return e, d
}

// mapLoader serves files synchronously from memory.
func mapLoader(files map[string]string) FileLoader {
	return func(url string, onSuccess func(string), onError func(error)) {
		if data, ok := files[filepath.ToSlash(url)]; ok {
			onSuccess(data)
			return
		}
		onError(fmt.Errorf("%s: %w", url, os.ErrNotExist))
	}
}

// deferredLoader holds every request until deliver is called.
type deferredLoader struct {
	pending []func()
}

func (l *deferredLoader) load(url string, onSuccess func(string), onError func(error)) {
	l.pending = append(l.pending, func() { onSuccess("void main(void) {}\n") })
}

func (l *deferredLoader) deliver() {
	pending := l.pending
	l.pending = nil
	for _, fn := range pending {
		fn()
	}
}

type fakeMesh map[string]bool

func (m fakeMesh) IsVerticesDataPresent(kind string) bool { return m[kind] }

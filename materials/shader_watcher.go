package materials

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"render-core/engine"
)

// ShaderWatcher recompiles effects when their repository files change.
// Files are read on the watcher goroutine; rebuilds run on the render thread
// through the engine task queue.
type ShaderWatcher struct {
	engine  *engine.ThinEngine
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	done    chan bool

	// effects by stage file base name, touched only on the render thread
	effects map[string][]*Effect
}

// NewShaderWatcher watches the shader repository and its include directory.
// Missing directories are skipped.
func NewShaderWatcher(e *engine.ThinEngine, logger *slog.Logger) (*ShaderWatcher, error) {
	if logger == nil {
		logger = e.Logger()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create shader watcher: %w", err)
	}
	sw := &ShaderWatcher{
		engine:  e,
		logger:  logger.With("component", "shader-watcher"),
		watcher: watcher,
		effects: make(map[string][]*Effect),
	}

	repository := e.ShaderStore().Repository
	for _, dir := range []string{repository, filepath.Join(repository, "ShadersInclude")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return sw, nil
}

// Watch registers an effect for reload. Inline shaders are ignored.
func (sw *ShaderWatcher) Watch(effect *Effect) {
	name := effect.Name()
	for _, stage := range []string{name.Vertex, name.Fragment} {
		if strings.HasPrefix(stage, "source:") || strings.HasPrefix(stage, "base64:") {
			continue
		}
		base := filepath.Base(stage)
		if !containsEffect(sw.effects[base], effect) {
			sw.effects[base] = append(sw.effects[base], effect)
		}
	}
}

// Unwatch stops reloading an effect.
func (sw *ShaderWatcher) Unwatch(effect *Effect) {
	for base, list := range sw.effects {
		for i, fx := range list {
			if fx == effect {
				sw.effects[base] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(sw.effects[base]) == 0 {
			delete(sw.effects, base)
		}
	}
}

func containsEffect(list []*Effect, effect *Effect) bool {
	for _, fx := range list {
		if fx == effect {
			return true
		}
	}
	return false
}

// Start monitors the watcher channels until Close.
func (sw *ShaderWatcher) Start() {
	if sw.done != nil {
		return
	}
	sw.done = make(chan bool)
	go func() {
		watch := sw.watcher
		done := sw.done
		for {
			select {
			case <-done:
				return
			case event, ok := <-watch.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					sw.handle(event.Name)
				}
			case err, ok := <-watch.Errors:
				if !ok {
					return
				}
				sw.logger.Warn("watcher error", "error", err)
			}
		}
	}()
}

// handle classifies a changed file and posts the reload.
func (sw *ShaderWatcher) handle(path string) {
	if !strings.HasSuffix(path, ".fx") {
		return
	}
	if filepath.Base(filepath.Dir(path)) == "ShadersInclude" {
		include := strings.TrimSuffix(filepath.Base(path), ".fx")
		sw.engine.QueueTask(func() {
			sw.reloadInclude(include)
		})
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), ".fx")
	var base, stage string
	switch {
	case strings.HasSuffix(name, ".vertex"):
		base, stage = strings.TrimSuffix(name, ".vertex"), "vertex"
	case strings.HasSuffix(name, ".fragment"):
		base, stage = strings.TrimSuffix(name, ".fragment"), "fragment"
	default:
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		sw.logger.Warn("unable to read shader", "path", path, "error", err)
		return
	}
	source := string(data)
	sw.engine.QueueTask(func() {
		sw.reloadStage(base, stage, source)
	})
}

func (sw *ShaderWatcher) reloadInclude(include string) {
	sw.engine.ShaderStore().DeleteInclude(include)
	sw.logger.Info("include changed", "include", include)

	seen := make(map[*Effect]bool)
	for base, list := range sw.effects {
		for _, fx := range list {
			if seen[fx] {
				continue
			}
			seen[fx] = true
			sw.rebuild(fx, base, "", "")
		}
	}
}

func (sw *ShaderWatcher) reloadStage(base, stage, source string) {
	for _, fx := range sw.effects[base] {
		vertex, fragment := "", ""
		if stage == "vertex" {
			vertex = source
		} else {
			fragment = source
		}
		sw.rebuild(fx, base, vertex, fragment)
	}
}

// rebuild recompiles fx with the given stage code, reading the other stage
// from the store or the repository.
func (sw *ShaderWatcher) rebuild(fx *Effect, base, vertex, fragment string) {
	if fx.IsDisposed() {
		sw.Unwatch(fx)
		return
	}
	name := fx.Name()
	var err error
	if vertex == "" {
		if vertex, err = sw.stageSource(name.Vertex, "vertex"); err != nil {
			sw.logger.Warn("unable to reload effect", "effect", base, "error", err)
			return
		}
	}
	if fragment == "" {
		if fragment, err = sw.stageSource(name.Fragment, "fragment"); err != nil {
			sw.logger.Warn("unable to reload effect", "effect", base, "error", err)
			return
		}
	}

	sw.logger.Info("rebuilding effect", "effect", base)
	fx.RebuildProgram(vertex, fragment, nil, func(message string) {
		sw.logger.Error("reloaded effect failed, keeping previous program", "effect", base, "error", message)
	})
}

func (sw *ShaderWatcher) stageSource(name, stage string) (string, error) {
	store := sw.engine.ShaderStore()
	key := "Vertex"
	if stage == "fragment" {
		key = "Fragment"
	}
	if source, ok := store.Shader(name + key + "Shader"); ok {
		return source, nil
	}
	data, err := os.ReadFile(store.ShaderURL(name, stage))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close stops the monitor goroutine and releases the watcher.
func (sw *ShaderWatcher) Close() error {
	if sw.done != nil {
		close(sw.done)
		sw.done = nil
	}
	return sw.watcher.Close()
}

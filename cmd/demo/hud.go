package main

import (
	"fmt"
	"strings"

	"render-core/renderer"
)

// statusLine collects short stats fragments for the window title.
type statusLine struct {
	parts []string
}

func (s *statusLine) Add(format string, args ...any) {
	s.parts = append(s.parts, fmt.Sprintf(format, args...))
}

func (s *statusLine) Reset() {
	s.parts = s.parts[:0]
}

func (s *statusLine) String() string {
	return strings.Join(s.parts, " | ")
}

// hud refreshes the window title with frame stats at most twice a second.
type hud struct {
	title   string
	line    statusLine
	elapsed float32
	frames  int
}

func (h *hud) Update(re *renderer.RenderEngine, dn *DayNight, dt float32) {
	h.elapsed += dt
	h.frames++
	if h.elapsed < 0.5 {
		return
	}
	stats := re.Stats()
	h.line.Reset()
	h.line.Add("%s", h.title)
	h.line.Add("%.0f fps", float32(h.frames)/h.elapsed)
	h.line.Add("%d meshes", stats.ActiveMesh)
	h.line.Add("%d draws", stats.DrawCalls)
	h.line.Add("%s", dn.TimeOfDayStr())
	re.Window.SetTitle(h.line.String())
	h.elapsed, h.frames = 0, 0
}

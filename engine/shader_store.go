package engine

import "path/filepath"

// ShaderStore holds shader and include sources registered in code for one
// engine. Names missing from the store are loaded from Repository.
type ShaderStore struct {
	Repository string
	// UseHighPrecision selects highp over mediump when a shader does not
	// declare float precision itself.
	UseHighPrecision bool

	shaders  map[string]string
	includes map[string]string
}

func NewShaderStore(repository string) *ShaderStore {
	return &ShaderStore{
		Repository:       repository,
		UseHighPrecision: true,
		shaders:          make(map[string]string),
		includes:         make(map[string]string),
	}
}

// SetShader registers a stage source under its store key, for example
// "defaultVertexShader" or "defaultFragmentShader".
func (s *ShaderStore) SetShader(key, source string) {
	s.shaders[key] = source
}

func (s *ShaderStore) Shader(key string) (string, bool) {
	source, ok := s.shaders[key]
	return source, ok
}

func (s *ShaderStore) DeleteShader(key string) {
	delete(s.shaders, key)
}

func (s *ShaderStore) SetInclude(name, source string) {
	s.includes[name] = source
}

func (s *ShaderStore) Include(name string) (string, bool) {
	source, ok := s.includes[name]
	return source, ok
}

func (s *ShaderStore) DeleteInclude(name string) {
	delete(s.includes, name)
}

// ShaderURL returns the file a stage is loaded from when it is not in the
// store. Names starting with "." or "/" are used as paths directly.
func (s *ShaderStore) ShaderURL(name, stage string) string {
	base := name
	if len(name) == 0 || (name[0] != '.' && name[0] != '/') {
		base = filepath.Join(s.Repository, name)
	}
	return base + "." + stage + ".fx"
}

// IncludeURL returns the file an include is loaded from.
func (s *ShaderStore) IncludeURL(name string) string {
	return filepath.Join(s.Repository, "ShadersInclude", name+".fx")
}

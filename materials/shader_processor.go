package materials

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"render-core/engine"
)

// FileLoader fetches url and reports through exactly one of the callbacks.
// Callbacks must run on the render thread.
type FileLoader func(url string, onSuccess func(data string), onError func(err error))

// ProcessingOptions configures source processing for one shader stage.
type ProcessingOptions struct {
	IsFragment bool
	// IndexParameters resolve symbolic include range bounds such as
	// [0..maxSimultaneousLights].
	IndexParameters  map[string]int
	UseHighPrecision bool
	Store            *engine.ShaderStore
	Loader           FileLoader
}

var (
	includeRegexp   = regexp.MustCompile(`#include<(.+)>(\((.*)\))*(\[(.*)\])*`)
	indexRegexp     = regexp.MustCompile(`\{X\}`)
	extensionRegexp = regexp.MustCompile(`#extension.+(GL_OVR_multiview2|GL_OES_standard_derivatives|GL_EXT_shader_texture_lod|GL_EXT_frag_depth|GL_EXT_draw_buffers).+(enable|require)`)
	drawBuffers     = regexp.MustCompile(`#extension.+GL_EXT_draw_buffers.+require`)
	attributeRegexp = regexp.MustCompile(`(?m)^(\s*)attribute\s+`)
	varyingRegexp   = regexp.MustCompile(`(?m)^(\s*)varying\s+`)
	texture2DRegexp = regexp.MustCompile(`texture2D\s*\(`)
	textureCube     = regexp.MustCompile(`textureCube\s*\(`)
	textureLodEXT   = regexp.MustCompile(`texture(2D|Cube)LodEXT\s*\(`)
	mainRegexp      = regexp.MustCompile(`void\s+?main\s*\(`)
	fragOutput      = regexp.MustCompile(`layout *\(location *= *0\) *out`)
)

// ProcessShader expands includes and converts source to GLSL 3 for the core
// profile. done runs once with the result, possibly after include files load.
func ProcessShader(source string, options ProcessingOptions, done func(code string, err error)) {
	ProcessIncludes(source, options, func(code string, err error) {
		if err != nil {
			done("", err)
			return
		}
		done(convertShader(code, options), nil)
	})
}

// ProcessIncludes replaces every #include<name>(params)[range] directive with
// the include source. Includes missing from the store are loaded through the
// loader, stored, and processing restarts.
func ProcessIncludes(source string, options ProcessingOptions, done func(code string, err error)) {
	result := source
	keepProcessing := false

	for _, match := range includeRegexp.FindAllStringSubmatch(source, -1) {
		name := match[1]
		content, ok := options.Store.Include(name)
		if !ok {
			if options.Loader == nil {
				done("", fmt.Errorf("include %q not found", name))
				return
			}
			url := options.Store.IncludeURL(name)
			options.Loader(url, func(data string) {
				options.Store.SetInclude(name, data)
				ProcessIncludes(result, options, done)
			}, func(err error) {
				done("", fmt.Errorf("load include %q: %w", name, err))
			})
			return
		}

		if match[2] != "" {
			content = replaceIncludeParameters(content, match[3])
		}
		if match[4] != "" {
			expanded, err := expandIncludeIndex(content, match[5], options.IndexParameters)
			if err != nil {
				done("", fmt.Errorf("include %q: %w", name, err))
				return
			}
			content = expanded
		}

		result = strings.Replace(result, match[0], content, 1)
		keepProcessing = keepProcessing || strings.Contains(content, "#include<")
	}

	if keepProcessing {
		ProcessIncludes(result, options, done)
		return
	}
	done(result, nil)
}

// replaceIncludeParameters applies "pattern,replacement" pairs to content.
func replaceIncludeParameters(content, params string) string {
	splits := strings.Split(params, ",")
	for i := 0; i+1 < len(splits); i += 2 {
		pattern := strings.TrimSpace(splits[i])
		re, err := regexp.Compile(pattern)
		if err != nil {
			re = regexp.MustCompile(regexp.QuoteMeta(pattern))
		}
		content = re.ReplaceAllLiteralString(content, strings.TrimSpace(splits[i+1]))
	}
	return content
}

// expandIncludeIndex substitutes {X}. A "min..max" range repeats content for
// every index in [min, max); max may name an index parameter.
func expandIncludeIndex(content, index string, parameters map[string]int) (string, error) {
	if !strings.Contains(index, "..") {
		return indexRegexp.ReplaceAllLiteralString(content, index), nil
	}

	bounds := strings.SplitN(index, "..", 2)
	minIndex, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return "", fmt.Errorf("invalid include range %q", index)
	}
	maxIndex, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		value, ok := parameters[strings.TrimSpace(bounds[1])]
		if !ok {
			return "", fmt.Errorf("unknown index parameter %q", bounds[1])
		}
		maxIndex = value
	}

	var b strings.Builder
	for i := minIndex; i < maxIndex; i++ {
		b.WriteString(indexRegexp.ReplaceAllLiteralString(content, strconv.Itoa(i)))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ProcessPrecision adds a default float precision or lowers an existing
// highp declaration when high precision is off.
func ProcessPrecision(source string, highPrecision bool) string {
	if !strings.Contains(source, "precision highp float") {
		if highPrecision {
			return "precision highp float;\n" + source
		}
		return "precision mediump float;\n" + source
	}
	if !highPrecision {
		return strings.Replace(source, "precision highp float", "precision mediump float", 1)
	}
	return source
}

// convertShader rewrites GLSL 1 style declarations and builtins into their
// GLSL 3 forms.
func convertShader(source string, options ProcessingOptions) string {
	code := ProcessPrecision(source, options.UseHighPrecision)

	hasDrawBuffers := drawBuffers.MatchString(code)
	code = extensionRegexp.ReplaceAllString(code, "")

	code = attributeRegexp.ReplaceAllString(code, "${1}in ")
	if options.IsFragment {
		code = varyingRegexp.ReplaceAllString(code, "${1}in ")
	} else {
		code = varyingRegexp.ReplaceAllString(code, "${1}out ")
	}

	code = texture2DRegexp.ReplaceAllString(code, "texture(")
	if !options.IsFragment {
		return code
	}

	hasOutput := fragOutput.MatchString(code)
	code = textureLodEXT.ReplaceAllString(code, "textureLod(")
	code = textureCube.ReplaceAllString(code, "texture(")
	code = strings.ReplaceAll(code, "gl_FragDepthEXT", "gl_FragDepth")
	code = strings.ReplaceAll(code, "gl_FragColor", "glFragColor")
	code = strings.ReplaceAll(code, "gl_FragData", "glFragData")

	prefix := "layout(location = 0) out vec4 glFragColor;\n"
	if hasDrawBuffers || hasOutput {
		prefix = ""
	}
	return mainRegexp.ReplaceAllLiteralString(code, prefix+"void main(")
}

package materials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectFallbacksReduceWholeLines(t *testing.T) {
	fallbacks := NewEffectFallbacks()
	fallbacks.AddFallback(1, "UV1")
	fallbacks.AddFallback(1, "FOG")
	fallbacks.AddFallback(4, "NORMAL")

	assert.Equal(t, []int{1, 4}, fallbacks.Ranks())
	assert.Equal(t, 1, fallbacks.CurrentRank())

	defines := "#define UV1\n#define UV10\n  #define FOG\n#define NORMAL"
	defines = fallbacks.Reduce(defines)
	assert.Equal(t, "#define UV10\n#define NORMAL", defines)
	assert.Equal(t, 4, fallbacks.CurrentRank())
	assert.True(t, fallbacks.HasMoreFallbacks())

	defines = fallbacks.Reduce(defines)
	assert.Equal(t, "#define UV10", defines)
	assert.False(t, fallbacks.HasMoreFallbacks())
}

func TestEffectFallbacksStartAtLowestRank(t *testing.T) {
	fallbacks := NewEffectFallbacks()
	fallbacks.AddFallback(40, "A")
	fallbacks.AddFallback(64, "B")

	assert.Equal(t, 40, fallbacks.CurrentRank())
	defines := fallbacks.Reduce("#define A\n#define B")
	assert.Equal(t, "#define B", defines)
	assert.Equal(t, 64, fallbacks.CurrentRank())
	assert.True(t, fallbacks.HasMoreFallbacks())

	assert.Empty(t, fallbacks.Reduce(defines))
	assert.False(t, fallbacks.HasMoreFallbacks())
}

func TestEffectFallbacksEmpty(t *testing.T) {
	fallbacks := NewEffectFallbacks()

	assert.False(t, fallbacks.HasMoreFallbacks())
	assert.Empty(t, fallbacks.Ranks())
	assert.Equal(t, "#define A", fallbacks.Reduce("#define A"))
}

package materials

import (
	"math"
	"sort"
	"strings"
)

// EffectFallbacks lists defines to drop, lowest rank first, when an effect
// fails to compile.
type EffectFallbacks struct {
	defines     map[int][]string
	currentRank int
	maxRank     int
}

func NewEffectFallbacks() *EffectFallbacks {
	return &EffectFallbacks{
		defines:     make(map[int][]string),
		currentRank: math.MaxInt,
		maxRank:     -1,
	}
}

// AddFallback schedules define (without the "#define " prefix) for removal at
// rank.
func (f *EffectFallbacks) AddFallback(rank int, define string) {
	if _, ok := f.defines[rank]; !ok {
		if rank < f.currentRank {
			f.currentRank = rank
		}
		if rank > f.maxRank {
			f.maxRank = rank
		}
	}
	f.defines[rank] = append(f.defines[rank], define)
}

func (f *EffectFallbacks) HasMoreFallbacks() bool {
	return f.currentRank <= f.maxRank
}

// CurrentRank is the rank the next Reduce removes.
func (f *EffectFallbacks) CurrentRank() int { return f.currentRank }

// Ranks returns the populated ranks in ascending order.
func (f *EffectFallbacks) Ranks() []int {
	ranks := make([]int, 0, len(f.defines))
	for rank := range f.defines {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	return ranks
}

// Reduce removes the current rank's defines from defines and advances to the
// next populated rank. Only whole "#define NAME" lines are removed, so
// UV1 never strips UV10.
func (f *EffectFallbacks) Reduce(defines string) string {
	if names, ok := f.defines[f.currentRank]; ok {
		drop := make(map[string]bool, len(names))
		for _, name := range names {
			drop["#define "+name] = true
		}
		lines := strings.Split(defines, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if drop[strings.TrimSpace(line)] {
				continue
			}
			kept = append(kept, line)
		}
		defines = strings.Join(kept, "\n")
	}

	next := f.maxRank + 1
	for rank := range f.defines {
		if rank > f.currentRank && rank < next {
			next = rank
		}
	}
	f.currentRank = next
	return defines
}

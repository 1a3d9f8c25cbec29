package generation

import (
	"math"

	"backdrop/internal/domain"
)

type aspectCandidate struct {
	tag   string
	ratio float64
}

// Declaration order doubles as the tie-break order: when two candidates sit
// at the same distance from the requested ratio, the earlier one wins.
var aspectCandidates = []aspectCandidate{
	{"16:9", 16.0 / 9.0},
	{"9:16", 9.0 / 16.0},
	{"1:1", 1.0},
	{"4:3", 4.0 / 3.0},
	{"3:4", 3.0 / 4.0},
}

// ClosestAspectRatio maps an arbitrary pixel size onto the nearest aspect
// ratio the model supports.
func ClosestAspectRatio(width, height int) string {
	target := float64(width) / float64(height)
	best := aspectCandidates[0].tag
	minDiff := math.MaxFloat64
	for _, c := range aspectCandidates {
		diff := math.Abs(target - c.ratio)
		if diff < minDiff {
			minDiff = diff
			best = c.tag
		}
	}
	return best
}

// Output tier upgrade thresholds. The model's discrete tiers under-sample
// large custom canvases, so big requests are bumped up before submission.
const (
	tierUpgrade4KAbove = 2048
	tierUpgrade2KAbove = 1280
)

// ResolveImageSize upgrades the requested tier when the larger custom
// dimension exceeds the fixed thresholds.
func ResolveImageSize(width, height int, base domain.Resolution) domain.Resolution {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	if maxDim > tierUpgrade4KAbove {
		return domain.Resolution4K
	}
	if maxDim > tierUpgrade2KAbove && base == domain.Resolution1K {
		return domain.Resolution2K
	}
	return base
}

package scoring

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

// DefaultMinConfidence is the gate below which a fuzzy match is discarded.
const DefaultMinConfidence = 90.0

// MatchCandidate is one scored company eligible for contact matching.
type MatchCandidate struct {
	Name       string
	Normalized string
	Score      float64
}

// MatchScore scores the similarity of two pre-normalized company keys on a
// 0-100 scale. The ladder is ordered: exact match beats containment beats
// sequence similarity, and a large length difference short-circuits to 0
// before any character comparison.
func MatchScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	minLen, maxLen := len(a), len(b)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	lenRatio := float64(minLen) / float64(maxLen)
	if lenRatio < 0.8 {
		return 0
	}

	// Containment capped below exact match to preserve ordering.
	if (strings.Contains(a, b) || strings.Contains(b, a)) && minLen >= 5 && lenRatio > 0.9 {
		return 97
	}

	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	if ratio := m.Ratio(); ratio >= 0.98 {
		return ratio * 100
	}
	return 0
}

// FindBestMatch scans candidates in input order and returns the highest
// match at or above minConfidence; earlier candidates win ties. A zero
// result (Found false, empty name) is the valid no-match terminal state.
func FindBestMatch(normalized string, candidates []MatchCandidate, minConfidence float64) model.MatchResult {
	if strings.TrimSpace(normalized) == "" {
		return model.MatchResult{}
	}

	var best model.MatchResult
	for _, c := range candidates {
		if strings.TrimSpace(c.Normalized) == "" {
			continue
		}
		score := MatchScore(normalized, c.Normalized)
		if score >= minConfidence && score > best.Confidence {
			best = model.MatchResult{
				MatchedName:  c.Name,
				Confidence:   score,
				CompanyScore: c.Score,
				Found:        true,
			}
		}
	}
	return best
}

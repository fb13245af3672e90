package scoring

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ContactScorer computes per-title pillar scores (seniority, domain, warmth)
// from the keyword rule table.
type ContactScorer struct {
	rules *Rules
}

// NewContactScorer creates a scorer over the given rules.
func NewContactScorer(rules *Rules) *ContactScorer {
	return &ContactScorer{rules: rules}
}

// TitleScores computes the three people pillar scores for a job title. A
// one-off override, when matched, replaces both seniority and domain with the
// override score; seniority modifiers still apply on top.
func (s *ContactScorer) TitleScores(title string) (seniority, domain, warmth float64) {
	if override, ok := s.OneOffScore(title); ok {
		seniority = s.applyModifiers(title, override)
		domain = override
		return seniority, domain, 0
	}
	return s.SeniorityScore(title), s.DomainScore(title), 0
}

// SeniorityScore returns the maximum base score among matching seniority
// components, adjusted by any matching modifier components and clamped to
// [0,100]. An empty or blank title scores exactly 0.
func (s *ContactScorer) SeniorityScore(title string) float64 {
	if strings.TrimSpace(title) == "" {
		return 0
	}

	best := 0.0
	for _, c := range s.rules.peopleComponents(PillarSeniority) {
		if c.Modifier || !c.Matches(title) {
			continue
		}
		if float64(c.Base) > best {
			best = float64(c.Base)
		}
	}
	return s.applyModifiers(title, best)
}

// domainMatch is one keyword hit within the Domain pillar.
type domainMatch struct {
	component string
	score     int
	keyword   string
}

// DomainScore returns the score of the domain component whose matched
// keyword is longest, not the component with the highest score. When a
// higher-scoring component loses to a longer keyword the bypass is logged
// but never acted on.
func (s *ContactScorer) DomainScore(title string) float64 {
	if strings.TrimSpace(title) == "" {
		return 0
	}

	var matches []domainMatch
	for _, c := range s.rules.peopleComponents(PillarDomain) {
		if c.Modifier {
			continue
		}
		for _, kw := range c.MatchedKeywords(title) {
			matches = append(matches, domainMatch{component: c.Name, score: c.Base, keyword: kw})
		}
	}
	if len(matches) == 0 {
		return 0
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].keyword) > len(matches[j].keyword)
	})
	best := matches[0]

	if len(matches) > 1 {
		top := matches[0]
		for _, m := range matches[1:] {
			if m.score > top.score {
				top = m
			}
		}
		if top.score > best.score {
			zap.L().Info("scoring: longest keyword match overrides higher score",
				zap.String("title", title),
				zap.String("used_keyword", best.keyword),
				zap.Int("used_score", best.score),
				zap.String("bypassed_keyword", top.keyword),
				zap.Int("bypassed_score", top.score),
			)
		}
	}
	return float64(best.score)
}

// OneOffScore checks the whole-title override pillar. The second return is
// false when no override matches.
func (s *ContactScorer) OneOffScore(title string) (float64, bool) {
	if strings.TrimSpace(title) == "" {
		return 0, false
	}

	best := 0.0
	found := false
	for _, c := range s.rules.peopleComponents(PillarOneOffs) {
		if c.Modifier || !c.Matches(title) {
			continue
		}
		if !found || float64(c.Base) > best {
			best = float64(c.Base)
			found = true
		}
	}
	return best, found
}

// applyModifiers adds every matching seniority modifier delta to base and
// clamps the result to [0,100].
func (s *ContactScorer) applyModifiers(title string, base float64) float64 {
	score := base
	for _, c := range s.rules.peopleComponents(PillarSeniority) {
		if c.Modifier && c.Matches(title) {
			score += float64(c.Delta)
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ContactScore combines the pillar scores using the configured weights. A
// zero total weight yields 0 rather than dividing by zero; validation keeps
// that case out of real configs.
func (s *ContactScorer) ContactScore(seniority, domain, warmth float64) float64 {
	sw := s.rules.peopleWeight(PillarSeniority)
	dw := s.rules.peopleWeight(PillarDomain)
	ww := s.rules.peopleWeight(PillarWarmth)

	total := sw + dw + ww
	if total == 0 {
		return 0
	}
	return (seniority*sw + domain*dw + warmth*ww) / total
}

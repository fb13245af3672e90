// Package scoring implements the deterministic lead-prioritization engine:
// company scoring, title-based contact scoring, fuzzy company matching, lead
// score combination, and batch score normalization.
package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// People pillar names expected by the engine.
const (
	PillarSeniority = "Seniority"
	PillarDomain    = "Domain"
	PillarWarmth    = "Warmth"
	PillarOneOffs   = "One-Offs"
)

// Company pillar names expected by the engine.
const (
	PillarAlignment = "Alignment"
	PillarBudget    = "Budget"
	PillarDemand    = "Demand"
)

// Component is a single keyword-matched scoring rule within a pillar. It is
// exactly one of base-score component (Modifier false) or signed-modifier
// component (Modifier true); the variant is resolved once at load time.
type Component struct {
	Name     string
	Keywords []string
	Base     int  // base score, valid when Modifier is false
	Delta    int  // signed adjustment, valid when Modifier is true
	Modifier bool

	pattern    *regexp.Regexp   // all keywords, word-bounded, case-insensitive
	kwPatterns []*regexp.Regexp // one per keyword, aligned with Keywords
}

// Matches reports whether any of the component's keywords appears in the
// title with a word boundary on both sides.
func (c *Component) Matches(title string) bool {
	return c.pattern != nil && c.pattern.MatchString(strings.ToLower(title))
}

// MatchedKeywords returns the component's keywords that match the title.
func (c *Component) MatchedKeywords(title string) []string {
	lower := strings.ToLower(title)
	var hits []string
	for i, re := range c.kwPatterns {
		if re.MatchString(lower) {
			hits = append(hits, c.Keywords[i])
		}
	}
	return hits
}

// Pillar is a named weighted group of components.
type Pillar struct {
	Name       string
	Weight     float64
	Components []Component
}

// Rules is the immutable per-run scoring configuration: people pillars for
// contact scoring and company pillar weights for company scoring. Built once
// at load time and passed explicitly through every call.
type Rules struct {
	People  map[string]*Pillar
	Company map[string]*Pillar
	Source  string
}

// raw* mirror the external config document. The people pillar weight is
// carried in a field literally named "description" in the deployed schema;
// a plain "weight" key is accepted as an alias.
type rawComponent struct {
	Keywords string `json:"Keywords to Match" yaml:"Keywords to Match"`
	Score    any    `json:"Score" yaml:"Score"`
}

type rawPillar struct {
	Weight      any                     `json:"weight" yaml:"weight"`
	Description any                     `json:"description" yaml:"description"`
	Components  map[string]rawComponent `json:"components" yaml:"components"`
}

type rawSection struct {
	Pillars map[string]rawPillar `json:"pillars" yaml:"pillars"`
}

type rawRules struct {
	PeopleScore  rawSection `json:"peopleScore" yaml:"peopleScore"`
	CompanyScore rawSection `json:"companyScore" yaml:"companyScore"`
}

// LoadRules reads a scoring config document from path. YAML is accepted for
// .yaml/.yml files; everything else is parsed as JSON.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: read rules %s", path)
	}

	var raw rawRules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrapf(err, "scoring: parse rules %s", path)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrapf(err, "scoring: parse rules %s", path)
		}
	}

	rules, err := buildRules(raw)
	if err != nil {
		return nil, err
	}
	rules.Source = filepath.Base(path)
	return rules, nil
}

// ParseRulesJSON builds Rules from a JSON document in memory.
func ParseRulesJSON(data []byte) (*Rules, error) {
	var raw rawRules
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "scoring: parse rules")
	}
	return buildRules(raw)
}

func buildRules(raw rawRules) (*Rules, error) {
	rules := &Rules{
		People:  make(map[string]*Pillar),
		Company: make(map[string]*Pillar),
	}

	for name, rp := range raw.PeopleScore.Pillars {
		p, err := buildPillar(name, rp, true)
		if err != nil {
			return nil, err
		}
		rules.People[name] = p
	}
	for name, rp := range raw.CompanyScore.Pillars {
		p, err := buildPillar(name, rp, false)
		if err != nil {
			return nil, err
		}
		rules.Company[name] = p
	}

	if err := validateRules(rules); err != nil {
		return nil, err
	}

	// Absent pillars contribute 0 downstream; report each once here.
	for _, name := range []string{PillarSeniority, PillarDomain, PillarWarmth, PillarOneOffs} {
		if _, ok := rules.People[name]; !ok {
			zap.L().Warn("scoring: people pillar missing from config", zap.String("pillar", name))
		}
	}

	return rules, nil
}

func buildPillar(name string, rp rawPillar, people bool) (*Pillar, error) {
	weight, err := pillarWeight(rp, people)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: pillar %s", name)
	}

	// Map order is random; fix component order by name so tie-breaks are
	// reproducible across runs.
	names := make([]string, 0, len(rp.Components))
	for compName := range rp.Components {
		names = append(names, compName)
	}
	sort.Strings(names)

	p := &Pillar{Name: name, Weight: weight}
	for _, compName := range names {
		comp, ok, err := buildComponent(compName, rp.Components[compName])
		if err != nil {
			return nil, eris.Wrapf(err, "scoring: pillar %s", name)
		}
		if ok {
			p.Components = append(p.Components, comp)
		}
	}
	return p, nil
}

// pillarWeight resolves a pillar weight. People pillars carry it in the
// "description" field; "weight" is the alias. One-Offs never needs one.
func pillarWeight(rp rawPillar, people bool) (float64, error) {
	v := rp.Weight
	if people && rp.Description != nil {
		v = rp.Description
	}
	if v == nil {
		return 0, nil
	}
	w, err := toFloat(v)
	if err != nil {
		return 0, eris.Wrap(err, "parse weight")
	}
	return w, nil
}

// buildComponent resolves the overloaded Score field into the tagged
// base/modifier variant and compiles the keyword patterns. Components with
// no keywords or a zero/absent score are skipped, matching the observed
// config semantics.
func buildComponent(name string, rc rawComponent) (Component, bool, error) {
	keywords := splitKeywords(rc.Keywords)
	if len(keywords) == 0 {
		return Component{}, false, nil
	}

	comp := Component{Name: name, Keywords: keywords}
	switch s := rc.Score.(type) {
	case nil:
		return Component{}, false, nil
	case string:
		s = strings.TrimSpace(s)
		if s == "" {
			return Component{}, false, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Component{}, false, eris.Wrapf(err, "component %s: parse score %q", name, s)
		}
		if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
			comp.Modifier = true
			comp.Delta = n
		} else {
			comp.Base = n
		}
	default:
		f, err := toFloat(rc.Score)
		if err != nil {
			return Component{}, false, eris.Wrapf(err, "component %s: parse score", name)
		}
		if f == 0 {
			return Component{}, false, nil
		}
		comp.Base = int(f)
	}

	comp.pattern = keywordPattern(keywords)
	for _, kw := range keywords {
		comp.kwPatterns = append(comp.kwPatterns, keywordPattern([]string{kw}))
	}
	return comp, true, nil
}

func splitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// keywordPattern compiles a case-insensitive pattern requiring a non-letter
// (or string edge) on both sides of any of the keywords.
func keywordPattern(keywords []string) *regexp.Regexp {
	escaped := make([]string, len(keywords))
	for i, kw := range keywords {
		escaped[i] = regexp.QuoteMeta(strings.ToLower(kw))
	}
	return regexp.MustCompile(`(?i)(^|[^a-z])(` + strings.Join(escaped, "|") + `)($|[^a-z])`)
}

// validateRules enforces the structural requirements: every weighted pillar
// the formulas divide by must carry a weight.
func validateRules(r *Rules) error {
	var errs []string

	for _, name := range []string{PillarSeniority, PillarDomain, PillarWarmth} {
		p, ok := r.People[name]
		if ok && p.Weight == 0 {
			errs = append(errs, fmt.Sprintf("people pillar %s has no weight", name))
		}
	}
	for _, name := range []string{PillarAlignment, PillarBudget, PillarDemand} {
		p, ok := r.Company[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("company pillar %s missing", name))
		} else if p.Weight == 0 {
			errs = append(errs, fmt.Sprintf("company pillar %s has no weight", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: rules validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// peopleComponents returns the components of a people pillar, or nil when
// the pillar is absent (absence was already warned about at load time).
func (r *Rules) peopleComponents(name string) []Component {
	if p, ok := r.People[name]; ok {
		return p.Components
	}
	return nil
}

// peopleWeight returns a people pillar weight, 0 when absent.
func (r *Rules) peopleWeight(name string) float64 {
	if p, ok := r.People[name]; ok {
		return p.Weight
	}
	return 0
}

// companyWeight returns a company pillar weight, 0 when absent.
func (r *Rules) companyWeight(name string) float64 {
	if p, ok := r.Company[name]; ok {
		return p.Weight
	}
	return 0
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, eris.Errorf("unsupported numeric value %T", v)
	}
}

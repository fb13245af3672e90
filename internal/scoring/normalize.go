package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// corporateSuffixes are legal-entity tokens dropped during name
// normalization. Single letters cover split abbreviations ("s r l").
var corporateSuffixes = map[string]struct{}{
	"llc": {}, "inc": {}, "ltd": {}, "gmbh": {}, "limited": {}, "corporation": {},
	"corp": {}, "plc": {}, "sa": {}, "srl": {}, "ag": {}, "ab": {}, "oy": {},
	"as": {}, "bv": {}, "sas": {}, "sarl": {}, "sro": {}, "spa": {},
	"global": {}, "international": {}, "group": {}, "holdings": {}, "holding": {},
	"enterprises": {}, "enterprise": {}, "company": {}, "companies": {}, "co": {},
	"pty": {}, "proprietary": {}, "private": {}, "public": {}, "incorporated": {},
	"llp": {}, "sp": {}, "z": {}, "o": {}, "s": {}, "a": {}, "b": {}, "v": {},
	"n": {}, "r": {}, "l": {},
}

// industrySuffixes are industry-filler tokens dropped unless the caller asks
// to preserve them.
var industrySuffixes = map[string]struct{}{
	"games": {}, "game": {}, "gaming": {}, "studio": {}, "studios": {},
	"entertainment": {}, "interactive": {}, "digital": {}, "media": {},
	"publishing": {}, "publisher": {}, "publishers": {}, "software": {},
	"tech": {}, "technology": {}, "solutions": {}, "services": {}, "service": {},
	"casino": {}, "casinos": {}, "slots": {}, "slot": {}, "777": {},
	"gambling": {}, "betting": {}, "bets": {}, "mobile": {}, "apps": {},
	"applications": {}, "application": {}, "app": {}, "billionaire": {},
	"millionaire": {}, "jackpot": {}, "jackpots": {}, "win": {}, "wins": {},
	"winning": {}, "winners": {}, "prize": {}, "prizes": {}, "tournament": {},
	"tournaments": {}, "championship": {}, "championships": {}, "league": {},
	"leagues": {}, "challenge": {}, "challenges": {},
}

// domainSuffixes mark tokens that are really web hostnames.
var domainSuffixes = []string{
	".com", ".org", ".net", ".io", ".xyz", ".ai", ".co", ".biz", ".info",
	".app", ".games", ".game", ".tech", ".studio", ".dev", ".cloud", ".digital",
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9\s.]`)
	digitsRe        = regexp.MustCompile(`^[0-9]+$`)

	// Diacritics folded so "Café Studió" and "Cafe Studio" share a key.
	diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NormalizeName canonicalizes a free-text company name into a comparison
// key. Idempotent: applying it twice yields the same key as applying once.
func NormalizeName(name string) string {
	return normalizeName(name, false)
}

// NormalizeNamePreserveIndustry is the variant that keeps industry-filler
// tokens so that, e.g., "Wildlife Studios" and "Wildlife Games" stay
// distinguishable for display.
func NormalizeNamePreserveIndustry(name string) string {
	return normalizeName(name, true)
}

func normalizeName(name string, preserveIndustry bool) string {
	if name == "" {
		return ""
	}

	name = strings.ToLower(name)
	if folded, _, err := transform.String(diacriticFold, name); err == nil {
		name = folded
	}

	name = parentheticalRe.ReplaceAllString(name, " ")
	// Dots survive to this point only so hostname tokens stay recognizable.
	name = nonAlnumRe.ReplaceAllString(name, " ")

	var kept []string
	for _, w := range strings.Fields(name) {
		if hasDomainSuffix(w) {
			continue
		}
		w = strings.ReplaceAll(w, ".", "")
		if w == "" {
			continue
		}
		if _, ok := corporateSuffixes[w]; ok {
			continue
		}
		if !preserveIndustry {
			if _, ok := industrySuffixes[w]; ok {
				continue
			}
		}
		// Standalone short numbers are noise (founding years, etc.).
		if len(w) <= 4 && digitsRe.MatchString(w) {
			continue
		}
		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}

func hasDomainSuffix(w string) bool {
	for _, suffix := range domainSuffixes {
		if strings.HasSuffix(w, suffix) {
			return true
		}
	}
	return false
}

// Missing marks a value that could not be parsed; it is excluded from
// distribution statistics and contributes 0 to formulas.
var Missing = math.NaN()

// NormalizeScores rescales values so min maps to 0 and max maps to 100.
// When min/max are nil they are derived from the batch; when supplied (an
// external baseline), values outside the range land outside [0,100] and are
// deliberately not clamped here. A degenerate range (max == min) returns the
// input unchanged.
func NormalizeScores(values []float64, minScore, maxScore *float64) []float64 {
	if len(values) == 0 {
		return values
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if minScore != nil {
		lo = *minScore
	}
	if maxScore != nil {
		hi = *maxScore
	}

	if hi == lo {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo) * 100
	}
	return out
}

// NormalizePillar min-max normalizes raw pillar sums to 0-100. Unlike
// NormalizeScores, a degenerate batch maps to 50 for every record and
// missing values map to 0. The two policies are intentionally different and
// must stay separate.
func NormalizePillar(raw []float64) []float64 {
	out := make([]float64, len(raw))
	lo, hi := math.Inf(1), math.Inf(-1)
	any := false
	for _, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		any = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !any {
		return out
	}
	if hi == lo {
		for i, v := range raw {
			if math.IsNaN(v) {
				out[i] = 0
			} else {
				out[i] = 50
			}
		}
		return out
	}
	for i, v := range raw {
		if math.IsNaN(v) {
			out[i] = 0
		} else {
			out[i] = round1((v - lo) / (hi - lo) * 100)
		}
	}
	return out
}

// NormalizeComponents min-max normalizes subcomponent scores for reporting.
// Missing values are treated as 0 before the min/max pass; an all-zero (or
// all-missing) column stays all-zero rather than collapsing to 50.
func NormalizeComponents(raw []float64) []float64 {
	out := make([]float64, len(raw))
	allZero := true
	for _, v := range raw {
		if !math.IsNaN(v) && v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return out
	}

	vals := make([]float64, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			vals[i] = 0
		} else {
			vals[i] = v
		}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for i := range out {
			out[i] = 50
		}
		return out
	}
	for i, v := range vals {
		out[i] = round1((v - lo) / (hi - lo) * 100)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

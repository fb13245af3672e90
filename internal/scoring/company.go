package scoring

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

// Alignment flag points. Binary signals: present or absent, never ranked.
const (
	devPoints    = 10.0
	f2pPoints    = 8.0
	mobilePoints = 7.0
	freshPoints  = 5.0
	freshYears   = 3
)

// Budget and demand component weights.
const (
	revenuePoints    = 10.0
	fundingPoints    = 8.0
	headcountPoints  = 5.0
	volatilityPoints = 7.0

	revDeltaWeight       = 5.0
	runwayDeltaWeight    = 4.0
	headcountDeltaWeight = 3.0

	fundingDecayHalfLifeDays = 365.0
)

// statusRule maps a sales-funnel status to decaying demand points. The list
// is ordered: the first substring match wins.
type statusRule struct {
	key          string
	points       float64
	halfLifeDays float64
}

var statusRules = []statusRule{
	{"6 - previous customer", 10, 730},
	{"7 - previous customer", 10, 730},
	{"8 - stand down", 10, 730},
	{"5 - customer", 8, 365},
	{"4 - contract out", 8, 365},
	{"met with matt", 6, 180},
	{"lt (quarterly) followup", 6, 180},
	{"qualified", 5, 90},
	{"disco incoming", 2, 30},
}

// CompanyScorer computes percentile-based company scores across the
// Alignment, Budget, and Demand pillars.
type CompanyScorer struct {
	rules *Rules
	now   time.Time
}

// NewCompanyScorer creates a scorer anchored at the current time.
func NewCompanyScorer(rules *Rules) *CompanyScorer {
	return NewCompanyScorerAt(rules, time.Now().UTC())
}

// NewCompanyScorerAt creates a scorer with a fixed clock, which pins the
// status and funding decay terms for reproducible runs.
func NewCompanyScorerAt(rules *Rules, now time.Time) *CompanyScorer {
	return &CompanyScorer{rules: rules, now: now}
}

// Score runs the two-phase company scoring pass: batch-wide percentile
// distributions first, then pure per-record formulas aggregated into
// normalized pillars and the final weighted company score.
func (s *CompanyScorer) Score(companies []model.CompanyRecord) []model.ScoredCompany {
	n := len(companies)
	if n == 0 {
		return nil
	}

	alignmentWeight := s.rules.companyWeight(PillarAlignment)
	budgetWeight := s.rules.companyWeight(PillarBudget)
	demandWeight := s.rules.companyWeight(PillarDemand)

	// Phase 1: batch distributions.
	revenueCol := make([]float64, n)
	fundingCol := make([]float64, n)
	headcountCol := make([]float64, n)
	revChangeCol := make([]float64, n)
	headChangeCol := make([]float64, n)
	decayedFundingCol := make([]float64, n)
	for i, c := range companies {
		revenueCol[i] = revenueValue(c)
		fundingCol[i] = parseNumber(c.TotalFunding)
		headcountCol[i] = parseNumber(c.EmployeeCount)
		revChangeCol[i] = parseNumber(c.RevChangePct)
		headChangeCol[i] = parseNumber(c.EmployeeChangePct)
		decayedFundingCol[i] = s.decayedFunding(c)
	}
	revenueDist := newDistribution(revenueCol)
	fundingDist := newDistribution(fundingCol)
	headcountDist := newDistribution(headcountCol)
	revChangeDist := newDistribution(revChangeCol)
	headChangeDist := newDistribution(headChangeCol)
	decayedFundingDist := newDistribution(decayedFundingCol)

	// Phase 2: per-record component scores.
	dev := make([]float64, n)
	f2p := make([]float64, n)
	mobile := make([]float64, n)
	fresh := make([]float64, n)
	revenue := make([]float64, n)
	funding := make([]float64, n)
	headcount := make([]float64, n)
	status := make([]float64, n)
	revDelta := make([]float64, n)
	runwayDelta := make([]float64, n)
	headDelta := make([]float64, n)
	volatility := make([]float64, n)
	hiring := make([]float64, n) // reserved, stays 0

	for i, c := range companies {
		if strings.EqualFold(strings.TrimSpace(c.Type), "co-developer") {
			dev[i] = 0
		} else {
			dev[i] = binaryFlag(c.MakesGames, devPoints)
		}
		f2p[i] = binaryFlag(c.F2P, f2pPoints)
		mobile[i] = binaryFlag(c.Mobile, mobilePoints)
		fresh[i] = s.freshScore(c.FoundedYear)

		revenue[i] = revenueDist.percentile(revenueCol[i], false) / 100 * revenuePoints
		funding[i] = fundingDist.percentile(fundingCol[i], false) / 100 * fundingPoints
		headcount[i] = headcountDist.percentile(headcountCol[i], false) / 100 * headcountPoints

		status[i] = s.statusScore(c.CloseStatus, c.CloseStatusChangeDate)
		revDelta[i] = revChangeDist.percentile(revChangeCol[i], true)
		runwayDelta[i] = decayedFundingDist.percentile(decayedFundingCol[i], false)
		headDelta[i] = headChangeDist.percentile(headChangeCol[i], true)

		weighted := (revDelta[i]*revDeltaWeight +
			runwayDelta[i]*runwayDeltaWeight +
			headDelta[i]*headcountDeltaWeight) /
			(revDeltaWeight + runwayDeltaWeight + headcountDeltaWeight)
		volatility[i] = weighted / 100 * volatilityPoints
	}

	// Raw pillar sums, min-max normalized per batch (all-equal maps to 50).
	alignmentRaw := make([]float64, n)
	budgetRaw := make([]float64, n)
	demandRaw := make([]float64, n)
	for i := 0; i < n; i++ {
		alignmentRaw[i] = dev[i] + f2p[i] + mobile[i] + fresh[i]
		budgetRaw[i] = revenue[i] + funding[i] + headcount[i]
		demandRaw[i] = status[i] + volatility[i] + hiring[i]
	}
	alignmentPillar := NormalizePillar(alignmentRaw)
	budgetPillar := NormalizePillar(budgetRaw)
	demandPillar := NormalizePillar(demandRaw)

	totalWeight := alignmentWeight + budgetWeight + demandWeight
	companyRaw := make([]float64, n)
	for i := 0; i < n; i++ {
		companyRaw[i] = (alignmentPillar[i]*alignmentWeight +
			budgetPillar[i]*budgetWeight +
			demandPillar[i]*demandWeight) / totalWeight
	}
	companyScores := NormalizePillar(companyRaw)

	// Subcomponents reported on their own normalized scale.
	devN := NormalizeComponents(dev)
	f2pN := NormalizeComponents(f2p)
	mobileN := NormalizeComponents(mobile)
	freshN := NormalizeComponents(fresh)
	revenueN := NormalizeComponents(revenue)
	fundingN := NormalizeComponents(funding)
	headcountN := NormalizeComponents(headcount)
	statusN := NormalizeComponents(status)
	volatilityN := NormalizeComponents(volatility)
	revDeltaN := NormalizeComponents(revDelta)
	runwayDeltaN := NormalizeComponents(runwayDelta)
	headDeltaN := NormalizeComponents(headDelta)
	hiringN := NormalizeComponents(hiring)

	out := make([]model.ScoredCompany, n)
	today := s.now.Format("2006-01-02")
	for i, c := range companies {
		normalized := c.NormalizedName
		if strings.TrimSpace(normalized) == "" {
			normalized = NormalizeName(c.Name)
		}
		out[i] = model.ScoredCompany{
			Name:         c.Name,
			CompanyScore: companyScores[i],
			Alignment:    alignmentPillar[i],
			Budget:       budgetPillar[i],
			Demand:       demandPillar[i],
			Sub: model.CompanySubScores{
				Dev:            devN[i],
				F2P:            f2pN[i],
				Mobile:         mobileN[i],
				Fresh:          freshN[i],
				Revenue:        revenueN[i],
				Funding:        fundingN[i],
				Headcount:      headcountN[i],
				Status:         statusN[i],
				Volatility:     volatilityN[i],
				RevenueDelta:   revDeltaN[i],
				RunwayDelta:    runwayDeltaN[i],
				HeadcountDelta: headDeltaN[i],
				Hiring:         hiringN[i],
			},
			URL:            companyURL(c),
			NormalizedName: normalized,
			Country:        c.Country,
			Flag:           c.Flag,
			Notes:          c.Notes,
			DiscoverSource: c.DiscoverSource,
			CreatedDate:    c.CreatedDate,
			UpdatedDate:    today,
		}
	}

	zap.L().Info("scoring: companies scored",
		zap.Int("companies", n),
		zap.Float64("top_score", maxOf(companyScores)),
	)
	return out
}

// revenueValue reads the primary revenue signal, falling back to the annual
// revenue column when the primary is missing.
func revenueValue(c model.CompanyRecord) float64 {
	if v := parseNumber(c.Rev30D); !math.IsNaN(v) {
		return v
	}
	return parseNumber(c.AnnualRevenue)
}

// binaryFlag awards points when the cell is the "X" marker.
func binaryFlag(value string, points float64) float64 {
	if strings.EqualFold(strings.TrimSpace(value), "x") {
		return points
	}
	return 0
}

func (s *CompanyScorer) freshScore(foundedYear string) float64 {
	year := parseNumber(foundedYear)
	if math.IsNaN(year) {
		return 0
	}
	if float64(s.now.Year())-year <= freshYears {
		return freshPoints
	}
	return 0
}

// statusScore maps the funnel status to points with exponential time decay.
// An unmatched status scores 0; an unparseable change date falls back to the
// undecayed base points.
func (s *CompanyScorer) statusScore(statusValue, changeDate string) float64 {
	statusStr := strings.ToLower(strings.TrimSpace(statusValue))
	if statusStr == "" {
		return 0
	}

	var rule *statusRule
	for i := range statusRules {
		if strings.Contains(statusStr, statusRules[i].key) {
			rule = &statusRules[i]
			break
		}
	}
	if rule == nil {
		return 0
	}

	changed, ok := parseDate(changeDate)
	if !ok {
		return rule.points
	}
	daysOld := math.Max(0, s.now.Sub(changed).Hours()/24)
	return rule.points * math.Pow(0.5, daysOld/rule.halfLifeDays)
}

// decayedFunding returns the latest funding amount decayed by a one-year
// half-life, or Missing when either the amount or the date is absent.
func (s *CompanyScorer) decayedFunding(c model.CompanyRecord) float64 {
	amount := parseNumber(c.LatestFundingAmount)
	if math.IsNaN(amount) {
		return Missing
	}
	funded, ok := parseDate(c.LatestFundingDate)
	if !ok {
		return Missing
	}
	daysOld := math.Max(0, s.now.Sub(funded).Hours()/24)
	return amount * math.Pow(0.5, daysOld/fundingDecayHalfLifeDays)
}

func companyURL(c model.CompanyRecord) string {
	if u := strings.TrimSpace(c.WebsiteURL); u != "" {
		return u
	}
	return strings.TrimSpace(c.LinkedInURL)
}

// distribution holds a sorted, cleaned column for rank percentile lookups.
type distribution struct {
	sorted []float64
}

func newDistribution(values []float64) distribution {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	sort.Float64s(clean)
	return distribution{sorted: clean}
}

// percentile returns the rank percentile (0-100) of value within the column:
// the mean of the strictly-below and at-or-below percentages, which averages
// the rank over ties. Missing values and empty columns score 0. invert flips
// the ranking for metrics where lower is better.
func (d distribution) percentile(value float64, invert bool) float64 {
	if math.IsNaN(value) || len(d.sorted) == 0 {
		return 0
	}
	strict := sort.SearchFloat64s(d.sorted, value)
	weak := sort.Search(len(d.sorted), func(i int) bool { return d.sorted[i] > value })
	pct := float64(strict+weak) * 50.0 / float64(len(d.sorted))
	if invert {
		return 100 - pct
	}
	return pct
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseNumber converts a free-form numeric cell ("$1,200,000", "12%") to a
// float, returning Missing when the cell is empty or unparseable.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	if cleaned == "" {
		return Missing
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Missing
	}
	return v
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

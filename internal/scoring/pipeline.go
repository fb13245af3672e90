package scoring

import (
	"context"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

// PipelineOptions tunes a contact scoring run. The zero value uses the
// default confidence gate, one worker per CPU, and batch-relative
// normalization (no baseline).
type PipelineOptions struct {
	MinConfidence float64
	Concurrency   int
	Baseline      *model.Baseline
}

// CandidatesFromCompanies projects scored companies into match candidates,
// deriving the normalized key when the scorer did not carry one through.
func CandidatesFromCompanies(companies []model.ScoredCompany) []MatchCandidate {
	candidates := make([]MatchCandidate, len(companies))
	for i, c := range companies {
		normalized := c.NormalizedName
		if strings.TrimSpace(normalized) == "" {
			normalized = NormalizeName(c.Name)
		}
		candidates[i] = MatchCandidate{
			Name:       c.Name,
			Normalized: normalized,
			Score:      c.CompanyScore,
		}
	}
	return candidates
}

// ScoreContacts runs the full contact pass: per-contact title scoring, fuzzy
// company matching, and lead score combination fan out across workers into
// preallocated slots, then contact and lead scores are min-max normalized
// as one batch (against the baseline when supplied) and the results sorted
// by descending lead score.
func ScoreContacts(ctx context.Context, contacts []model.ContactRecord, candidates []MatchCandidate, rules *Rules, opts PipelineOptions) ([]model.ScoredContact, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	minConfidence := opts.MinConfidence
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	scorer := NewContactScorer(rules)
	out := make([]model.ScoredContact, len(contacts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range contacts {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = scoreOneContact(scorer, contacts[i], candidates, minConfidence)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rawContact := make([]float64, len(out))
	rawLead := make([]float64, len(out))
	for i := range out {
		rawContact[i] = out[i].RawContactScore
		rawLead[i] = out[i].RawLeadScore
	}

	var contactMin, contactMax, leadMin, leadMax *float64
	if b := opts.Baseline; b != nil {
		contactMin, contactMax = b.ContactScoreMin, b.ContactScoreMax
		leadMin, leadMax = b.LeadScoreMin, b.LeadScoreMax
	}
	normContact := NormalizeScores(rawContact, contactMin, contactMax)
	normLead := NormalizeScores(rawLead, leadMin, leadMax)
	for i := range out {
		out[i].ContactScore = normContact[i]
		out[i].LeadScore = normLead[i]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LeadScore > out[j].LeadScore
	})

	matched := 0
	for i := range out {
		if out[i].MatchedCompany != "" {
			matched++
		}
	}
	zap.L().Info("scoring: contacts scored",
		zap.Int("contacts", len(out)),
		zap.Int("matched", matched),
		zap.Int("candidates", len(candidates)),
		zap.Bool("baseline", opts.Baseline != nil),
	)
	return out, nil
}

// scoreOneContact is the pure phase-2 function: it reads only the record,
// the rule table, and the precomputed candidate list.
func scoreOneContact(scorer *ContactScorer, contact model.ContactRecord, candidates []MatchCandidate, minConfidence float64) model.ScoredContact {
	normalCompany := strings.TrimSpace(contact.NormalCompany)
	if normalCompany == "" {
		normalCompany = NormalizeName(contact.CompanyName)
	}

	seniority, domain, warmth := scorer.TitleScores(contact.JobTitle)
	rawContact := scorer.ContactScore(seniority, domain, warmth)

	match := FindBestMatch(normalCompany, candidates, minConfidence)
	hasTitle := strings.TrimSpace(contact.JobTitle) != ""
	rawLead := CombineLeadScore(rawContact, match.CompanyScore, match.Found, hasTitle)

	scored := model.ScoredContact{
		FirstName:       contact.FirstName,
		LastName:        contact.LastName,
		FullName:        strings.TrimSpace(contact.FirstName + " " + contact.LastName),
		JobTitle:        contact.JobTitle,
		CompanyName:     contact.CompanyName,
		RawContactScore: rawContact,
		RawLeadScore:    rawLead,
		Seniority:       seniority,
		Domain:          domain,
		Warmth:          warmth,
		Source:          contact.Source,
		DateCreated:     contact.DateCreated,
		DateUpdated:     contact.DateUpdated,
		ExtraData:       contact.ExtraData,
	}
	if match.Found {
		scored.MatchedCompany = match.MatchedName
		confidence := match.Confidence
		companyScore := match.CompanyScore
		scored.MatchConfidence = &confidence
		scored.CompanyScore = &companyScore
	}
	return scored
}

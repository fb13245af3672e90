package scoring

// Lead score penalty policy: a contact with only one of (company match, job
// title) keeps 30% of the available signal; a contact with neither gets a
// fixed floor so it still sorts above empty rows.
const (
	partialSignalFactor = 0.3
	leadScoreFloor      = 5.0
)

// CombineLeadScore merges a contact score and its matched company score into
// the final lead score. hasCompanyMatch is true iff match confidence met the
// gate; hasJobTitle is true iff the title is non-empty after trimming. The
// result is clamped to [0,100].
func CombineLeadScore(contactScore, companyScore float64, hasCompanyMatch, hasJobTitle bool) float64 {
	var lead float64
	switch {
	case hasCompanyMatch && hasJobTitle:
		lead = (contactScore / 100.0) * companyScore
	case hasCompanyMatch:
		lead = companyScore * partialSignalFactor
	case hasJobTitle:
		lead = contactScore * partialSignalFactor
	default:
		lead = leadScoreFloor
	}

	if lead < 0 {
		return 0
	}
	if lead > 100 {
		return 100
	}
	return lead
}

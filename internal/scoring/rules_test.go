package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, "builtin", rules.Source)
	assert.InDelta(t, 50, rules.peopleWeight(PillarSeniority), 1e-9)
	assert.InDelta(t, 35, rules.peopleWeight(PillarDomain), 1e-9)
	assert.InDelta(t, 15, rules.peopleWeight(PillarWarmth), 1e-9)
	assert.InDelta(t, 3, rules.companyWeight(PillarAlignment), 1e-9)
	assert.InDelta(t, 4, rules.companyWeight(PillarBudget), 1e-9)
	assert.InDelta(t, 3, rules.companyWeight(PillarDemand), 1e-9)
	assert.NotEmpty(t, rules.peopleComponents(PillarOneOffs))
}

func TestParseRulesJSONScoreVariants(t *testing.T) {
	rules, err := ParseRulesJSON([]byte(`{
		"peopleScore": {"pillars": {
			"Seniority": {"description": "50", "components": {
				"Base": {"Keywords to Match": "chief", "Score": 95},
				"BaseString": {"Keywords to Match": "head", "Score": "70"},
				"Plus": {"Keywords to Match": "senior", "Score": "+10"},
				"Minus": {"Keywords to Match": "junior", "Score": "-15"},
				"NoKeywords": {"Keywords to Match": "", "Score": 50},
				"ZeroScore": {"Keywords to Match": "intern", "Score": 0}
			}},
			"Domain": {"description": "35", "components": {}},
			"Warmth": {"description": "15", "components": {}}
		}},
		"companyScore": {"pillars": {
			"Alignment": {"weight": 3}, "Budget": {"weight": 4}, "Demand": {"weight": 3}
		}}
	}`))
	require.NoError(t, err)

	comps := rules.peopleComponents(PillarSeniority)
	require.Len(t, comps, 4) // empty-keyword and zero-score components are skipped

	byName := map[string]Component{}
	for _, c := range comps {
		byName[c.Name] = c
	}
	assert.False(t, byName["Base"].Modifier)
	assert.Equal(t, 95, byName["Base"].Base)
	assert.False(t, byName["BaseString"].Modifier)
	assert.Equal(t, 70, byName["BaseString"].Base)
	assert.True(t, byName["Plus"].Modifier)
	assert.Equal(t, 10, byName["Plus"].Delta)
	assert.True(t, byName["Minus"].Modifier)
	assert.Equal(t, -15, byName["Minus"].Delta)
}

func TestParseRulesJSONInvalidScore(t *testing.T) {
	_, err := ParseRulesJSON([]byte(`{
		"peopleScore": {"pillars": {
			"Seniority": {"description": "50", "components": {
				"Bad": {"Keywords to Match": "chief", "Score": "+lots"}
			}},
			"Domain": {"description": "35", "components": {}},
			"Warmth": {"description": "15", "components": {}}
		}},
		"companyScore": {"pillars": {
			"Alignment": {"weight": 3}, "Budget": {"weight": 4}, "Demand": {"weight": 3}
		}}
	}`))
	assert.Error(t, err)
}

func TestRulesValidation(t *testing.T) {
	t.Run("missing company pillar weight is fatal", func(t *testing.T) {
		_, err := ParseRulesJSON([]byte(`{
			"peopleScore": {"pillars": {}},
			"companyScore": {"pillars": {
				"Alignment": {"weight": 3}, "Budget": {"weight": 4}
			}}
		}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Demand")
	})

	t.Run("present people pillar needs a weight", func(t *testing.T) {
		_, err := ParseRulesJSON([]byte(`{
			"peopleScore": {"pillars": {
				"Seniority": {"components": {}}
			}},
			"companyScore": {"pillars": {
				"Alignment": {"weight": 3}, "Budget": {"weight": 4}, "Demand": {"weight": 3}
			}}
		}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Seniority")
	})

	t.Run("absent people pillars are tolerated", func(t *testing.T) {
		rules, err := ParseRulesJSON([]byte(`{
			"peopleScore": {"pillars": {}},
			"companyScore": {"pillars": {
				"Alignment": {"weight": 3}, "Budget": {"weight": 4}, "Demand": {"weight": 3}
			}}
		}`))
		require.NoError(t, err)
		assert.Nil(t, rules.peopleComponents(PillarSeniority))
		assert.Zero(t, rules.peopleWeight(PillarSeniority))
	})
}

func TestLoadRulesFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "rules.json")
		require.NoError(t, os.WriteFile(path, []byte(DefaultRulesJSON), 0o644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, "rules.json", rules.Source)
		assert.InDelta(t, 50, rules.peopleWeight(PillarSeniority), 1e-9)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		doc := `
peopleScore:
  pillars:
    Seniority:
      description: "50"
      components:
        C-Suite:
          Keywords to Match: "ceo, founder"
          Score: 95
    Domain:
      description: "35"
      components: {}
    Warmth:
      description: "15"
      components: {}
companyScore:
  pillars:
    Alignment: {weight: 3}
    Budget: {weight: 4}
    Demand: {weight: 3}
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Len(t, rules.peopleComponents(PillarSeniority), 1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}

func TestComponentOrderDeterministic(t *testing.T) {
	// Pillar components come out sorted by name so tie-breaks never depend
	// on map iteration order.
	for i := 0; i < 5; i++ {
		rules := DefaultRules()
		comps := rules.peopleComponents(PillarSeniority)
		for j := 1; j < len(comps); j++ {
			assert.LessOrEqual(t, comps[j-1].Name, comps[j].Name)
		}
	}
}

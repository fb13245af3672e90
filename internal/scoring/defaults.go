package scoring

// DefaultRulesJSON is the built-in scoring configuration used when no tuned
// config document is available. It mirrors the shape of the remote tuning
// sheet: people pillar weights live in "description", component scores are
// plain integers for base components and signed strings for modifiers.
const DefaultRulesJSON = `{
  "peopleScore": {
    "pillars": {
      "Seniority": {
        "description": "50",
        "components": {
          "C-Suite": {"Keywords to Match": "ceo, chief executive officer, chief executive, founder, co-founder, cofounder, president, owner", "Score": 95},
          "VP": {"Keywords to Match": "vp, vice president, svp, evp", "Score": 80},
          "Director": {"Keywords to Match": "director, head of", "Score": 70},
          "Manager": {"Keywords to Match": "manager, lead", "Score": 55},
          "IC": {"Keywords to Match": "engineer, developer, designer, analyst, specialist, coordinator, producer", "Score": 35},
          "Senior Modifier": {"Keywords to Match": "senior, sr", "Score": "+10"},
          "Junior Modifier": {"Keywords to Match": "junior, jr, intern, assistant, associate", "Score": "-15"}
        }
      },
      "Domain": {
        "description": "35",
        "components": {
          "Executive": {"Keywords to Match": "ceo, chief executive officer, coo, president, founder", "Score": 95},
          "Marketing/UA": {"Keywords to Match": "marketing, user acquisition, growth, performance marketing", "Score": 90},
          "Monetization": {"Keywords to Match": "monetization, revenue, ad monetization, ads", "Score": 88},
          "Product": {"Keywords to Match": "product", "Score": 85},
          "BD": {"Keywords to Match": "business development, partnerships, bd", "Score": 75},
          "Engineering": {"Keywords to Match": "engineer, engineering, developer, cto", "Score": 55},
          "Art": {"Keywords to Match": "artist, art, animation", "Score": 35}
        }
      },
      "Warmth": {
        "description": "15",
        "components": {}
      },
      "One-Offs": {
        "components": {
          "Studio Head": {"Keywords to Match": "head of studio, studio head, general manager, managing director", "Score": 92}
        }
      }
    }
  },
  "companyScore": {
    "pillars": {
      "Alignment": {"weight": 3},
      "Budget": {"weight": 4},
      "Demand": {"weight": 3}
    }
  }
}`

// DefaultRules returns the built-in scoring configuration.
func DefaultRules() *Rules {
	rules, err := ParseRulesJSON([]byte(DefaultRulesJSON))
	if err != nil {
		// The embedded document is fixed at compile time.
		panic(err)
	}
	rules.Source = "builtin"
	return rules
}

package trends

import "strings"

var peopleIndicators = []string{
	"says", "said", "claimed", "announced", "revealed", "confirms",
	"denies", "weighs in", "responds", "criticizes", "praises",
	"speaks out", "interview", "statement", "comments", "warns",
	"accuses", "defends", "slams", "hits back", "addresses",
	"reaction", "opinion", "tells", "asks",
	"explains", "expresses", "suggests", "argues",
}

var commonNames = []string{
	"trump", "biden", "musk", "bezos", "gates", "zuckerberg",
	"harris", "johnson", "smith", "williams", "brown", "jones",
	"miller", "davis", "dimon", "cook", "nadella", "pichai",
}

var quotePatterns = []string{"'s ", "'", "“", "”", "’"}

// IsAboutPerson reports whether a headline looks like it is mainly about a
// person: a prominent name, a reporting verb, or quoted speech.
func IsAboutPerson(title, description string) bool {
	text := strings.ToLower(title + " " + description)

	for _, name := range commonNames {
		if strings.Contains(text, name) {
			return true
		}
	}
	for _, indicator := range peopleIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	for _, pattern := range quotePatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

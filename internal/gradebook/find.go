package gradebook

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// minSimilarity is the lowest Jaro-Winkler similarity accepted as a name match.
const minSimilarity = 0.8

// StudentMatch is a portfolio whose student name resembles a query.
type StudentMatch struct {
	Portfolio  *StudentPortfolio
	Similarity float64
}

// FindStudent looks up portfolios by student name, tolerating typos and casing. Exact
// matches (ignoring case) come first, then the remaining candidates ranked by similarity.
func (b *GradingBundle) FindStudent(name string) []StudentMatch {
	query := strings.TrimSpace(name)

	var matches []StudentMatch
	for _, studentId := range b.StudentIDs {
		portfolio := b.Portfolios[studentId]
		if strings.EqualFold(portfolio.StudentName, query) {
			matches = append(matches, StudentMatch{Portfolio: portfolio, Similarity: 1})
			continue
		}
		similarity := matchr.JaroWinkler(strings.ToLower(query), strings.ToLower(portfolio.StudentName), false)
		if similarity < minSimilarity {
			continue
		}
		matches = append(matches, StudentMatch{Portfolio: portfolio, Similarity: similarity})
	}

	slices.SortStableFunc(matches, func(a, b StudentMatch) int {
		// the 1 and -1 are flipped to make it sort descending (large values near the front)
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.Similarity > b.Similarity {
			return -1
		}
		return 0
	})
	return matches
}

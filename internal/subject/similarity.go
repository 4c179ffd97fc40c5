package subject

import (
	"sort"
	"strings"
)

// similarityThreshold is the minimum Jaccard score a candidate must clear
// to survive (spec.md §4.12).
const similarityThreshold = 0.15

// Match is one scored similarity candidate.
type Match struct {
	Subject Subject
	Score   float64
}

func tokenSet(features []string) map[string]struct{} {
	set := make(map[string]struct{}, len(features))
	for _, f := range features {
		set[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// FindSimilar scores every registered subject against a target name and
// feature set. A case-insensitive substring match of targetName against a
// candidate's name short-circuits to score 1.0; otherwise the Jaccard
// coefficient over lowercased feature tokens is used. Candidates below
// similarityThreshold are dropped; survivors are sorted by score
// descending.
func (r *Registry) FindSimilar(targetName string, targetFeatures []string) []Match {
	targetTokens := tokenSet(targetFeatures)
	lowerName := strings.ToLower(targetName)

	var matches []Match
	for _, s := range r.All() {
		var score float64
		if lowerName != "" && strings.Contains(strings.ToLower(s.Name), lowerName) {
			score = 1.0
		} else {
			score = jaccard(targetTokens, tokenSet(s.KeyFeatures))
		}

		if score < similarityThreshold {
			continue
		}
		matches = append(matches, Match{Subject: s, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

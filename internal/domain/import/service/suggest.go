package service

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSuggestions = 3

// suggest returns up to three known names close to name, closest first.
// A candidate matches when either string fuzzily contains the other.
func suggest(name string, known []string) []string {
	if name == "" || len(known) == 0 {
		return nil
	}

	type candidate struct {
		name     string
		distance int
		index    int
	}

	var candidates []candidate
	for i, k := range known {
		if k == name {
			continue
		}
		distance := fuzzy.RankMatchFold(name, k)
		if distance < 0 {
			distance = fuzzy.RankMatchFold(k, name)
		}
		if distance < 0 {
			continue
		}
		candidates = append(candidates, candidate{name: k, distance: distance, index: i})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].index < candidates[j].index
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

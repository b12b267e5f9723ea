package mapping

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns the closest known name for a misspelled command.
func Suggest(name string, candidates []string) (string, bool) {
	if name == "" {
		return "", false
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Stable(ranks)
	return ranks[0].Target, true
}

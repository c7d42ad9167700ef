// Package fuzzy scores loose matches of typed names, such as a view name
// entered on the command line, against candidate strings.
package fuzzy

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// DefaultThreshold is the lowest score treated as a plausible match.
const DefaultThreshold = 60

type MatchResult struct {
	Text  string
	Score int
	Index int
}

// Match scores pattern against text from 0 (no match) to 100 (exact match,
// ignoring case). Every pattern rune must appear in text in order.
func Match(pattern, text string) int {
	if pattern == "" || text == "" {
		return 0
	}
	p := []rune(strings.ToLower(pattern))
	t := []rune(strings.ToLower(text))
	if slices.Equal(p, t) {
		return 100
	}
	if len(p) > len(t) {
		return 0
	}

	positions := subsequence(p, t)
	if positions == nil {
		return 0
	}
	return min(100, max(0, int(score(p, t, positions))))
}

// MatchMany scores every text and returns those at or above threshold,
// best first. Ties keep input order.
func MatchMany(pattern string, texts []string, threshold int) []MatchResult {
	results := make([]MatchResult, 0, len(texts))
	for i, text := range texts {
		if s := Match(pattern, text); s > 0 && s >= threshold {
			results = append(results, MatchResult{Text: text, Score: s, Index: i})
		}
	}
	slices.SortStableFunc(results, func(a, b MatchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results
}

// Best returns the single best match at or above threshold. It reports false
// when nothing qualifies or when the top two candidates tie.
func Best(pattern string, texts []string, threshold int) (MatchResult, bool) {
	results := MatchMany(pattern, texts, threshold)
	if len(results) == 0 {
		return MatchResult{}, false
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return MatchResult{}, false
	}
	return results[0], true
}

// subsequence returns the greedy leftmost positions of p within t, or nil.
func subsequence(p, t []rune) []int {
	positions := make([]int, 0, len(p))
	pi := 0
	for ti := 0; ti < len(t) && pi < len(p); ti++ {
		if p[pi] == t[ti] {
			positions = append(positions, ti)
			pi++
		}
	}
	if pi < len(p) {
		return nil
	}
	return positions
}

func score(p, t []rune, positions []int) float64 {
	pl, tl := len(p), len(t)
	run := longestRun(positions)
	s := 50.0

	s += float64(pl) / float64(tl) * 25

	if positions[0] == 0 {
		s += 12
	}

	runBonus := float64(run) / float64(pl) * 20
	switch {
	case pl < 3:
		runBonus *= 0.6
	case pl < 5:
		runBonus *= 0.8
	}
	s += runBonus

	if scattered := pl - run; scattered > 0 {
		s -= float64(scattered) * 4
		if run == 1 {
			s -= 10
		}
	}

	var sum int
	for _, pos := range positions {
		sum += pos
	}
	s += (1 - float64(sum)/float64(len(positions))/float64(tl)) * 10

	if boundaryShare(t, positions, isSeparator) > 0.5 {
		s += 10
	}
	if boundaryShare(t, positions, isWordBreak) >= 0.3 {
		s += 8
	}

	if positions[0] == 0 && run == pl {
		if float64(pl)/float64(tl) >= 0.5 {
			s += 10
		} else {
			s += 5
		}
	}

	rate := 0.5
	switch {
	case pl < 3:
		rate = 1.0
	case pl < 5:
		rate = 0.7
	}
	s -= float64(tl-pl) * rate

	return s
}

func longestRun(positions []int) int {
	best, cur := 1, 1
	for i := 1; i < len(positions); i++ {
		if positions[i] == positions[i-1]+1 {
			cur++
			best = max(best, cur)
		} else {
			cur = 1
		}
	}
	return best
}

// boundaryShare is the fraction of matched runes that start the text or
// follow a rune accepted by boundary.
func boundaryShare(t []rune, positions []int, boundary func(rune) bool) float64 {
	n := 0
	for _, pos := range positions {
		if pos == 0 || boundary(t[pos-1]) {
			n++
		}
	}
	return float64(n) / float64(len(positions))
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isWordBreak(r rune) bool {
	return r == ' ' || r == '-' || r == '_' || r == '/'
}

package search

import (
	"sort"
	"strings"
)

// DefaultLimit is the number of suggestions returned when none is requested.
const DefaultLimit = 8

// Score tiers; a suggestion takes the first tier it matches.
const (
	ScoreExact       = 100
	ScorePrefix      = 80
	ScoreSubstring   = 60
	ScoreCategory    = 40
	ScoreDescription = 30
)

// Scored is a suggestion with its relevance.
type Scored struct {
	Suggestion
	Score int `json:"score"`
}

// ScoreOf rates s against a trimmed, lower-cased query. Zero means no match.
func ScoreOf(s Suggestion, q string) int {
	query := strings.ToLower(s.Query)
	switch {
	case query == q:
		return ScoreExact
	case strings.HasPrefix(query, q):
		return ScorePrefix
	case strings.Contains(query, q):
		return ScoreSubstring
	case strings.Contains(strings.ToLower(s.Category), q):
		return ScoreCategory
	case strings.Contains(strings.ToLower(s.Description), q):
		return ScoreDescription
	}
	return 0
}

// Suggestions ranks items for query: score descending, then popularity, then
// query text. An empty query returns the most popular items.
func Suggestions(items []Suggestion, query string, limit int) []Scored {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := []Scored{}
	for _, s := range items {
		score := 0
		if q != "" {
			if score = ScoreOf(s, q); score == 0 {
				continue
			}
		}
		out = append(out, Scored{Suggestion: s, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		return a.Query < b.Query
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Filter keeps items where every whitespace-separated term of query appears,
// case-insensitively, in at least one of the strings fields returns.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matchesAll(fields(it), terms) {
			out = append(out, it)
		}
	}
	return out
}

func matchesAll(hay, terms []string) bool {
	for _, t := range terms {
		found := false
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

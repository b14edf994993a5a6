package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var items = []Suggestion{
	{Query: "ganesh puja", Category: "puja", Description: "obstacles", Popularity: 90},
	{Query: "ganesh", Category: "deity", Description: "elephant god", Popularity: 10},
	{Query: "maha ganesh aarti", Category: "aarti", Description: "evening", Popularity: 50},
	{Query: "lakshmi puja", Category: "puja", Description: "wealth", Popularity: 80},
	{Query: "diwali", Category: "festival", Description: "lakshmi ganesh worship", Popularity: 70},
	{Query: "panchang", Category: "astrology", Description: "tithi", Popularity: 60},
}

func TestScoreTiers(t *testing.T) {
	assert.Equal(t, ScoreExact, ScoreOf(items[1], "ganesh"))
	assert.Equal(t, ScorePrefix, ScoreOf(items[0], "ganesh"))
	assert.Equal(t, ScoreSubstring, ScoreOf(items[2], "ganesh"))
	assert.Equal(t, ScoreCategory, ScoreOf(items[5], "astro"))
	assert.Equal(t, ScoreDescription, ScoreOf(items[4], "ganesh"))
	assert.Zero(t, ScoreOf(items[5], "ganesh"))
}

func TestSuggestionsOrder(t *testing.T) {
	got := Suggestions(items, "  GANESH ", 0)
	require.Len(t, got, 4)
	assert.Equal(t, "ganesh", got[0].Query)
	assert.Equal(t, "ganesh puja", got[1].Query)
	assert.Equal(t, "maha ganesh aarti", got[2].Query)
	assert.Equal(t, "diwali", got[3].Query)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestSuggestionsTieBreaks(t *testing.T) {
	list := []Suggestion{
		{Query: "puja b", Popularity: 5},
		{Query: "puja a", Popularity: 5},
		{Query: "puja c", Popularity: 9},
	}
	got := Suggestions(list, "puja", 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"puja c", "puja a", "puja b"}, []string{got[0].Query, got[1].Query, got[2].Query})
}

func TestSuggestionsEmptyQueryIsPopular(t *testing.T) {
	got := Suggestions(items, "", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "ganesh puja", got[0].Query)
	assert.Equal(t, "lakshmi puja", got[1].Query)
}

func TestSuggestionsNoMatch(t *testing.T) {
	assert.Empty(t, Suggestions(items, "zzz", 5))
}

func TestFilter(t *testing.T) {
	type provider struct {
		name     string
		city     string
		services []string
	}
	list := []provider{
		{"Pandit Sharma", "Varanasi", []string{"Rudrabhishek", "Griha Pravesh"}},
		{"Acharya Joshi", "Pune", []string{"Satyanarayan Katha"}},
		{"Pandit Mishra", "Pune", []string{"Rudrabhishek"}},
	}
	fields := func(p provider) []string { return append([]string{p.name, p.city}, p.services...) }

	got := Filter(list, "pune rudra", fields)
	require.Len(t, got, 1)
	assert.Equal(t, "Pandit Mishra", got[0].name)
	assert.Len(t, Filter(list, "PANDIT", fields), 2)
	assert.Len(t, Filter(list, "   ", fields), 3)
	assert.Equal(t, "Rudrabhishek", list[0].services[0])
}

func TestCatalogueHandler(t *testing.T) {
	h := NewHandler(nil)
	rec := httptest.NewRecorder()
	h.Suggestions(rec, httptest.NewRequest(http.MethodGet, "/search/suggestions?q=puja&limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Query       string   `json:"query"`
		Suggestions []Scored `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "puja", body.Query)
	assert.Len(t, body.Suggestions, 3)
	assert.Equal(t, ScoreSubstring, body.Suggestions[len(body.Suggestions)-1].Score)
	assert.Equal(t, "ganesh puja", body.Suggestions[0].Query)
}

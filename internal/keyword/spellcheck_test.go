package keyword

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTermDictionary struct {
	terms        map[string]int
	getAllError  error
	getFreqError error
}

func newMockTermDictionary(terms map[string]int) *mockTermDictionary {
	return &mockTermDictionary{terms: terms}
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	if m.getAllError != nil {
		return nil, m.getAllError
	}
	result := make([]string, 0, len(m.terms))
	for term := range m.terms {
		result = append(result, term)
	}
	return result, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	if m.getFreqError != nil {
		return 0, m.getFreqError
	}
	return m.terms[term], nil
}

func (m *mockTermDictionary) ContainsTerm(term string) (bool, error) {
	_, ok := m.terms[term]
	return ok, nil
}

func medicalDictionary() *mockTermDictionary {
	return newMockTermDictionary(map[string]int{
		"pneumonia":  3,
		"pleurisy":   1,
		"asthma":     2,
		"acute":      5,
		"acuta":      1,
		"chronic":    4,
		"bronchitis": 2,
		"gastritis":  1,
	})
}

func TestNewSpellChecker_Defaults(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	require.NotNil(t, sc)
	assert.Equal(t, 2, sc.maxDistance)
	assert.Equal(t, 1, sc.minFreq)
	assert.Equal(t, 5, sc.maxSuggestions)
	assert.True(t, sc.transpositions)
}

func TestNewSpellChecker_Options(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary(),
		WithMaxDistance(3),
		WithMinFrequency(2),
		WithMaxSuggestions(1),
		WithTranspositions(false),
	)
	assert.Equal(t, 3, sc.maxDistance)
	assert.Equal(t, 2, sc.minFreq)
	assert.Equal(t, 1, sc.maxSuggestions)
	assert.False(t, sc.transpositions)

	// Invalid values keep defaults.
	sc = NewSpellChecker(medicalDictionary(), WithMaxDistance(0), WithMaxSuggestions(-1), WithTokenizer(nil))
	assert.Equal(t, 2, sc.maxDistance)
	assert.Equal(t, 5, sc.maxSuggestions)
	assert.NotNil(t, sc.tokenize)
}

func TestSuggest_Transposition(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	suggestions, err := sc.Suggest("pnuemonia")
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "pneumonia", suggestions[0].Term)
	assert.Equal(t, 1, suggestions[0].Distance)
	assert.Equal(t, 3, suggestions[0].Frequency)
}

func TestSuggest_PlainLevenshtein(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary(), WithTranspositions(false))
	suggestions, err := sc.Suggest("pnuemonia")
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, 2, suggestions[0].Distance)

	sc = NewSpellChecker(medicalDictionary(), WithTranspositions(false), WithMaxDistance(1))
	suggestions, err = sc.Suggest("pnuemonia")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggest_FrequencyBreaksDistanceTies(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	suggestions, err := sc.Suggest("acutx")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "acute", suggestions[0].Term)
	assert.Equal(t, "acuta", suggestions[1].Term)
	assert.Greater(t, suggestions[0].Score, suggestions[1].Score)
}

func TestSuggest_SkipsExactTerm(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	suggestions, err := sc.Suggest("acute")
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.NotEqual(t, "acute", s.Term)
	}
}

func TestSuggest_MinFrequencyAndLimit(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary(), WithMinFrequency(2))
	suggestions, err := sc.Suggest("pleurisi")
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	sc = NewSpellChecker(medicalDictionary(), WithMaxSuggestions(1))
	suggestions, err = sc.Suggest("acutx")
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}

func TestCheck_CorrectsQuery(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	result, err := sc.Check("Acute pnuemonia")
	require.NoError(t, err)
	assert.True(t, result.HasCorrections)
	assert.Equal(t, "acute pneumonia", result.CorrectedQuery)
	assert.Equal(t, []string{"pnuemonia"}, result.MisspelledTerms)
	assert.Equal(t, "Acute pnuemonia", result.OriginalQuery)
}

func TestCheck_NoCorrections(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	result, err := sc.Check("chronic asthma")
	require.NoError(t, err)
	assert.False(t, result.HasCorrections)
	assert.Equal(t, "chronic asthma", result.CorrectedQuery)
	assert.Empty(t, result.MisspelledTerms)
}

func TestCheck_UnknownWordKept(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	result, err := sc.Check("xyzzyq asthma")
	require.NoError(t, err)
	assert.False(t, result.HasCorrections)
	assert.Equal(t, "xyzzyq asthma", result.CorrectedQuery)
}

func TestCheck_CustomTokenizer(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary(), WithTokenizer(func(q string) []string {
		return strings.Split(strings.ToLower(q), ",")
	}))
	result, err := sc.Check("bronchitus,asthma")
	require.NoError(t, err)
	assert.Equal(t, "bronchitis asthma", result.CorrectedQuery)
}

func TestCheck_DictionaryError(t *testing.T) {
	dict := medicalDictionary()
	dict.getAllError = errors.New("dictionary unavailable")
	sc := NewSpellChecker(dict)

	_, err := sc.Check("pnuemonia")
	require.Error(t, err)
	assert.Equal(t, "pnuemonia", sc.SuggestedQuery("pnuemonia"))
	assert.False(t, sc.IsMisspelled("pnuemonia"))
}

func TestSuggest_FrequencyErrorSkipsCandidate(t *testing.T) {
	dict := medicalDictionary()
	dict.getFreqError = errors.New("boom")
	sc := NewSpellChecker(dict)
	suggestions, err := sc.Suggest("pnuemonia")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestIsMisspelled(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	assert.False(t, sc.IsMisspelled("ASTHMA"))
	assert.True(t, sc.IsMisspelled("asthmaa"))
}

func TestSuggestedQuery(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	assert.Equal(t, "chronic bronchitis", sc.SuggestedQuery("chronic bronchitus"))
	assert.Equal(t, "chronic asthma", sc.SuggestedQuery("chronic asthma"))
}

func TestRefreshCache_PicksUpNewTerms(t *testing.T) {
	dict := medicalDictionary()
	sc := NewSpellChecker(dict)
	assert.True(t, sc.IsMisspelled("sepsis"))

	dict.terms["sepsis"] = 1
	require.NoError(t, sc.RefreshCache())
	assert.False(t, sc.IsMisspelled("sepsis"))
}

func TestSpellChecker_Concurrent(t *testing.T) {
	sc := NewSpellChecker(medicalDictionary())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := sc.Check("acute pnuemonia")
			assert.NoError(t, err)
			assert.Equal(t, "acute pneumonia", result.CorrectedQuery)
		}()
	}
	wg.Wait()
}

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, locales map[string][]string) *CompiledFilter {
	t.Helper()
	f, err := Compile(locales)
	require.NoError(t, err)
	return f
}

func TestMatchSingleWord(t *testing.T) {
	f := mustCompile(t, map[string][]string{"en": {"badword"}})

	term, hit := f.Match("this contains badword somewhere")
	assert.True(t, hit)
	assert.Equal(t, "badword", term)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	f := mustCompile(t, map[string][]string{"en": {"badword"}})

	_, hit := f.Match("BADWORD at the start")
	assert.True(t, hit)
}

func TestMatchRespectsWordBoundaries(t *testing.T) {
	f := mustCompile(t, map[string][]string{"en": {"ass"}})

	_, hit := f.Match("a nice glass preset")
	assert.False(t, hit, "substring inside a larger word must not match")

	_, hit = f.Match("what an ass")
	assert.True(t, hit)
}

func TestMatchMultiWordPhrase(t *testing.T) {
	f := mustCompile(t, map[string][]string{"en": {"very bad phrase"}})

	term, hit := f.Match("contains a very bad phrase indeed")
	assert.True(t, hit)
	assert.Equal(t, "very bad phrase", term)

	_, hit = f.Match("very phrase bad, scrambled")
	assert.False(t, hit)
}

func TestMatchMergesLocales(t *testing.T) {
	f := mustCompile(t, map[string][]string{
		"en": {"badword"},
		"de": {"schimpfwort"},
	})

	_, hit := f.Match("ein schimpfwort hier")
	assert.True(t, hit)
	_, hit = f.Match("badword there")
	assert.True(t, hit)
}

func TestEmptyFilterMatchesNothing(t *testing.T) {
	f := mustCompile(t, nil)

	_, hit := f.Match("anything at all")
	assert.False(t, hit)
}

func TestBlankEntriesIgnored(t *testing.T) {
	f := mustCompile(t, map[string][]string{"en": {"  ", "", "real"}})

	_, hit := f.Match("no hits here")
	assert.False(t, hit)
	_, hit = f.Match("the real thing")
	assert.True(t, hit)
}

func TestRegexMetacharactersAreLiteral(t *testing.T) {
	f := mustCompile(t, map[string][]string{"en": {"b.d"}})

	_, hit := f.Match("bad")
	assert.False(t, hit, "dot must not act as a wildcard")
}

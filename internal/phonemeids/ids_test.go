// Package phonemeids_test tests phoneme id assignment and rendering.
package phonemeids_test

import (
	"strings"
	"testing"

	"github.com/book-expert/phonemizer-service/internal/phonemeids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildVocabulary(
	t *testing.T,
	opts phonemeids.Options,
	lines ...string,
) *phonemeids.Vocabulary {
	t.Helper()

	vocabulary := phonemeids.NewVocabulary()
	vocabulary.AddReserved(opts)

	for _, line := range lines {
		vocabulary.Collect(line, opts)
	}

	vocabulary.AssignPending()

	return vocabulary
}

func TestLineIDs_CharacterSplit(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_"}
	vocabulary := buildVocabulary(t, opts, "tˈɛst")

	// Pad claims id 0; the collected phonemes follow in sorted order:
	// s=1, t=2, ɛ=3, ˈ=4.
	ids, err := vocabulary.LineIDs("tˈɛst", opts)
	require.NoError(t, err)
	assert.Equal(t, "2 4 3 1 2", ids)
}

func TestLineIDs_SeparateStress(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_", SeparateStress: true}
	vocabulary := buildVocabulary(t, opts, "tˈɛst")

	// Reserved: pad=0, primary stress=1, secondary stress=2. Collected:
	// s=3, t=4, ɛ=5. The stress mark is rendered as its own id.
	ids, err := vocabulary.LineIDs("tˈɛst", opts)
	require.NoError(t, err)
	assert.Equal(t, "4 1 5 3 4", ids)
}

func TestLineIDs_PhonemeSeparatorSplit(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{
		Pad:              "_",
		PhonemeSeparator: "_",
		SeparateStress:   true,
	}
	vocabulary := buildVocabulary(t, opts, "t_ˈɛ_s_t")

	// Multi-character phonemes survive separator-based splitting; the
	// stress mark is still pulled off the front of ˈɛ.
	ids, err := vocabulary.LineIDs("t_ˈɛ_s_t", opts)
	require.NoError(t, err)
	assert.Equal(t, "4 1 5 3 4", ids)
}

func TestLineIDs_BlankBetweenWords(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_", AddBlank: true}
	vocabulary := buildVocabulary(t, opts, "tˈɛst wˈʌn")

	// pad=0, blank=1; collected sorted: n=2, s=3, t=4, w=5, ɛ=6, ʌ=7, ˈ=8.
	ids, err := vocabulary.LineIDs("tˈɛst wˈʌn", opts)
	require.NoError(t, err)
	assert.Equal(t, "4 8 6 3 4 1 5 8 7 2", ids)
}

func TestLineIDs_BOSAndEOS(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_", BOS: "^", EOS: "$"}
	vocabulary := buildVocabulary(t, opts, "ab")

	ids, err := vocabulary.LineIDs("ab", opts)
	require.NoError(t, err)
	assert.Equal(t, "1 3 4 2", ids)
}

func TestLineIDs_SimplePunctuation(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_", SimplePunctuation: true}
	vocabulary := buildVocabulary(t, opts, "a !")

	// "," and "." are always part of the vocabulary; every other
	// punctuation phoneme maps onto them.
	forExclamation, err := vocabulary.LineIDs("a !", opts)
	require.NoError(t, err)

	forPeriod, err := vocabulary.LineIDs("a .", opts)
	require.NoError(t, err)

	assert.Equal(t, forPeriod, forExclamation)
}

func TestLineIDs_UnknownPhoneme(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_"}
	vocabulary := buildVocabulary(t, opts, "ab")

	_, err := vocabulary.LineIDs("abc", opts)
	require.ErrorIs(t, err, phonemeids.ErrUnknownPhoneme)
}

func TestVocabulary_WriteLoadRoundTrip(t *testing.T) {
	t.Parallel()

	opts := phonemeids.Options{Pad: "_", SeparateStress: true}
	vocabulary := buildVocabulary(t, opts, "tˈɛst")

	var rendered strings.Builder

	err := vocabulary.Write(&rendered)
	require.NoError(t, err)

	loaded := phonemeids.NewVocabulary()
	err = loaded.Load(strings.NewReader(rendered.String()))
	require.NoError(t, err)

	want, err := vocabulary.LineIDs("tˈɛst", opts)
	require.NoError(t, err)

	got, err := loaded.LineIDs("tˈɛst", opts)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVocabulary_LoadSkipsCommentsAndMalformedLines(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"# phoneme map",
		"",
		"0 _",
		"not-a-pair",
		"1 a",
	}, "\n")

	vocabulary := phonemeids.NewVocabulary()
	err := vocabulary.Load(strings.NewReader(input))
	require.NoError(t, err)

	opts := phonemeids.Options{}

	ids, err := vocabulary.LineIDs("a", opts)
	require.NoError(t, err)
	assert.Equal(t, "1", ids)
}

func TestVocabulary_LoadRejectsBadID(t *testing.T) {
	t.Parallel()

	vocabulary := phonemeids.NewVocabulary()
	err := vocabulary.Load(strings.NewReader("zero a\n"))
	require.Error(t, err)
}

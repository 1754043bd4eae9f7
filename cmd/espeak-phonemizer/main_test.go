package main

import (
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/book-expert/phonemizer-service/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPhonemizer echoes its input with a marker so output wiring can be
// asserted without a native engine.
type mockPhonemizer struct {
	lastOpts core.PhonemeOptions
}

func (m *mockPhonemizer) Phonemize(text string, opts core.PhonemeOptions) (string, error) {
	m.lastOpts = opts

	return "ph:" + text, nil
}

// TestMainFlags verifies that command-line flags are parsed correctly.
func TestMainFlags(t *testing.T) {
	t.Parallel()
	// Save original command line args to restore them after the test.
	oldArgs := os.Args

	t.Cleanup(func() { os.Args = oldArgs })

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{
		"cmd",
		"--voice", "en-us",
		"--phoneme-separator", "_",
		"--keep-punctuation",
		"--csv-delimiter", ";",
	}

	flags := parseFlags()

	assert.Equal(t, "en-us", flags.voice)
	assert.Equal(t, "_", flags.phonemeSeparator)
	assert.True(t, flags.keepPunctuation)
	assert.Equal(t, ";", flags.csvDelimiter)
	assert.False(t, flags.csv)
	assert.Equal(t, " ", flags.outputSeparator)
}

func TestBuildOptions(t *testing.T) {
	t.Parallel()

	flags := appFlags{
		voice:             "en-us",
		phonemeSeparator:  "_",
		wordSeparator:     "#",
		keepPunctuation:   true,
		keepLanguageFlags: true,
		noStress:          true,
	}

	opts, err := buildOptions(flags)
	require.NoError(t, err)

	assert.Equal(t, '_', opts.PhonemeSeparator)
	assert.Equal(t, "_", opts.PunctuationSeparator)
	assert.Equal(t, "#", opts.WordSeparator)
	assert.True(t, opts.KeepClauseBreakers)
	assert.True(t, opts.KeepLanguageFlags)
	assert.True(t, opts.NoStress)
}

func TestBuildOptions_MultiCharacterSeparatorRejected(t *testing.T) {
	t.Parallel()

	_, err := buildOptions(appFlags{phonemeSeparator: "__"})
	require.ErrorIs(t, err, errSeparatorNotSingle)
}

func TestProcessLines_SkipsEmptyLines(t *testing.T) {
	t.Parallel()

	session := &mockPhonemizer{}
	input := strings.NewReader("hello\n\nworld\n")

	var output strings.Builder

	err := processLines(session, core.PhonemeOptions{}, appFlags{}, input, &output)
	require.NoError(t, err)
	assert.Equal(t, "ph:hello\nph:world\n", output.String())
}

func TestProcessLines_PrintInput(t *testing.T) {
	t.Parallel()

	session := &mockPhonemizer{}
	flags := appFlags{printInput: true, outputSeparator: "|"}
	input := strings.NewReader("hello\n")

	var output strings.Builder

	err := processLines(session, core.PhonemeOptions{}, flags, input, &output)
	require.NoError(t, err)
	assert.Equal(t, "hello|ph:hello\n", output.String())
}

func TestProcessCSV_AppendsPhonemesColumn(t *testing.T) {
	t.Parallel()

	session := &mockPhonemizer{}
	flags := appFlags{csvDelimiter: "|"}
	input := strings.NewReader("id1|hello\nid2|meta|world\n")

	var output strings.Builder

	err := processCSV(session, core.PhonemeOptions{}, flags, input, &output)
	require.NoError(t, err)
	assert.Equal(t, "id1|hello|ph:hello\nid2|meta|world|ph:world\n", output.String())
}

func TestProcessCSV_EmptyDelimiterRejected(t *testing.T) {
	t.Parallel()

	session := &mockPhonemizer{}

	err := processCSV(session, core.PhonemeOptions{}, appFlags{}, strings.NewReader(""), &strings.Builder{})
	require.ErrorIs(t, err, errSeparatorNotSingle)
}

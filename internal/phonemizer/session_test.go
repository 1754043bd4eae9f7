package phonemizer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/phonemizer-service/internal/core"
	"github.com/book-expert/phonemizer-service/internal/phonemizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_UnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := phonemizer.NewSession(newFakeEngine(), "en-us", phonemizer.Strategy(99), nil)
	require.ErrorIs(t, err, phonemizer.ErrUnknownStrategy)
}

func TestPhonemize_SSMLRequiresCaptureStrategy(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("<speak>test</speak>", core.PhonemeOptions{SSML: true})
	require.ErrorIs(t, err, phonemizer.ErrSSMLRequiresStream)

	// Validation must reject the call before touching the engine.
	assert.Zero(t, engine.initCalls)
}

func TestPhonemize_SSMLAcceptedByCaptureStrategy(t *testing.T) {
	t.Parallel()

	session := newSession(t, newFakeEngine(), phonemizer.CapturedStream)

	_, err := session.Phonemize("test", core.PhonemeOptions{SSML: true})
	require.NoError(t, err)
}

func TestPhonemize_SeparatorConflict(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.CapturedStream)

	_, err := session.Phonemize("test", core.PhonemeOptions{
		PhonemeSeparator: ' ',
		WordSeparator:    "#",
	})
	require.ErrorIs(t, err, phonemizer.ErrSeparatorConflict)
	assert.Zero(t, engine.initCalls)
}

func TestPhonemize_InitializesOnce(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)

	_, err = session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, engine.initCalls)
}

func TestPhonemize_InitializeFailureIsFatal(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	engine.initErr = errMockInit
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.ErrorIs(t, err, errMockInit)
}

func TestPhonemize_NonPositiveSampleRate(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	engine.sampleRate = 0
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.ErrorIs(t, err, phonemizer.ErrInvalidSampleRate)
}

func TestPhonemize_VoiceChangeOnlyWhenDifferent(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{Voice: "en-gb"})
	require.NoError(t, err)

	_, err = session.Phonemize("test", core.PhonemeOptions{Voice: "en-gb"})
	require.NoError(t, err)

	assert.Equal(t, []string{"en-gb"}, engine.nameCalls)
}

func TestPhonemize_DefaultVoiceUsedWhenUnset(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"en-us"}, engine.nameCalls)
}

func TestPhonemize_VoiceRejectionIsRecovered(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	engine.voiceErr = errMockVoice
	session := newSession(t, engine, phonemizer.DirectCall)

	phonemes, err := session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tˈɛst", phonemes)

	// The rejected voice is not recorded as current, so the next call
	// attempts the change again.
	_, err = session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)
	assert.Len(t, engine.nameCalls, 2)
}

func TestPhonemize_VoiceFileResolution(t *testing.T) {
	t.Parallel()

	voicePath := filepath.Join(t.TempDir(), "custom-voice")
	require.NoError(t, os.WriteFile(voicePath, []byte("voice model"), 0o600))

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{Voice: voicePath})
	require.NoError(t, err)

	assert.Equal(t, []string{voicePath}, engine.fileCalls)
	assert.Empty(t, engine.nameCalls)
}

func TestDirectStrategy_ReleasesClauseIterator(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.DirectCall)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)
	require.NotNil(t, engine.lastIterator)
	assert.True(t, engine.lastIterator.closed)
}

func TestCaptureStrategy_ReleasesSink(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	session := newSession(t, engine, phonemizer.CapturedStream)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.NoError(t, err)
	require.NotNil(t, engine.lastSink)
	assert.True(t, engine.lastSink.closed)
}

func TestCaptureStrategy_ReleasesSinkOnSynthesisError(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	engine.synthErr = errMockSynth
	session := newSession(t, engine, phonemizer.CapturedStream)

	_, err := session.Phonemize("test", core.PhonemeOptions{})
	require.ErrorIs(t, err, errMockSynth)
	require.NotNil(t, engine.lastSink)
	assert.True(t, engine.lastSink.closed)
}

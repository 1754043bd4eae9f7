// Package phonemizer converts text into formatted IPA phoneme strings using
// a native speech engine.
//
// A Session owns the engine's process-wide state (one-time initialization and
// the active voice) and acquires raw per-clause phonemes through one of two
// interchangeable strategies. The raw clauses are then reshaped by an ordered
// formatting pipeline according to per-call options.
//
// Sessions are not safe for concurrent use: the underlying engine is
// process-global, so at most one Phonemize call may be in flight at a time
// across the whole process.
package phonemizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/book-expert/logger"
	"github.com/book-expert/phonemizer-service/internal/core"
)

// Strategy selects how raw phonemes are acquired from the engine.
type Strategy int

const (
	// DirectCall walks the engine's text cursor clause by clause. Cannot
	// process SSML input.
	DirectCall Strategy = iota

	// CapturedStream captures the engine's phoneme trace during
	// synchronous, trace-only synthesis over the whole input at once.
	CapturedStream
)

// DefaultClauseBreakers is the default set of punctuation characters treated
// as clause boundaries for retention purposes.
const DefaultClauseBreakers = ",;:.!?"

// Static errors.
var (
	// ErrInvalidSampleRate indicates the engine failed to initialize.
	ErrInvalidSampleRate = errors.New("engine reported non-positive sample rate")
	// ErrSSMLRequiresStream indicates SSML input was requested under the
	// direct-call strategy, which cannot honor it.
	ErrSSMLRequiresStream = errors.New("ssml input requires the captured-stream strategy")
	// ErrSeparatorConflict indicates an incompatible separator combination.
	ErrSeparatorConflict = errors.New(
		"word separator cannot be used if phoneme separator is whitespace",
	)
	// ErrUnknownStrategy indicates an unrecognized acquisition strategy.
	ErrUnknownStrategy = errors.New("unknown acquisition strategy")
)

// Session manages the engine's initialization and voice state and produces
// formatted phoneme strings. Single-owner, not safe for concurrent use.
type Session struct {
	engine         core.PhonemeEngine
	log            *logger.Logger
	extractor      rawExtractor
	clauseBreakers map[rune]struct{}
	defaultVoice   string
	currentVoice   string
	initialized    bool
}

// NewSession creates a Session around engine. The default voice is used when
// a call does not override it; strategy is fixed for the session's lifetime.
func NewSession(
	engine core.PhonemeEngine,
	defaultVoice string,
	strategy Strategy,
	log *logger.Logger,
) (*Session, error) {
	var extractor rawExtractor

	switch strategy {
	case DirectCall:
		extractor = directExtractor{}
	case CapturedStream:
		extractor = captureExtractor{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, strategy)
	}

	return &Session{
		engine:         engine,
		log:            log,
		extractor:      extractor,
		clauseBreakers: breakerSet(DefaultClauseBreakers),
		defaultVoice:   defaultVoice,
		currentVoice:   "",
		initialized:    false,
	}, nil
}

// SetClauseBreakers replaces the clause-breaker character set. An empty set
// disables breaker retention entirely.
func (s *Session) SetClauseBreakers(chars string) {
	s.clauseBreakers = breakerSet(chars)
}

// Phonemize returns the formatted IPA phoneme string for text.
//
// Validation errors are reported before any engine call. Initialization
// failure is unrecoverable. A rejected voice change is logged as a warning
// and phonemization proceeds with the engine's current voice.
func (s *Session) Phonemize(text string, opts core.PhonemeOptions) (string, error) {
	err := s.validateOptions(opts)
	if err != nil {
		return "", err
	}

	err = s.ensureInitialized()
	if err != nil {
		return "", err
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.defaultVoice
	}

	s.setVoice(voice)

	var missingBreakers []rune
	if opts.KeepClauseBreakers && len(s.clauseBreakers) > 0 {
		missingBreakers = s.scanClauseBreakers(text)
	}

	clauses, err := s.extractor.extract(
		s.engine,
		text,
		core.PhonemeMode(opts.PhonemeSeparator),
		opts.SSML,
	)
	if err != nil {
		return "", fmt.Errorf("failed to extract raw phonemes: %w", err)
	}

	return formatClauses(clauses, missingBreakers, opts), nil
}

// validateOptions rejects configurations the session cannot honor, before
// any side-effecting engine call.
func (s *Session) validateOptions(opts core.PhonemeOptions) error {
	if opts.SSML && !s.extractor.supportsSSML() {
		return ErrSSMLRequiresStream
	}

	wordSeparator := opts.WordSeparator
	if wordSeparator != "" && wordSeparator != " " {
		if opts.PhonemeSeparator != 0 && unicode.IsSpace(opts.PhonemeSeparator) {
			return ErrSeparatorConflict
		}
	}

	return nil
}

// ensureInitialized loads the engine's native resources exactly once per
// process lifetime. Failure here is an unrecoverable configuration error.
func (s *Session) ensureInitialized() error {
	if s.initialized {
		return nil
	}

	sampleRate, err := s.engine.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize speech engine: %w", err)
	}

	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	s.initialized = true

	return nil
}

// setVoice issues a voice change only when the requested voice differs from
// the session's current one. Voice identifiers are disambiguated by shape: an
// input that expands to an existing absolute path is resolved through the
// voice-by-file capability, everything else through voice-by-name. A rejected
// change is a recovered warning; the current voice is updated only on
// success.
func (s *Session) setVoice(voice string) {
	if voice == "" || voice == s.currentVoice {
		return
	}

	var err error

	voicePath, isFile := resolveVoiceFile(voice)
	if isFile {
		err = s.engine.SetVoiceByFile(voicePath)
	} else {
		err = s.engine.SetVoiceByName(voice)
	}

	if err != nil {
		s.log.Warn("Failed to set voice to %s: %v", voice, err)

		return
	}

	s.currentVoice = voice
}

// resolveVoiceFile reports whether voice names an existing absolute voice
// model file, returning the resolved path when it does.
func resolveVoiceFile(voice string) (string, bool) {
	expanded := voice
	if strings.HasPrefix(voice, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			expanded = filepath.Join(home, strings.TrimPrefix(voice, "~"))
		}
	}

	if !filepath.IsAbs(expanded) {
		return "", false
	}

	_, statErr := os.Stat(expanded)
	if statErr != nil {
		return "", false
	}

	resolved, err := filepath.Abs(expanded)
	if err != nil {
		return "", false
	}

	return resolved, true
}

// scanClauseBreakers collects, in order of appearance, every character of
// text that belongs to the configured clause-breaker set.
func (s *Session) scanClauseBreakers(text string) []rune {
	var found []rune

	for _, char := range text {
		if _, ok := s.clauseBreakers[char]; ok {
			found = append(found, char)
		}
	}

	return found
}

func breakerSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, char := range chars {
		set[char] = struct{}{}
	}

	return set
}

// Package core defines the core business logic and interfaces for the
// phonemizer service.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// PhonemeOptions holds the per-call formatting configuration for a single
// phonemize request.
type PhonemeOptions struct {
	// Voice overrides the session's default voice when non-empty.
	Voice string

	// KeepClauseBreakers re-appends clause-breaking punctuation characters
	// found in the original text.
	KeepClauseBreakers bool

	// PhonemeSeparator is an optional single character inserted between
	// phonemes by the engine. Zero means none.
	PhonemeSeparator rune

	// WordSeparator is the string placed between words. Empty means a
	// single space.
	WordSeparator string

	// PunctuationSeparator is inserted before each re-appended clause
	// breaker.
	PunctuationSeparator string

	// KeepLanguageFlags retains parenthesized language-switch annotations
	// such as "(en)".
	KeepLanguageFlags bool

	// NoStress removes primary and secondary stress marks.
	NoStress bool

	// SSML enables SSML markup in the input text. Only supported by the
	// captured-stream acquisition strategy.
	SSML bool
}

// Phonemizer converts text into a formatted IPA phoneme string.
type Phonemizer interface {
	Phonemize(text string, opts PhonemeOptions) (string, error)
}

// ClauseIterator walks the engine's internal text cursor, yielding one
// clause's phonemes per call. The ok result is false once the text is
// exhausted. Close releases the iterator's native resources and must be
// called on every exit path; it is safe after exhaustion.
type ClauseIterator interface {
	Next() (phonemes string, terminator int, ok bool)
	Close() error
}

// TraceSink is a growable in-memory destination for the engine's phoneme
// trace output. It must be closed on every exit path of the call that
// opened it.
type TraceSink interface {
	// Contents flushes the sink and returns everything written so far.
	Contents() (string, error)
	Close() error
}

// PhonemeEngine is the narrow contract over the native speech engine. The
// engine is process-global state: implementations are not safe for
// concurrent use, and at most one phonemize call may be in flight at a time.
type PhonemeEngine interface {
	// Initialize loads the engine's native resources and returns its audio
	// sample rate. A non-positive sample rate or a missing required
	// capability is an unrecoverable error.
	Initialize() (int, error)

	// SetVoiceByName selects a voice by its language/locale name, e.g.
	// "en-us".
	SetVoiceByName(name string) error

	// SetVoiceByFile selects a voice from a model file path.
	SetVoiceByFile(path string) error

	// Clauses prepares a clause-by-clause walk over text. The engine owns
	// the cursor; phonemeMode carries the separator-in-flag packing (see
	// PhonemeMode).
	Clauses(text string, textMode, phonemeMode int) ClauseIterator

	// OpenTraceSink allocates an in-memory sink for phoneme trace output.
	OpenTraceSink() (TraceSink, error)

	// SetPhonemeTrace installs sink as the destination for trace output of
	// subsequent synthesis calls.
	SetPhonemeTrace(phonemeMode int, sink TraceSink) error

	// Synthesize runs synchronous, trace-only synthesis over text. No audio
	// is produced; phonemes are written to the installed trace sink.
	Synthesize(text string, synthMode int) error
}

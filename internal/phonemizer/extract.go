package phonemizer

import (
	"fmt"
	"strings"

	"github.com/book-expert/phonemizer-service/internal/core"
)

// rawExtractor produces the ordered raw clause sequence for one phonemize
// call. Exactly one concrete implementation is selected when the session is
// constructed.
type rawExtractor interface {
	extract(
		engine core.PhonemeEngine,
		text string,
		phonemeMode int,
		ssml bool,
	) ([]core.ClauseResult, error)
	supportsSSML() bool
}

// directExtractor repeatedly invokes the engine's text-to-phonemes capability,
// advancing the engine-managed cursor until exhaustion. Each call yields one
// clause plus a terminator code whose masked bits classify the clause break.
type directExtractor struct{}

func (directExtractor) supportsSSML() bool { return false }

func (directExtractor) extract(
	engine core.PhonemeEngine,
	text string,
	phonemeMode int,
	_ bool,
) (clauses []core.ClauseResult, err error) {
	iterator := engine.Clauses(text, core.CharsAuto, phonemeMode)

	// The iterator owns a native text buffer: release it on every exit path.
	defer func() {
		closeErr := iterator.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close clause iterator: %w", closeErr)
		}
	}()

	for {
		phonemes, terminator, ok := iterator.Next()
		if !ok {
			break
		}

		clauses = append(clauses, core.ClauseResult{
			Phonemes:   phonemes,
			Terminator: core.KindOfTerminator(terminator),
		})
	}

	return clauses, nil
}

// captureExtractor installs an in-memory trace sink, runs synchronous
// trace-only synthesis over the whole input, and splits the captured text on
// line boundaries to obtain one entry per clause. No terminator metadata is
// available; line breaks are the clause delimiters. Supports SSML.
type captureExtractor struct{}

func (captureExtractor) supportsSSML() bool { return true }

func (captureExtractor) extract(
	engine core.PhonemeEngine,
	text string,
	phonemeMode int,
	ssml bool,
) (clauses []core.ClauseResult, err error) {
	sink, err := engine.OpenTraceSink()
	if err != nil {
		return nil, fmt.Errorf("failed to open phoneme trace sink: %w", err)
	}

	// The sink is a per-call resource: release it on every exit path.
	defer func() {
		closeErr := sink.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close phoneme trace sink: %w", closeErr)
		}
	}()

	err = engine.SetPhonemeTrace(phonemeMode, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to install phoneme trace: %w", err)
	}

	err = engine.Synthesize(text, core.SynthMode(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize phoneme trace: %w", err)
	}

	captured, err := sink.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read phoneme trace: %w", err)
	}

	for _, line := range splitTraceLines(captured) {
		clauses = append(clauses, core.ClauseResult{
			Phonemes:   line,
			Terminator: core.TerminatorNone,
		})
	}

	return clauses, nil
}

// splitTraceLines splits captured trace output on line boundaries, dropping
// the trailing empty entry a final newline would otherwise produce.
func splitTraceLines(captured string) []string {
	if captured == "" {
		return nil
	}

	normalized := strings.ReplaceAll(captured, "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")

	return strings.Split(normalized, "\n")
}

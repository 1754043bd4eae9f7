package phonemizer

import (
	"regexp"
	"strings"

	"github.com/book-expert/phonemizer-service/internal/core"
)

const defaultWordSeparator = " "

// Compiled patterns for the formatting pipeline.
var (
	// langSwitchFlag matches parenthesized language-switch annotations the
	// engine emits when the input switches language, e.g. "(en)".
	langSwitchFlag = regexp.MustCompile(`\([^)]*\)`)

	// stressMarks matches primary and secondary IPA stress marks.
	stressMarks = regexp.MustCompile(`[ˈˌ]`)
)

// StripLanguageFlags removes every parenthesized language-switch annotation.
// Idempotent.
func StripLanguageFlags(phonemes string) string {
	return langSwitchFlag.ReplaceAllString(phonemes, "")
}

// StripStress removes every primary and secondary stress mark. Idempotent.
func StripStress(phonemes string) string {
	return stressMarks.ReplaceAllString(phonemes, "")
}

// CollapseSeparators collapses every maximal run of separator into exactly
// one occurrence. Idempotent. A zero separator is a no-op.
func CollapseSeparators(phonemes string, separator rune) string {
	if separator == 0 {
		return phonemes
	}

	pattern := regexp.MustCompile("[" + regexp.QuoteMeta(string(separator)) + "]+")

	return pattern.ReplaceAllString(phonemes, string(separator))
}

// formatClauses runs the ordered formatting pipeline over raw engine output.
// The stage order is significant: word-separator normalization must happen
// while clause boundaries are still separate entries, breaker reinsertion
// before the join, stress stripping on the joined string, and separator
// collapsing last to repair artifacts the earlier stages introduce.
func formatClauses(
	clauses []core.ClauseResult,
	missingBreakers []rune,
	opts core.PhonemeOptions,
) string {
	lines := make([]string, len(clauses))
	for i, clause := range clauses {
		lines[i] = clause.Phonemes
	}

	if !opts.KeepLanguageFlags {
		for i := range lines {
			lines[i] = StripLanguageFlags(lines[i])
		}
	}

	wordSeparator := opts.WordSeparator
	if wordSeparator == "" {
		wordSeparator = defaultWordSeparator
	}

	if wordSeparator != defaultWordSeparator {
		for i := range lines {
			lines[i] = strings.Join(strings.Fields(lines[i]), wordSeparator)
		}
	}

	// Re-insert clause breakers positionally: the i-th detected breaker is
	// appended to the i-th clause. When the engine's clause splits diverge
	// from the breaker scan, excess breakers or clauses are left unmatched.
	for i := range lines {
		if i >= len(missingBreakers) {
			break
		}

		lines[i] += opts.PunctuationSeparator + string(missingBreakers[i])
	}

	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}

	phonemes := strings.Join(trimmed, wordSeparator)

	if opts.NoStress {
		phonemes = StripStress(phonemes)
	}

	if opts.PhonemeSeparator != 0 {
		phonemes = CollapseSeparators(phonemes, opts.PhonemeSeparator)
	}

	return strings.TrimSpace(phonemes)
}

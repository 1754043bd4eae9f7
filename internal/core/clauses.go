package core

// Engine mode flags. These values are a wire-level contract with
// libespeak-ng and must not change.
const (
	// AudioOutputSynchronous selects synchronous, blocking synthesis.
	AudioOutputSynchronous = 0x02

	// PhonemesIPA requests IPA symbols from the phoneme mode flags.
	PhonemesIPA = 0x02

	// CharsAuto lets the engine detect the input text encoding.
	CharsAuto = 0

	// FlagSSML enables SSML markup in synthesis input.
	FlagSSML = 0x10

	// FlagPhonemes routes phoneme trace output through the installed sink.
	FlagPhonemes = 0x100

	// StatusOK is the engine's success status (EE_OK).
	StatusOK = 0
)

// PhonemeMode builds the engine's phoneme mode flags. The engine packs the
// requested separator character's code point into the high bits of the IPA
// request flag: IPA_FLAG | (separator << 8). A zero separator requests no
// separator.
func PhonemeMode(separator rune) int {
	mode := PhonemesIPA
	if separator != 0 {
		mode |= int(separator) << 8
	}

	return mode
}

// SynthMode builds the synthesis mode flags for trace-only synthesis.
func SynthMode(ssml bool) int {
	mode := CharsAuto | FlagPhonemes
	if ssml {
		mode |= FlagSSML
	}

	return mode
}

// Clause terminator bit layout, as returned by the engine's extended
// text-to-phonemes call. The low bits carry a pause length; the masked
// subfields carry intonation and clause type.
const (
	IntonationFullStop    = 0x00000000
	IntonationComma       = 0x00001000
	IntonationQuestion    = 0x00002000
	IntonationExclamation = 0x00003000
	IntonationNone        = 0x00004000

	ClauseTypeNone     = 0x00000000
	ClauseTypeEOF      = 0x00010000
	ClauseTypeClause   = 0x00040000
	ClauseTypeSentence = 0x00080000

	// PunctuationMask isolates the punctuation-class bits of a terminator
	// code from sentence/paragraph-level bits above them.
	PunctuationMask = 0x000FFFFF
)

// Composed terminator codes for the punctuation classes the engine reports.
const (
	ClauseNone        = 0 | IntonationNone | ClauseTypeNone
	ClauseParagraph   = 70 | IntonationFullStop | ClauseTypeSentence
	ClauseEOF         = 40 | IntonationFullStop | ClauseTypeSentence | ClauseTypeEOF
	ClausePeriod      = 40 | IntonationFullStop | ClauseTypeSentence
	ClauseComma       = 20 | IntonationComma | ClauseTypeClause
	ClauseQuestion    = 40 | IntonationQuestion | ClauseTypeSentence
	ClauseExclamation = 45 | IntonationExclamation | ClauseTypeSentence
	ClauseColon       = 30 | IntonationFullStop | ClauseTypeClause
	ClauseSemicolon   = 30 | IntonationComma | ClauseTypeClause
)

// TerminatorKind classifies a clause terminator code.
type TerminatorKind int

// Terminator kinds, derived from the masked punctuation class of an engine
// terminator code.
const (
	TerminatorNone TerminatorKind = iota
	TerminatorComma
	TerminatorPeriod
	TerminatorQuestion
	TerminatorExclamation
	TerminatorColon
	TerminatorSemicolon
	TerminatorEndOfInput
)

// ClauseResult is one clause of engine output: its phoneme text and the
// classified terminator that ended it.
type ClauseResult struct {
	Phonemes   string
	Terminator TerminatorKind
}

// KindOfTerminator maps a raw terminator code to its kind by masking off the
// sentence-level bits and comparing the punctuation class.
func KindOfTerminator(terminator int) TerminatorKind {
	switch terminator & PunctuationMask {
	case ClauseEOF & PunctuationMask:
		return TerminatorEndOfInput
	case ClausePeriod:
		return TerminatorPeriod
	case ClauseComma:
		return TerminatorComma
	case ClauseQuestion:
		return TerminatorQuestion
	case ClauseExclamation:
		return TerminatorExclamation
	case ClauseColon:
		return TerminatorColon
	case ClauseSemicolon:
		return TerminatorSemicolon
	default:
		return TerminatorNone
	}
}

// EndsSentence reports whether a terminator code carries the sentence bit,
// which decides between a sentence-level and a word-level separator
// downstream.
func EndsSentence(terminator int) bool {
	return terminator&ClauseTypeSentence == ClauseTypeSentence
}

// Package phonemeids assigns stable integer identifiers to phonemes, for
// feeding phonemized text into models that consume token ids.
//
// Identifiers are assigned deterministically: reserved symbols (pad,
// beginning/end of sentence, blank, stress marks) claim the lowest ids in a
// fixed order, and every phoneme collected from the input afterwards is
// assigned in sorted order. Vocabularies round-trip through a plain
// "ID PHONEME" text format.
package phonemeids

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Stress marks pulled out as standalone phonemes when requested.
var stressMarks = []string{"ˈ", "ˌ"}

// simplePunctuation maps all clause punctuation onto "," and ".".
var simplePunctuation = map[string]string{
	";": ",",
	":": ",",
	"?": ".",
	"!": ".",
}

// Static errors.
var (
	// ErrUnknownPhoneme indicates a phoneme with no assigned id.
	ErrUnknownPhoneme = errors.New("phoneme has no assigned id")
	// ErrReservedNotAssigned indicates a reserved symbol was requested in
	// options but never added to the vocabulary.
	ErrReservedNotAssigned = errors.New("reserved symbol has no assigned id")
)

// Options configures vocabulary construction and id rendering.
type Options struct {
	// PhonemeSeparator splits words into phonemes. Empty splits into
	// individual runes.
	PhonemeSeparator string

	// WordSeparator splits lines into words. Defaults to a single space.
	WordSeparator string

	// IDSeparator joins the ids of one word. Defaults to a single space.
	IDSeparator string

	// Pad, BOS and EOS name optional reserved symbols: padding (id 0 when
	// set), beginning of sentence, end of sentence.
	Pad string
	BOS string
	EOS string

	// AddBlank treats the word separator itself as a phoneme and renders
	// word boundaries as its id.
	AddBlank bool

	// SeparateStress pulls primary/secondary stress marks out as separate
	// phonemes instead of leaving them attached.
	SeparateStress bool

	// SimplePunctuation maps all punctuation phonemes onto "," and ".".
	SimplePunctuation bool
}

func (o Options) wordSeparator() string {
	if o.WordSeparator == "" {
		return " "
	}

	return o.WordSeparator
}

func (o Options) idSeparator() string {
	if o.IDSeparator == "" {
		return " "
	}

	return o.IDSeparator
}

// Vocabulary maps phonemes to integer ids.
type Vocabulary struct {
	ids     map[string]int
	pending map[string]struct{}
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		ids:     make(map[string]int),
		pending: make(map[string]struct{}),
	}
}

// Load reads "ID PHONEME" lines. Blank lines, comment lines starting with
// "#", and lines without a space are skipped.
func (v *Vocabulary) Load(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, " ") {
			continue
		}

		parts := strings.SplitN(line, " ", 2)

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("failed to parse phoneme id from %q: %w", line, err)
		}

		v.ids[parts[1]] = id
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("failed to read phoneme file: %w", err)
	}

	return nil
}

// Write renders the vocabulary as "ID PHONEME" lines ordered by id.
func (v *Vocabulary) Write(writer io.Writer) error {
	type entry struct {
		phoneme string
		id      int
	}

	entries := make([]entry, 0, len(v.ids))
	for phoneme, id := range v.ids {
		entries = append(entries, entry{phoneme: phoneme, id: id})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	for _, e := range entries {
		_, err := fmt.Fprintf(writer, "%d %s\n", e.id, e.phoneme)
		if err != nil {
			return fmt.Errorf("failed to write phoneme file: %w", err)
		}
	}

	return nil
}

// AddReserved claims ids for the reserved symbols named in opts, in a fixed
// order: pad, bos, eos, blank (word separator), stress marks. Symbols
// already present keep their ids.
func (v *Vocabulary) AddReserved(opts Options) {
	for _, symbol := range []string{opts.Pad, opts.BOS, opts.EOS} {
		if symbol != "" {
			v.add(symbol)
		}
	}

	if opts.AddBlank {
		v.add(opts.wordSeparator())
	}

	if opts.SeparateStress {
		for _, stress := range stressMarks {
			v.add(stress)
		}
	}

	if opts.SimplePunctuation {
		v.pending[","] = struct{}{}
		v.pending["."] = struct{}{}
	}
}

// Collect records every phoneme of line for later assignment.
func (v *Vocabulary) Collect(line string, opts Options) {
	for _, word := range splitWords(line, opts) {
		for _, phoneme := range word {
			if opts.SeparateStress {
				phoneme = trimLeadingStress(phoneme)
			}

			if phoneme == "" {
				continue
			}

			if opts.SimplePunctuation {
				phoneme = simplify(phoneme)
			}

			v.pending[phoneme] = struct{}{}
		}
	}
}

// AssignPending assigns ids to every collected phoneme, in sorted order.
func (v *Vocabulary) AssignPending() {
	phonemes := make([]string, 0, len(v.pending))
	for phoneme := range v.pending {
		phonemes = append(phonemes, phoneme)
	}

	sort.Strings(phonemes)

	for _, phoneme := range phonemes {
		v.add(phoneme)
	}

	v.pending = make(map[string]struct{})
}

// LineIDs renders one phonemized line as an id string, honoring bos/eos,
// blank rendering and stress separation.
func (v *Vocabulary) LineIDs(line string, opts Options) (string, error) {
	var wordIDs [][]int

	if opts.BOS != "" {
		bosID, ok := v.ids[opts.BOS]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrReservedNotAssigned, opts.BOS)
		}

		wordIDs = append(wordIDs, []int{bosID})
	}

	for _, word := range splitWords(line, opts) {
		ids, err := v.wordIDs(word, opts)
		if err != nil {
			return "", err
		}

		if len(ids) > 0 {
			wordIDs = append(wordIDs, ids)
		}
	}

	if opts.EOS != "" {
		eosID, ok := v.ids[opts.EOS]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrReservedNotAssigned, opts.EOS)
		}

		wordIDs = append(wordIDs, []int{eosID})
	}

	separator := opts.wordSeparator()
	if opts.AddBlank {
		blankID, ok := v.ids[separator]
		if !ok {
			return "", fmt.Errorf("%w: blank %q", ErrReservedNotAssigned, separator)
		}

		separator = fmt.Sprintf(" %d ", blankID)
	}

	rendered := make([]string, len(wordIDs))
	for i, ids := range wordIDs {
		parts := make([]string, len(ids))
		for j, id := range ids {
			parts[j] = strconv.Itoa(id)
		}

		rendered[i] = strings.Join(parts, opts.idSeparator())
	}

	return strings.Join(rendered, separator), nil
}

func (v *Vocabulary) wordIDs(word []string, opts Options) ([]int, error) {
	var ids []int

	for _, phoneme := range word {
		if opts.SeparateStress {
			for phoneme != "" && hasLeadingStress(phoneme) {
				stress := firstRune(phoneme)

				stressID, ok := v.ids[stress]
				if !ok {
					return nil, fmt.Errorf("%w: %q", ErrUnknownPhoneme, stress)
				}

				ids = append(ids, stressID)
				phoneme = phoneme[len(stress):]
			}
		}

		if phoneme == "" {
			continue
		}

		if opts.SimplePunctuation {
			phoneme = simplify(phoneme)
		}

		id, ok := v.ids[phoneme]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPhoneme, phoneme)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func (v *Vocabulary) add(phoneme string) {
	if _, ok := v.ids[phoneme]; !ok {
		v.ids[phoneme] = len(v.ids)
	}
}

// splitWords splits a phonemized line into words, and each word into
// phonemes: on the phoneme separator when one is configured, otherwise into
// individual runes.
func splitWords(line string, opts Options) [][]string {
	rawWords := strings.Split(line, opts.wordSeparator())
	words := make([][]string, 0, len(rawWords))

	for _, word := range rawWords {
		if opts.PhonemeSeparator != "" {
			words = append(words, strings.Split(word, opts.PhonemeSeparator))

			continue
		}

		runes := []rune(word)
		phonemes := make([]string, len(runes))

		for i, r := range runes {
			phonemes[i] = string(r)
		}

		words = append(words, phonemes)
	}

	return words
}

func simplify(phoneme string) string {
	if mapped, ok := simplePunctuation[phoneme]; ok {
		return mapped
	}

	return phoneme
}

func hasLeadingStress(phoneme string) bool {
	for _, stress := range stressMarks {
		if strings.HasPrefix(phoneme, stress) {
			return true
		}
	}

	return false
}

func trimLeadingStress(phoneme string) string {
	for hasLeadingStress(phoneme) {
		phoneme = phoneme[len(firstRune(phoneme)):]
	}

	return phoneme
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}

	return ""
}

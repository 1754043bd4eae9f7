// Command phoneme-ids converts phonemized text from standard input into
// integer id strings, building or reusing a phoneme vocabulary.
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/book-expert/phonemizer-service/internal/phonemeids"
)

// Flag descriptions.
const (
	flagReadDesc              = "Read an existing ID PHONEME map file instead of building one"
	flagWriteDesc             = "Write the resulting ID PHONEME map to this file"
	flagPadDesc               = "Phoneme for padding (id 0 when set)"
	flagBOSDesc               = "Phoneme placed at the beginning of every sentence"
	flagEOSDesc               = "Phoneme placed at the end of every sentence"
	flagBlankDesc             = "Treat the word separator as a phoneme and render word boundaries as its id"
	flagSeparateStressDesc    = "Pull stress marks out as separate phonemes"
	flagSimplePunctuationDesc = "Map all punctuation phonemes onto , and ."
	flagPhonemeSeparatorDesc  = "Separator between phonemes of a word (empty splits into characters)"
	flagWordSeparatorDesc     = "Separator between words of a line"
	flagIDSeparatorDesc       = "Separator between ids in the output"
	flagCSVDesc               = "Treat input as CSV; convert the last column and append the result"
	flagCSVDelimiterDesc      = "Field delimiter for CSV input"
)

// Flag names.
const (
	flagRead              = "read"
	flagWrite             = "write"
	flagPad               = "pad"
	flagBOS               = "bos"
	flagEOS               = "eos"
	flagBlank             = "blank"
	flagSeparateStress    = "separate-stress"
	flagSimplePunctuation = "simple-punctuation"
	flagPhonemeSeparator  = "phoneme-separator"
	flagWordSeparator     = "word-separator"
	flagIDSeparator       = "id-separator"
	flagCSV               = "csv"
	flagCSVDelimiter      = "csv-delimiter"
)

var errEmptyDelimiter = errors.New("csv delimiter cannot be empty")

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	read              string
	write             string
	pad               string
	bos               string
	eos               string
	phonemeSeparator  string
	wordSeparator     string
	idSeparator       string
	csvDelimiter      string
	blank             bool
	separateStress    bool
	simplePunctuation bool
	csv               bool
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run() error {
	flags := parseFlags()
	opts := phonemeids.Options{
		PhonemeSeparator:  flags.phonemeSeparator,
		WordSeparator:     flags.wordSeparator,
		IDSeparator:       flags.idSeparator,
		Pad:               flags.pad,
		BOS:               flags.bos,
		EOS:               flags.eos,
		AddBlank:          flags.blank,
		SeparateStress:    flags.separateStress,
		SimplePunctuation: flags.simplePunctuation,
	}

	lines, rows, err := readInput(flags, os.Stdin)
	if err != nil {
		return err
	}

	vocabulary, err := buildVocabulary(flags, opts, lines)
	if err != nil {
		return err
	}

	if flags.write != "" {
		err = writeVocabulary(vocabulary, flags.write)
		if err != nil {
			return err
		}
	}

	if flags.csv {
		return writeCSV(vocabulary, opts, flags, rows, os.Stdout)
	}

	return writeLines(vocabulary, opts, lines, os.Stdout)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags
	flag.StringVar(&flags.read, flagRead, "", flagReadDesc)
	flag.StringVar(&flags.write, flagWrite, "", flagWriteDesc)
	flag.StringVar(&flags.pad, flagPad, "_", flagPadDesc)
	flag.StringVar(&flags.bos, flagBOS, "", flagBOSDesc)
	flag.StringVar(&flags.eos, flagEOS, "", flagEOSDesc)
	flag.BoolVar(&flags.blank, flagBlank, false, flagBlankDesc)
	flag.BoolVar(&flags.separateStress, flagSeparateStress, false, flagSeparateStressDesc)
	flag.BoolVar(&flags.simplePunctuation, flagSimplePunctuation, false, flagSimplePunctuationDesc)
	flag.StringVar(&flags.phonemeSeparator, flagPhonemeSeparator, "", flagPhonemeSeparatorDesc)
	flag.StringVar(&flags.wordSeparator, flagWordSeparator, "", flagWordSeparatorDesc)
	flag.StringVar(&flags.idSeparator, flagIDSeparator, "", flagIDSeparatorDesc)
	flag.BoolVar(&flags.csv, flagCSV, false, flagCSVDesc)
	flag.StringVar(&flags.csvDelimiter, flagCSVDelimiter, "|", flagCSVDelimiterDesc)
	flag.Parse()

	return flags
}

// readInput buffers the whole input up front: id assignment needs every
// phoneme before the first line can be rendered. In CSV mode the phoneme
// line is the last column of each row.
func readInput(flags appFlags, input io.Reader) ([]string, [][]string, error) {
	if flags.csv {
		if flags.csvDelimiter == "" {
			return nil, nil, errEmptyDelimiter
		}

		reader := csv.NewReader(input)
		reader.Comma = []rune(flags.csvDelimiter)[0]
		reader.FieldsPerRecord = -1

		rows, err := reader.ReadAll()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv input: %w", err)
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if len(row) > 0 {
				lines = append(lines, row[len(row)-1])
			}
		}

		return lines, rows, nil
	}

	var lines []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}

	err := scanner.Err()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}

	return lines, nil, nil
}

// buildVocabulary loads an existing map when one is given, and otherwise
// builds a fresh one from the buffered input.
func buildVocabulary(
	flags appFlags,
	opts phonemeids.Options,
	lines []string,
) (*phonemeids.Vocabulary, error) {
	vocabulary := phonemeids.NewVocabulary()

	if flags.read != "" {
		file, err := os.Open(flags.read)
		if err != nil {
			return nil, fmt.Errorf("failed to open phoneme map %s: %w", flags.read, err)
		}

		loadErr := vocabulary.Load(file)
		closeErr := file.Close()

		if loadErr != nil {
			return nil, fmt.Errorf("failed to load phoneme map %s: %w", flags.read, loadErr)
		}

		if closeErr != nil {
			return nil, fmt.Errorf("failed to close phoneme map %s: %w", flags.read, closeErr)
		}

		return vocabulary, nil
	}

	vocabulary.AddReserved(opts)

	for _, line := range lines {
		vocabulary.Collect(line, opts)
	}

	vocabulary.AssignPending()

	return vocabulary, nil
}

func writeVocabulary(vocabulary *phonemeids.Vocabulary, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create phoneme map %s: %w", path, err)
	}

	writeErr := vocabulary.Write(file)
	closeErr := file.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to write phoneme map %s: %w", path, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close phoneme map %s: %w", path, closeErr)
	}

	return nil
}

func writeLines(
	vocabulary *phonemeids.Vocabulary,
	opts phonemeids.Options,
	lines []string,
	output io.Writer,
) error {
	writer := bufio.NewWriter(output)

	for _, line := range lines {
		ids, err := vocabulary.LineIDs(line, opts)
		if err != nil {
			return fmt.Errorf("failed to convert line to ids: %w", err)
		}

		fmt.Fprintln(writer, ids)
	}

	err := writer.Flush()
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func writeCSV(
	vocabulary *phonemeids.Vocabulary,
	opts phonemeids.Options,
	flags appFlags,
	rows [][]string,
	output io.Writer,
) error {
	writer := csv.NewWriter(output)
	writer.Comma = []rune(flags.csvDelimiter)[0]

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}

		ids, err := vocabulary.LineIDs(row[len(row)-1], opts)
		if err != nil {
			return fmt.Errorf("failed to convert row to ids: %w", err)
		}

		writeErr := writer.Write(append(row, ids))
		if writeErr != nil {
			return fmt.Errorf("failed to write csv row: %w", writeErr)
		}
	}

	writer.Flush()

	err := writer.Error()
	if err != nil {
		return fmt.Errorf("failed to flush csv output: %w", err)
	}

	return nil
}

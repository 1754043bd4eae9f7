// Command espeak-phonemizer converts text from standard input into IPA
// phoneme strings, one line of phonemes per line of input.
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
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/phonemizer-service/internal/core"
	"github.com/book-expert/phonemizer-service/internal/espeak"
	"github.com/book-expert/phonemizer-service/internal/phonemizer"
)

const version = "1.0.0"

// Flag descriptions.
const (
	flagVoiceDesc             = "Voice to use for phonemization (e.g. en-us)"
	flagPhonemeSeparatorDesc  = "Single character inserted between phonemes"
	flagWordSeparatorDesc     = "String inserted between words"
	flagKeepPunctuationDesc   = "Re-append clause-breaking punctuation from the input"
	flagKeepLanguageFlagsDesc = "Keep parenthesized language-switch flags such as (en)"
	flagNoStressDesc          = "Remove primary and secondary stress marks"
	flagCSVDesc               = "Treat input as CSV; phonemize the last column and append the result"
	flagCSVDelimiterDesc      = "Field delimiter for CSV input"
	flagPrintInputDesc        = "Print the input line before its phonemes"
	flagOutputSeparatorDesc   = "Separator between input line and phonemes with -print-input"
	flagDirectDesc            = "Use the direct clause-walk strategy instead of trace capture"
	flagDataPathDesc          = "Path to the espeak-ng-data directory"
	flagVersionDesc           = "Print version and exit"
)

// Flag names.
const (
	flagVoice             = "voice"
	flagPhonemeSeparator  = "phoneme-separator"
	flagWordSeparator     = "word-separator"
	flagKeepPunctuation   = "keep-punctuation"
	flagKeepLanguageFlags = "keep-language-flags"
	flagNoStress          = "no-stress"
	flagCSV               = "csv"
	flagCSVDelimiter      = "csv-delimiter"
	flagPrintInput        = "print-input"
	flagOutputSeparator   = "output-separator"
	flagDirect            = "direct"
	flagDataPath          = "data-path"
	flagVersion           = "version"
)

const logFileName = "espeak-phonemizer.log"

var (
	errVoiceRequired      = errors.New("-voice is required")
	errSeparatorNotSingle = errors.New("separator must be a single character")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	voice             string
	phonemeSeparator  string
	wordSeparator     string
	csvDelimiter      string
	outputSeparator   string
	dataPath          string
	keepPunctuation   bool
	keepLanguageFlags bool
	noStress          bool
	csv               bool
	printInput        bool
	direct            bool
	version           bool
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

	if flags.version {
		fmt.Println(version)

		return nil
	}

	if flags.voice == "" {
		flag.Usage()

		return errVoiceRequired
	}

	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	appLogger, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		closeErr := appLogger.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	strategy := phonemizer.CapturedStream
	if flags.direct {
		strategy = phonemizer.DirectCall
	}

	engine := espeak.New(flags.dataPath)

	session, err := phonemizer.NewSession(engine, flags.voice, strategy, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create phonemizer session: %w", err)
	}

	if flags.csv {
		return processCSV(session, opts, flags, os.Stdin, os.Stdout)
	}

	return processLines(session, opts, flags, os.Stdin, os.Stdout)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.phonemeSeparator, flagPhonemeSeparator, "", flagPhonemeSeparatorDesc)
	flag.StringVar(&flags.wordSeparator, flagWordSeparator, "", flagWordSeparatorDesc)
	flag.BoolVar(&flags.keepPunctuation, flagKeepPunctuation, false, flagKeepPunctuationDesc)
	flag.BoolVar(&flags.keepLanguageFlags, flagKeepLanguageFlags, false, flagKeepLanguageFlagsDesc)
	flag.BoolVar(&flags.noStress, flagNoStress, false, flagNoStressDesc)
	flag.BoolVar(&flags.csv, flagCSV, false, flagCSVDesc)
	flag.StringVar(&flags.csvDelimiter, flagCSVDelimiter, "|", flagCSVDelimiterDesc)
	flag.BoolVar(&flags.printInput, flagPrintInput, false, flagPrintInputDesc)
	flag.StringVar(&flags.outputSeparator, flagOutputSeparator, " ", flagOutputSeparatorDesc)
	flag.BoolVar(&flags.direct, flagDirect, false, flagDirectDesc)
	flag.StringVar(&flags.dataPath, flagDataPath, "", flagDataPathDesc)
	flag.BoolVar(&flags.version, flagVersion, false, flagVersionDesc)
	flag.Parse()

	return flags
}

// buildOptions maps flag values onto phonemize options. The punctuation
// separator follows the phoneme separator.
func buildOptions(flags appFlags) (core.PhonemeOptions, error) {
	var opts core.PhonemeOptions

	if flags.phonemeSeparator != "" {
		separator, err := singleRune(flags.phonemeSeparator, flagPhonemeSeparator)
		if err != nil {
			return opts, err
		}

		opts.PhonemeSeparator = separator
		opts.PunctuationSeparator = flags.phonemeSeparator
	}

	opts.WordSeparator = flags.wordSeparator
	opts.KeepClauseBreakers = flags.keepPunctuation
	opts.KeepLanguageFlags = flags.keepLanguageFlags
	opts.NoStress = flags.noStress

	return opts, nil
}

// processLines phonemizes each non-empty line of input, writing one line of
// phonemes per input line.
func processLines(
	session core.Phonemizer,
	opts core.PhonemeOptions,
	flags appFlags,
	input io.Reader,
	output io.Writer,
) error {
	scanner := bufio.NewScanner(input)
	writer := bufio.NewWriter(output)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		phonemes, err := session.Phonemize(line, opts)
		if err != nil {
			return fmt.Errorf("failed to phonemize line: %w", err)
		}

		if flags.printInput {
			fmt.Fprintf(writer, "%s%s%s\n", line, flags.outputSeparator, phonemes)
		} else {
			fmt.Fprintln(writer, phonemes)
		}

		// Flush per line so the command composes with pipes.
		err = writer.Flush()
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return nil
}

// processCSV phonemizes the last column of each CSV row and appends the
// phonemes as a new final column.
func processCSV(
	session core.Phonemizer,
	opts core.PhonemeOptions,
	flags appFlags,
	input io.Reader,
	output io.Writer,
) error {
	delimiter, err := singleRune(flags.csvDelimiter, flagCSVDelimiter)
	if err != nil {
		return err
	}

	reader := csv.NewReader(input)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	writer := csv.NewWriter(output)
	writer.Comma = delimiter

	for {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return fmt.Errorf("failed to read csv row: %w", readErr)
		}

		if len(row) == 0 {
			continue
		}

		phonemes, phonemizeErr := session.Phonemize(row[len(row)-1], opts)
		if phonemizeErr != nil {
			return fmt.Errorf("failed to phonemize csv row: %w", phonemizeErr)
		}

		writeErr := writer.Write(append(row, phonemes))
		if writeErr != nil {
			return fmt.Errorf("failed to write csv row: %w", writeErr)
		}

		writer.Flush()
	}

	writer.Flush()

	err = writer.Error()
	if err != nil {
		return fmt.Errorf("failed to flush csv output: %w", err)
	}

	return nil
}

func singleRune(value, name string) (rune, error) {
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("%w: -%s got %q", errSeparatorNotSingle, name, value)
	}

	char, _ := utf8.DecodeRuneInString(value)

	return char, nil
}

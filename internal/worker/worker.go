// Package worker provides a NATS worker that processes phonemize jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/phonemizer-service/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 30 * time.Second

// Uploaded phoneme objects are plain UTF-8 text.
const phonemesKeySuffix = ".txt"

var (
	// ErrTextKeyEmpty indicates the request named no text object.
	ErrTextKeyEmpty = errors.New("text key cannot be empty")
	// ErrSeparatorNotSingle indicates a multi-character phoneme separator.
	ErrSeparatorNotSingle = errors.New("phoneme separator must be a single character")
)

// Stores groups the object store buckets a worker reads from and writes to.
type Stores struct {
	// Text holds the source text objects named by incoming requests.
	Text core.ObjectStore
	// Phonemes receives the generated phoneme strings.
	Phonemes core.ObjectStore
}

// NatsWorker listens for phonemize jobs on a NATS subject and processes
// them. It owns the process's single phonemizer session, so jobs are handled
// one at a time.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	replySubject   string
	stores         Stores
	phonemizer     core.Phonemizer
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. Replies go to the
// request's reply inbox when one is set, and to replySubject otherwise.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	replySubject string,
	stores Stores,
	phonemizer core.Phonemizer,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		replySubject:   replySubject,
		stores:         stores,
		phonemizer:     phonemizer,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	phonemesKey, processErr := w.processPhonemizeJob(ctx, event)
	if processErr != nil {
		w.log.Error(
			"Failed to process phonemize job for workflow %s: %v",
			event.Header.WorkflowID,
			processErr,
		)

		return
	}

	replyEvent := &core.PhonemesGeneratedEvent{
		Header:      event.Header,
		PhonemesKey: phonemesKey,
		PageNumber:  event.PageNumber,
		TotalPages:  event.TotalPages,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error(
			"Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID,
			err,
		)
	}
}

// processPhonemizeJob downloads the source text, phonemizes it, and uploads
// the resulting phoneme string under a fresh key.
func (w *NatsWorker) processPhonemizeJob(
	ctx context.Context,
	event *core.PhonemizeRequestedEvent,
) (string, error) {
	textData, err := w.stores.Text.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf(
			"failed to download text data for key '%s': %w",
			event.TextKey,
			err,
		)
	}

	opts, err := optionsFromEvent(event)
	if err != nil {
		return "", err
	}

	phonemes, err := w.phonemizer.Phonemize(string(textData), opts)
	if err != nil {
		return "", fmt.Errorf("failed to phonemize text: %w", err)
	}

	phonemesKey := uuid.NewString() + phonemesKeySuffix

	err = w.stores.Phonemes.Upload(ctx, phonemesKey, []byte(phonemes))
	if err != nil {
		return "", fmt.Errorf(
			"failed to upload phoneme data for key '%s': %w",
			phonemesKey,
			err,
		)
	}

	return phonemesKey, nil
}

// publishReplyEvent marshals the PhonemesGeneratedEvent and delivers it to
// the request's reply inbox, falling back to the configured reply subject for
// fire-and-forget requests.
func (w *NatsWorker) publishReplyEvent(
	msg *nats.Msg,
	replyEvent *core.PhonemesGeneratedEvent,
) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	if msg.Reply != "" {
		err = msg.Respond(replyData)
	} else {
		err = w.natsConnection.Publish(w.replySubject, replyData)
	}

	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*core.PhonemizeRequestedEvent, error) {
	var event core.PhonemizeRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.TextKey == "" {
		return nil, ErrTextKeyEmpty
	}

	return &event, nil
}

// optionsFromEvent maps the request payload onto phonemize options. The
// punctuation separator follows the phoneme separator, matching the
// command-line behavior.
func optionsFromEvent(event *core.PhonemizeRequestedEvent) (core.PhonemeOptions, error) {
	var opts core.PhonemeOptions

	if event.PhonemeSeparator != "" {
		if utf8.RuneCountInString(event.PhonemeSeparator) != 1 {
			return opts, fmt.Errorf(
				"%w: got %q",
				ErrSeparatorNotSingle,
				event.PhonemeSeparator,
			)
		}

		separator, _ := utf8.DecodeRuneInString(event.PhonemeSeparator)
		opts.PhonemeSeparator = separator
		opts.PunctuationSeparator = event.PhonemeSeparator
	}

	opts.Voice = event.Voice
	opts.WordSeparator = event.WordSeparator
	opts.KeepClauseBreakers = event.KeepClauseBreakers
	opts.KeepLanguageFlags = event.KeepLanguageFlags
	opts.NoStress = event.NoStress

	return opts, nil
}

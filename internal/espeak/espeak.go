// Package espeak provides cgo bindings to libespeak-ng, implementing the
// core.PhonemeEngine contract.
//
// The engine is process-global native state: exactly one Engine should exist
// per process, and its methods must not be called concurrently.
package espeak

/*
#cgo pkg-config: espeak-ng
#cgo CFLAGS: -D_GNU_SOURCE
#cgo LDFLAGS: -ldl

#include <stdio.h>
#include <stdlib.h>
#include <dlfcn.h>
#include <espeak-ng/speak_lib.h>

// Patched entry point carried by the bundled espeak-ng build. Declared here
// so the package also links against forks whose headers predate it.
const char *espeak_TextToPhonemesWithTerminator(
	const void **textptr, int textmode, int phonememode, int *terminator);

static int phonemizer_has_terminator_symbol(void) {
	return dlsym(RTLD_DEFAULT, "espeak_TextToPhonemesWithTerminator") != NULL;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/book-expert/phonemizer-service/internal/core"
)

// Static errors.
var (
	// ErrInitializeFailed indicates libespeak-ng could not be initialized.
	ErrInitializeFailed = errors.New("failed to initialize libespeak-ng")
	// ErrMissingCapability indicates a required native entry point is
	// absent from the loaded library.
	ErrMissingCapability = errors.New(
		"libespeak-ng is missing espeak_TextToPhonemesWithTerminator",
	)
	// ErrVoiceRejected indicates the engine refused a voice change.
	ErrVoiceRejected = errors.New("voice change rejected by engine")
	// ErrTraceSinkOpen indicates the in-memory trace sink could not be
	// allocated.
	ErrTraceSinkOpen = errors.New("failed to open in-memory phoneme trace sink")
	// ErrTraceSinkClosed indicates use of a sink after Close.
	ErrTraceSinkClosed = errors.New("phoneme trace sink is closed")
	// ErrForeignSink indicates a trace sink not created by this engine.
	ErrForeignSink = errors.New("trace sink was not opened by this engine")
	// ErrSynthFailed indicates a synthesis call returned a non-OK status.
	ErrSynthFailed = errors.New("synthesis failed")
)

// Engine binds the process-wide libespeak-ng instance.
type Engine struct {
	dataPath string
}

// New creates an Engine. dataPath points at the espeak-ng-data directory; an
// empty path uses the library's compiled-in default.
func New(dataPath string) *Engine {
	return &Engine{dataPath: dataPath}
}

// Initialize loads the engine in synchronous output mode and returns its
// sample rate. The patched terminator capability is verified here rather
// than deferred to first use.
func (e *Engine) Initialize() (int, error) {
	if C.phonemizer_has_terminator_symbol() == 0 {
		return 0, ErrMissingCapability
	}

	var cDataPath *C.char
	if e.dataPath != "" {
		cDataPath = C.CString(e.dataPath)
		defer C.free(unsafe.Pointer(cDataPath))
	}

	sampleRate := int(C.espeak_Initialize(
		C.AUDIO_OUTPUT_SYNCHRONOUS,
		0, // buflength, unused in synchronous mode
		cDataPath,
		0, // options
	))

	if sampleRate <= 0 {
		return sampleRate, ErrInitializeFailed
	}

	return sampleRate, nil
}

// SetVoiceByName selects a voice by its language/locale name.
func (e *Engine) SetVoiceByName(name string) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	status := int(C.espeak_SetVoiceByName(cName))
	if status != core.StatusOK {
		return fmt.Errorf("%w: name %q, status %d", ErrVoiceRejected, name, status)
	}

	return nil
}

// SetVoiceByFile selects a voice from a model file path.
func (e *Engine) SetVoiceByFile(path string) error {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	status := int(C.espeak_SetVoiceByFile(cPath))
	if status != core.StatusOK {
		return fmt.Errorf("%w: file %q, status %d", ErrVoiceRejected, path, status)
	}

	return nil
}

// Clauses prepares a clause-by-clause walk over text. The engine advances
// the cursor internally on each Next call. The iterator holds a native copy
// of text until it is closed or driven to exhaustion.
func (e *Engine) Clauses(text string, textMode, phonemeMode int) core.ClauseIterator {
	data := unsafe.Pointer(C.CString(text))

	return &clauseIterator{
		textData:    data,
		cursor:      data,
		textMode:    C.int(textMode),
		phonemeMode: C.int(phonemeMode),
	}
}

type clauseIterator struct {
	// textData is the original allocation; cursor is advanced by the
	// engine and becomes nil at exhaustion.
	textData    unsafe.Pointer
	cursor      unsafe.Pointer
	textMode    C.int
	phonemeMode C.int
}

func (it *clauseIterator) Next() (string, int, bool) {
	if it.cursor == nil {
		it.release()

		return "", 0, false
	}

	var terminator C.int

	clause := C.espeak_TextToPhonemesWithTerminator(
		(*unsafe.Pointer)(unsafe.Pointer(&it.cursor)),
		it.textMode,
		it.phonemeMode,
		&terminator,
	)

	if clause == nil {
		it.cursor = nil
		it.release()

		return "", 0, false
	}

	// The returned clause points into the engine's internal buffer and is
	// only valid until the next call.
	return C.GoString(clause), int(terminator), true
}

// Close releases the iterator's native text buffer. Safe to call at any
// point, including after exhaustion.
func (it *clauseIterator) Close() error {
	it.cursor = nil
	it.release()

	return nil
}

func (it *clauseIterator) release() {
	if it.textData != nil {
		C.free(it.textData)
		it.textData = nil
	}
}

// memSink is a libc open_memstream capture sink. The backing pointers live
// in C memory so the stream may retain them between calls.
type memSink struct {
	file   *C.FILE
	buffer **C.char
	size   *C.size_t
	closed bool
}

// OpenTraceSink allocates a growable in-memory stream for phoneme trace
// output.
func (e *Engine) OpenTraceSink() (core.TraceSink, error) {
	buffer := (**C.char)(C.calloc(1, C.size_t(unsafe.Sizeof(uintptr(0)))))
	size := (*C.size_t)(C.calloc(1, C.size_t(unsafe.Sizeof(C.size_t(0)))))

	file := C.open_memstream(buffer, size)
	if file == nil {
		C.free(unsafe.Pointer(buffer))
		C.free(unsafe.Pointer(size))

		return nil, ErrTraceSinkOpen
	}

	return &memSink{file: file, buffer: buffer, size: size, closed: false}, nil
}

// Contents flushes the stream and returns everything captured so far.
func (s *memSink) Contents() (string, error) {
	if s.closed {
		return "", ErrTraceSinkClosed
	}

	C.fflush(s.file)

	return C.GoStringN(*s.buffer, C.int(*s.size)), nil
}

// Close releases the stream and its buffer. Safe to call once per sink.
func (s *memSink) Close() error {
	if s.closed {
		return ErrTraceSinkClosed
	}

	s.closed = true

	C.fclose(s.file)
	C.free(unsafe.Pointer(*s.buffer))
	C.free(unsafe.Pointer(s.buffer))
	C.free(unsafe.Pointer(s.size))

	return nil
}

// SetPhonemeTrace installs sink as the destination for subsequent synthesis
// trace output.
func (e *Engine) SetPhonemeTrace(phonemeMode int, sink core.TraceSink) error {
	memStream, ok := sink.(*memSink)
	if !ok {
		return ErrForeignSink
	}

	if memStream.closed {
		return ErrTraceSinkClosed
	}

	C.espeak_SetPhonemeTrace(C.int(phonemeMode), memStream.file)

	return nil
}

// Synthesize runs synchronous synthesis over text. With the phoneme trace
// flag set and synchronous output mode, no audio is produced; the phoneme
// trace is written to the installed sink.
func (e *Engine) Synthesize(text string, synthMode int) error {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))

	status := int(C.espeak_Synth(
		unsafe.Pointer(cText),
		0, // buflength, unused in synchronous mode
		0, // position
		C.POS_CHARACTER,
		0, // end_position
		C.uint(synthMode),
		nil, // unique_identifier
		nil, // user_data
	))

	if status != core.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSynthFailed, status)
	}

	return nil
}

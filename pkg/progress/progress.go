package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/screa/doorman-solver/internal/logger"
)

// ExhaustedMarker replaces the percentage once the search gives up
const ExhaustedMarker = "ERROR"

// Sink receives the progress estimate after every unmatched burst
type Sink interface {
	Report(percent int)
	Exhausted()
}

// WriterSink writes each percentage, or the exhaustion marker, on its own line
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Report(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%d\n", percent)
}

func (s *WriterSink) Exhausted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, ExhaustedMarker)
}

// LogSink reports progress through the logger
type LogSink struct {
	logger *logger.Logger
}

// NewLogSink creates a sink logging to log
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Report(percent int) {
	s.logger.Printf("Loading %d%%", percent)
}

func (s *LogSink) Exhausted() {
	s.logger.Printf("Loading %s: search space exhausted without a match", ExhaustedMarker)
}

type tee []Sink

// Tee fans progress out to every sink in order
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Report(percent int) {
	for _, s := range t {
		s.Report(percent)
	}
}

func (t tee) Exhausted() {
	for _, s := range t {
		s.Exhausted()
	}
}

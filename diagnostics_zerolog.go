// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"os"

	"github.com/rs/zerolog"
)

// ZerologSink is the default DiagnosticSink implementation. It wraps a
// zerolog.Logger and never terminates the process itself — even for
// SeverityFatal records, logging is the sink's whole job; the fatal
// termination path belongs to the allocator façade, so the sink stays
// swappable in tests without killing the test binary.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink returns a ZerologSink writing structured JSON to stderr.
func NewZerologSink() *ZerologSink {
	return &ZerologSink{logger: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

// NewZerologSinkFrom wraps an existing zerolog.Logger, letting callers
// route allocator diagnostics into their own logging pipeline (a console
// writer in development, JSON in production, a test-scoped logger in
// unit tests).
func NewZerologSinkFrom(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

// Log implements DiagnosticSink.
func (s *ZerologSink) Log(rec Record) {
	ev := s.logger.Error()
	if rec.Severity == SeverityFatal {
		ev = s.logger.Error().Bool("fatal", true)
	}
	ev.
		Str("code", rec.Code.String()).
		Str("file", rec.File).
		Int("line", rec.Line).
		Str("function", rec.Function).
		Msg(rec.Message)
}

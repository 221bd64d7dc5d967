// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"fmt"
	"runtime"
	"sync"
)

// Severity classifies a diagnostic Record. Recoverable errors are logged at
// SeverityError; corruption is logged at SeverityFatal immediately before
// the process terminates.
type Severity int

const (
	SeverityError Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "FATAL"
	}
	return "ERROR"
}

// Record is a structured diagnostic emitted by any allocator component.
type Record struct {
	Severity Severity
	Code     ErrorCode
	File     string
	Line     int
	Function string
	Message  string
}

// DiagnosticSink is the pluggable collaborator every component logs
// through. Implementations must be safe for concurrent use.
type DiagnosticSink interface {
	Log(rec Record)
}

// historySize bounds the ring buffer behind Allocator.History.
const historySize = 100

// diagnostics bundles a sink with the bounded record history and the
// per-caller last-error slot.
type diagnostics struct {
	sink DiagnosticSink

	mu      sync.Mutex
	history []Record
	start   int

	last sync.Map // CallerToken -> Record
}

func newDiagnostics(sink DiagnosticSink) *diagnostics {
	if sink == nil {
		sink = NewZerologSink()
	}
	return &diagnostics{
		sink:    sink,
		history: make([]Record, 0, historySize),
	}
}

// CallerToken identifies a logical caller (typically one per goroutine or
// per worker) for the purpose of retrieving its own last diagnostic record.
// Go has no native thread-local storage, so this module asks the caller to
// hold a token rather than emulate goroutine identity.
type CallerToken struct{ id uint64 }

var callerTokenSeq uint64
var callerTokenMu sync.Mutex

// NewCallerToken returns a fresh token. Typically created once per
// goroutine and reused across calls so LastError can find the right slot.
func NewCallerToken() CallerToken {
	callerTokenMu.Lock()
	callerTokenSeq++
	id := callerTokenSeq
	callerTokenMu.Unlock()
	return CallerToken{id: id}
}

func (d *diagnostics) record(tok CallerToken, severity Severity, code ErrorCode, format string, args ...any) Record {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "unknown", 0
	}
	fn := callerFuncName(2)

	rec := Record{
		Severity: severity,
		Code:     code,
		File:     file,
		Line:     line,
		Function: fn,
		Message:  fmt.Sprintf(format, args...),
	}

	d.mu.Lock()
	if len(d.history) < historySize {
		d.history = append(d.history, rec)
	} else {
		d.history[d.start] = rec
		d.start = (d.start + 1) % historySize
	}
	d.mu.Unlock()

	if tok != (CallerToken{}) {
		d.last.Store(tok, rec)
	}

	d.sink.Log(rec)
	return rec
}

// LastError returns the last diagnostic record filed under tok, or the zero
// Record if none has been filed yet.
func (d *diagnostics) LastError(tok CallerToken) Record {
	v, ok := d.last.Load(tok)
	if !ok {
		return Record{}
	}
	return v.(Record)
}

// History returns a snapshot of the most recent diagnostic records across
// all callers, oldest first.
func (d *diagnostics) History() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Record, len(d.history))
	for i := range out {
		out[i] = d.history[(d.start+i)%len(d.history)]
	}
	return out
}

func callerFuncName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

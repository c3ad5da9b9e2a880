// Package log reports the progress of bootstrap subcommands as structured
// events. Subcommands only talk to the Reporter interface; the Logger
// implementation renders events through logrus and the Recorder keeps them in
// memory so tests can assert on what was reported.
package log

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"bootstrap/internal/config"
)

// EventKind identifies a progress event.
type EventKind string

// Progress events emitted by the subcommands.
const (
	EventDownloadStarted  EventKind = "download_started"
	EventDownloadFinished EventKind = "download_finished"
	EventUnzipStarted     EventKind = "unzip_started"
	EventEntryExtracted   EventKind = "entry_extracted"
	EventUnzipFinished    EventKind = "unzip_finished"
	EventGitFixStarted    EventKind = "gitfix_started"
	EventLineSame         EventKind = "line_same"
	EventLineChanged      EventKind = "line_changed"
	EventGitFixFinished   EventKind = "gitfix_finished"
)

var messages = map[EventKind]string{
	EventDownloadStarted:  "downloading",
	EventDownloadFinished: "downloaded",
	EventUnzipStarted:     "extracting",
	EventEntryExtracted:   "extracted entry",
	EventUnzipFinished:    "extracted",
	EventGitFixStarted:    "fixing submodule remotes",
	EventLineSame:         "same line",
	EventLineChanged:      "line changed",
	EventGitFixFinished:   "fixed submodule remotes",
}

// Event is a single progress report. Only the fields relevant to Kind are set.
type Event struct {
	Kind   EventKind
	URL    string
	Path   string
	Target string
	Entry  string
	Line   int
	Before string
	After  string
	Bytes  int64
	Count  int
	DryRun bool
}

// Message returns the human readable text for the event kind.
func (e Event) Message() string {
	if msg, ok := messages[e.Kind]; ok {
		return msg
	}
	return string(e.Kind)
}

// Fields returns the non-empty event attributes as logrus fields.
func (e Event) Fields() logrus.Fields {
	fields := logrus.Fields{"event": string(e.Kind)}
	if e.URL != "" {
		fields["url"] = e.URL
	}
	if e.Path != "" {
		fields["path"] = e.Path
	}
	if e.Target != "" {
		fields["target"] = e.Target
	}
	if e.Entry != "" {
		fields["entry"] = e.Entry
	}
	if e.Line > 0 {
		fields["line"] = e.Line
	}
	switch e.Kind {
	case EventLineSame:
		fields["text"] = e.Before
	case EventLineChanged:
		fields["was"] = e.Before
		fields["is"] = e.After
	case EventDownloadFinished:
		fields["bytes"] = e.Bytes
	case EventUnzipFinished:
		fields["entries"] = e.Count
	case EventGitFixFinished:
		fields["changed"] = e.Count
	}
	if e.DryRun {
		fields["dry_run"] = true
	}
	return fields
}

// detail reports whether the event is only shown in verbose mode.
func (e Event) detail() bool {
	return e.Kind == EventEntryExtracted
}

// Reporter receives progress events from a subcommand.
type Reporter interface {
	Report(Event)
}

// Logger renders events through logrus using the configured format and
// verbosity.
type Logger struct {
	config *config.Config
	log    *logrus.Logger
}

// NewLoggerWithOutput creates a Logger writing to w.
func NewLoggerWithOutput(cfg *config.Config, w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	default:
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	}

	switch {
	case cfg.IsDebug():
		l.SetLevel(logrus.DebugLevel)
	case cfg.ShouldLog():
		l.SetLevel(logrus.InfoLevel)
	default:
		l.SetLevel(logrus.ErrorLevel)
	}

	return &Logger{config: cfg, log: l}
}

// Report writes the event unless the configured verbosity hides it.
func (l *Logger) Report(e Event) {
	if !l.config.ShouldLog() {
		return
	}
	entry := l.log.WithFields(e.Fields())
	if e.detail() && !l.config.IsVerbose() {
		entry.Debug(e.Message())
		return
	}
	entry.Info(e.Message())
}

// Logrus exposes the underlying logger for diagnostics outside the event stream.
func (l *Logger) Logrus() *logrus.Logger {
	return l.log
}

// Recorder stores reported events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report appends the event.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Discard is a Reporter that drops every event.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Event) {}

package metadata

import (
	"log/slog"
	"strings"
	"time"
)

/*
Events Collected
- Offender registrations and whether they reached the store
- Cache rebuilds (entry count, duration)
- Identity collisions that taught the registry a new offender
- Classified errors

Metadata is write-only.
No component may read metadata to influence normalization or registry decisions.
*/
type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordRegistration(hostname string, keys []string, persisted bool)
	RecordRebuild(entries int, duration time.Duration)
	RecordCollision(canonical string, firstURL string, secondURL string, keys []string)
}

// Recorder emits every event as a structured slog record.
// It must not affect control flow; a nil logger silently drops events.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	if r.logger == nil {
		return
	}
	args := []any{
		slog.Time("observed_at", observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.String("details", details),
	}
	r.logger.Error("error recorded", append(args, attrArgs(attrs)...)...)
}

func (r *Recorder) RecordRegistration(hostname string, keys []string, persisted bool) {
	if r.logger == nil {
		return
	}
	r.logger.Info("offender registered",
		slog.String(string(AttrHost), hostname),
		slog.String(string(AttrKeys), strings.Join(keys, ",")),
		slog.Bool("persisted", persisted),
	)
}

func (r *Recorder) RecordRebuild(entries int, duration time.Duration) {
	if r.logger == nil {
		return
	}
	r.logger.Info("offender cache rebuilt",
		slog.Int("entries", entries),
		slog.Duration("duration", duration),
	)
}

func (r *Recorder) RecordCollision(canonical string, firstURL string, secondURL string, keys []string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("distinct content behind one canonical url",
		slog.String(string(AttrCanonical), canonical),
		slog.String("first_url", firstURL),
		slog.String("second_url", secondURL),
		slog.String(string(AttrKeys), strings.Join(keys, ",")),
	)
}

func attrArgs(attrs []Attribute) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, slog.String(string(attr.Key), attr.Value))
	}
	return args
}

// NoopSink implements MetadataSink but does nothing.
// Callers (or tests) decide whether to inject a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordRegistration(hostname string, keys []string, persisted bool) {}

func (n *NoopSink) RecordRebuild(entries int, duration time.Duration) {}

func (n *NoopSink) RecordCollision(canonical string, firstURL string, secondURL string, keys []string) {
}

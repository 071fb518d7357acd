package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// TestLogRecord is one captured log line with its attributes flattened. Group members are
// keyed "group.key".
type TestLogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// logSink is shared by a handler and every handler derived from it with WithAttrs or
// WithGroup, so request-scoped loggers land in the same capture.
type logSink struct {
	mu      sync.Mutex
	records []TestLogRecord
}

// TestLogHandler captures records for assertions. Unlike a discard handler it keeps the
// attributes bound with Logger.With.
type TestLogHandler struct {
	sink   *logSink
	attrs  []slog.Attr
	groups []string
}

func NewTestLogHandler() *TestLogHandler {
	return &TestLogHandler{sink: &logSink{}}
}

func (h *TestLogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *TestLogHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		flatten(attrs, "", attr)
	}
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	record.Attrs(func(attr slog.Attr) bool {
		flatten(attrs, prefix, attr)
		return true
	})

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.records = append(h.sink.records, TestLogRecord{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

func flatten(into map[string]any, prefix string, attr slog.Attr) {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		for _, member := range value.Group() {
			flatten(into, prefix+attr.Key+".", member)
		}
		return
	}
	into[prefix+attr.Key] = value.Any()
}

func (h *TestLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := h.clone()
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return derived
}

func (h *TestLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	derived := h.clone()
	derived.groups = append(derived.groups, name)
	return derived
}

func (h *TestLogHandler) clone() *TestLogHandler {
	return &TestLogHandler{
		sink:   h.sink,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *TestLogHandler) GetRecords() []TestLogRecord {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return append([]TestLogRecord(nil), h.sink.records...)
}

func (h *TestLogHandler) GetRecordsByLevel(level slog.Level) []TestLogRecord {
	var filtered []TestLogRecord
	for _, record := range h.GetRecords() {
		if record.Level == level {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func (h *TestLogHandler) Reset() {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.records = nil
}

func (h *TestLogHandler) ContainsMessage(level slog.Level, message string) bool {
	for _, record := range h.GetRecordsByLevel(level) {
		if record.Message == message {
			return true
		}
	}
	return false
}

func (h *TestLogHandler) CountByLevel(level slog.Level) int {
	return len(h.GetRecordsByLevel(level))
}

// ContainsValue reports whether any message or attribute value renders to text containing
// needle. Used to prove secrets stay out of the log.
func (h *TestLogHandler) ContainsValue(needle string) bool {
	for _, record := range h.GetRecords() {
		if strings.Contains(record.Message, needle) {
			return true
		}
		for _, v := range record.Attrs {
			if strings.Contains(fmt.Sprint(v), needle) {
				return true
			}
		}
	}
	return false
}

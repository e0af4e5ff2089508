package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// infoAttrLimit caps how many fields an INFO line renders before collapsing
// the rest into a "+ N more" marker. DEBUG lines render everything.
const infoAttrLimit = 6

// headerKeys are folded into the line header instead of the field list.
var headerKeys = []string{
	FieldComponent,
	FieldRunID,
	FieldRound,
	FieldStage,
	FieldCameraLabel,
	FieldCameraSerial,
}

// consoleHandler renders one header line per record, e.g.
//
//	2026-01-02T15:04:05Z INFO [session] Run 1a2b3c4d · Round 2 (capture) · cam3/18407214 | round complete
//	    - images: 4
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := make([]field, 0, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		fields = appendField(fields, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.groups, attr)
		return true
	})
	fields = lastValueWins(fields)

	header := make(map[string]string, len(headerKeys))
	body := fields[:0:0]
	for _, f := range fields {
		if isHeaderKey(f.key) {
			header[f.key] = plainValue(f.value)
			continue
		}
		body = append(body, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.WriteString(ts.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component := header[FieldComponent]; component != "" {
		fmt.Fprintf(&buf, " [%s]", component)
	}
	if subject := captureSubject(header); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" | ")
	buf.WriteString(message)
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')

	shown := len(body)
	if record.Level >= slog.LevelInfo && shown > infoAttrLimit {
		shown = infoAttrLimit
	}
	for _, f := range body[:shown] {
		fmt.Fprintf(&buf, "    - %s: %s\n", f.key, quotedValue(f.value))
	}
	switch hidden := len(body) - shown; {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(&buf, "    + %d more fields hidden\n", hidden)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// captureSubject renders "Run 1a2b3c4d · Round 2 (capture) · cam3/18407214".
func captureSubject(header map[string]string) string {
	parts := make([]string, 0, 3)
	if runID := header[FieldRunID]; runID != "" {
		if len(runID) > 8 {
			runID = runID[:8]
		}
		parts = append(parts, "Run "+runID)
	}
	round, stage := header[FieldRound], header[FieldStage]
	switch {
	case round != "" && stage != "":
		parts = append(parts, "Round "+round+" ("+stage+")")
	case round != "":
		parts = append(parts, "Round "+round)
	case stage != "":
		parts = append(parts, stage)
	}
	label, serial := header[FieldCameraLabel], header[FieldCameraSerial]
	switch {
	case label != "" && serial != "" && label != serial:
		parts = append(parts, label+"/"+serial)
	case serial != "":
		parts = append(parts, serial)
	case label != "":
		parts = append(parts, label)
	}
	return strings.Join(parts, " · ")
}

func isHeaderKey(key string) bool {
	for _, k := range headerKeys {
		if k == key {
			return true
		}
	}
	return false
}

type field struct {
	key   string
	value slog.Value
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, groups []string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groups = append(groups[:len(groups):len(groups)], attr.Key)
		}
		for _, member := range value.Group() {
			dst = appendField(dst, groups, member)
		}
		return dst
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(dst, field{key: key, value: value})
}

// lastValueWins drops earlier duplicates of a key while keeping the position
// where the key first appeared.
func lastValueWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	pos := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, ok := pos[f.key]; ok {
			out[i] = f
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		// String covers numbers, bools and durations in their usual forms.
		return v.String()
	}
}

func quotedValue(v slog.Value) string {
	s := plainValue(v)
	if v.Kind() != slog.KindString && v.Kind() != slog.KindAny {
		return s
	}
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

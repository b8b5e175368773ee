package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/chainload/internal/ui/output"
	"go.trai.ch/chainload/internal/ui/style"
)

// levelStyle is the icon and color of one level band.
type levelStyle struct {
	min   slog.Level
	icon  string
	color termenv.Color
}

// levelStyles is ordered from the most to the least severe band.
var levelStyles = []levelStyle{
	{min: slog.LevelError, icon: style.Cross, color: termenv.RGBColor(string(style.Red))},
	{min: slog.LevelWarn, icon: style.Warning, color: termenv.RGBColor(string(style.Yellow))},
	{min: slog.LevelInfo, color: termenv.RGBColor(string(style.Slate))},
	{min: slog.LevelDebug - 4, icon: style.Tilde, color: termenv.RGBColor(string(style.Iris))},
}

func styleFor(level slog.Level) levelStyle {
	for _, s := range levelStyles {
		if level >= s.min {
			return s
		}
	}
	return levelStyles[len(levelStyles)-1]
}

// pathKeys are attributes holding file system paths. They are printed relative to the
// working directory when they lie below it.
var pathKeys = []string{"path", "location", "root", "dir"}

// PrettyHandler is a slog.Handler that writes one colored line per record.
// Continuation lines of a message, like the causes of an error chain, are muted.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	base   string
	groups []string
	attrs  []string
}

// NewPrettyHandler creates a new PrettyHandler writing to w.
// A nil writer defaults to stderr; a nil level defaults to info.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	base, _ := os.Getwd()
	return &PrettyHandler{
		out:   output.New(w),
		level: level,
		base:  base,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	s := styleFor(r.Level)

	head, rest, multiline := strings.Cut(r.Message, "\n")
	if s.icon != "" {
		head = s.icon + " " + head
	}

	attrs := slices.Clone(h.attrs)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = h.appendAttr(attrs, h.groups, attr)
		return true
	})
	if len(attrs) > 0 {
		head += " " + strings.Join(attrs, " ")
	}

	var b strings.Builder
	b.WriteString(h.out.String(head).Foreground(s.color).String())
	b.WriteByte('\n')
	if multiline {
		muted := termenv.RGBColor(string(style.Slate))
		for line := range strings.Lines(rest) {
			b.WriteString(h.out.String(strings.TrimSuffix(line, "\n")).Foreground(muted).String())
			b.WriteByte('\n')
		}
	}

	_, err := h.out.WriteString(b.String())
	return err
}

// WithAttrs returns a new Handler with the given attributes qualified by the current groups.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = h.appendAttr(next.attrs, h.groups, attr)
	}
	return next
}

// WithGroup returns a new Handler nesting later attributes under name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *PrettyHandler) clone() *PrettyHandler {
	return &PrettyHandler{
		out:    h.out,
		level:  h.level,
		base:   h.base,
		groups: slices.Clone(h.groups),
		attrs:  slices.Clone(h.attrs),
	}
}

// appendAttr renders attr as key=value, flattening group values into dotted keys.
func (h *PrettyHandler) appendAttr(dst, groups []string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}

	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(slices.Clone(groups), attr.Key)
		}
		for _, a := range attr.Value.Group() {
			dst = h.appendAttr(dst, inner, a)
		}
		return dst
	}

	value := attr.Value.String()
	if slices.Contains(pathKeys, attr.Key) {
		value = h.relative(value)
	}

	key := strings.Join(append(slices.Clone(groups), attr.Key), ".")
	return append(dst, key+"="+value)
}

func (h *PrettyHandler) relative(path string) string {
	if h.base == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(h.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

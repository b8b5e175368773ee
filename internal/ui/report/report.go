// Package report renders discovery results as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/ui/output"
	"go.trai.ch/chainload/internal/ui/style"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Format selects the output encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value. Empty selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownFormat, "invalid --format"), "format", s)
	}
}

// Failure is the rendered form of a domain.ScanFailure.
type Failure struct {
	Path  string `json:"path" yaml:"path"`
	Kind  string `json:"kind" yaml:"kind"`
	Error string `json:"error" yaml:"error"`
}

// Stats holds the statistics of both scans.
type Stats struct {
	Plugins  domain.ScanStats `json:"plugins" yaml:"plugins"`
	Patchers domain.ScanStats `json:"patchers" yaml:"patchers"`
}

// Summary is what gets rendered for one discovery.
type Summary struct {
	Root     string                   `json:"root" yaml:"root"`
	Process  string                   `json:"process,omitempty" yaml:"process,omitempty"`
	Plugins  []domain.PluginMetadata  `json:"plugins" yaml:"plugins"`
	Patchers []domain.PatcherMetadata `json:"patchers" yaml:"patchers"`
	Stats    Stats                    `json:"stats" yaml:"stats"`
	Failures []Failure                `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Failures converts scan failures for rendering. Binaries that are simply not modules are left out.
func Failures(failures []domain.ScanFailure) []Failure {
	var out []Failure
	for _, f := range failures {
		if !f.Kind.Skipped() {
			continue
		}
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out = append(out, Failure{Path: f.Path, Kind: f.Kind.String(), Error: msg})
	}
	return out
}

// Renderer writes summaries to one writer.
type Renderer struct {
	w      io.Writer
	format Format
	styles *lipgloss.Renderer
}

// New creates a Renderer. Text output is colored according to output.ColorProfile.
func New(w io.Writer, format Format) *Renderer {
	return &Renderer{
		w:      w,
		format: format,
		styles: lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile())),
	}
}

// Order renders plugins as a numbered load order.
func (r *Renderer) Order(s Summary) error {
	if r.format != FormatText {
		return r.encode(s)
	}

	var b strings.Builder
	r.orderText(&b, s)
	r.patchersText(&b, s)
	r.footerText(&b, s)
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Scan renders plugins as found on disk, with their locations.
func (r *Renderer) Scan(s Summary) error {
	if r.format != FormatText {
		return r.encode(s)
	}

	var b strings.Builder
	r.pluginsText(&b, s)
	r.patchersText(&b, s)
	r.footerText(&b, s)
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) encode(s Summary) error {
	if s.Plugins == nil {
		s.Plugins = []domain.PluginMetadata{}
	}
	if s.Patchers == nil {
		s.Patchers = []domain.PatcherMetadata{}
	}

	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return zerr.With(zerr.Wrap(domain.ErrUnknownFormat, "cannot encode summary"), "format", string(r.format))
	}
}

func (r *Renderer) orderText(b *strings.Builder, s Summary) {
	heading := r.styles.NewStyle().Inherit(style.Heading)
	muted := r.styles.NewStyle().Inherit(style.Muted)

	fmt.Fprintln(b, heading.Render(fmt.Sprintf("Load order (%d)", len(s.Plugins))))
	if len(s.Plugins) == 0 {
		fmt.Fprintln(b, "  "+muted.Render("no plugins"))
		return
	}

	indexWidth := len(fmt.Sprintf("%d.", len(s.Plugins)))
	guidWidth, versionWidth := 0, 0
	for _, p := range s.Plugins {
		guidWidth = max(guidWidth, lipgloss.Width(p.GUID))
		versionWidth = max(versionWidth, lipgloss.Width(p.Version))
	}
	depIndent := strings.Repeat(" ", 2+indexWidth+1)

	for i, p := range s.Plugins {
		index := pad(fmt.Sprintf("%d.", i+1), indexWidth)
		fmt.Fprintf(b, "  %s %s  %s  %s\n",
			muted.Render(index), pad(p.GUID, guidWidth), pad(p.Version, versionWidth), p.Name)
		for _, dep := range p.Dependencies {
			icon := style.Arrow
			if !dep.Required() {
				icon = style.Tilde
			}
			fmt.Fprintln(b, depIndent+muted.Render(icon+" "+dep.GUID))
		}
	}
}

func (r *Renderer) pluginsText(b *strings.Builder, s Summary) {
	heading := r.styles.NewStyle().Inherit(style.Heading)
	muted := r.styles.NewStyle().Inherit(style.Muted)

	fmt.Fprintln(b, heading.Render(fmt.Sprintf("Plugins (%d)", len(s.Plugins))))
	if len(s.Plugins) == 0 {
		fmt.Fprintln(b, "  "+muted.Render("no plugins"))
		return
	}

	guidWidth, versionWidth, nameWidth := 0, 0, 0
	for _, p := range s.Plugins {
		guidWidth = max(guidWidth, lipgloss.Width(p.GUID))
		versionWidth = max(versionWidth, lipgloss.Width(p.Version))
		nameWidth = max(nameWidth, lipgloss.Width(p.Name))
	}

	for _, p := range s.Plugins {
		fmt.Fprintf(b, "  %s %s  %s  %s  %s\n",
			style.Dot, pad(p.GUID, guidWidth), pad(p.Version, versionWidth), pad(p.Name, nameWidth),
			muted.Render(relative(s.Root, p.Location)))
	}
}

func (r *Renderer) patchersText(b *strings.Builder, s Summary) {
	heading := r.styles.NewStyle().Inherit(style.Heading)
	muted := r.styles.NewStyle().Inherit(style.Muted)

	fmt.Fprintln(b, heading.Render(fmt.Sprintf("Patchers (%d)", len(s.Patchers))))
	if len(s.Patchers) == 0 {
		fmt.Fprintln(b, "  "+muted.Render("no patchers"))
		return
	}

	for _, p := range s.Patchers {
		line := "  " + style.Circle + " " + p.TypeName
		if len(p.Targets) > 0 {
			line += " " + muted.Render(style.Arrow+" "+strings.Join(p.Targets, ", "))
		}
		fmt.Fprintln(b, line)
	}
}

func (r *Renderer) footerText(b *strings.Builder, s Summary) {
	muted := r.styles.NewStyle().Inherit(style.Muted)
	failure := r.styles.NewStyle().Inherit(style.Failure)

	for _, f := range s.Failures {
		fmt.Fprintf(b, "%s %s %s\n", failure.Render(style.Cross), relative(s.Root, f.Path), muted.Render(f.Kind))
	}

	cached := s.Stats.Plugins.CacheHits + s.Stats.Patchers.CacheHits
	skipped := s.Stats.Plugins.Skipped + s.Stats.Patchers.Skipped
	fmt.Fprintln(b, muted.Render(fmt.Sprintf("%d plugin and %d patcher binaries scanned, %d from cache, %d skipped",
		s.Stats.Plugins.Binaries, s.Stats.Patchers.Binaries, cached, skipped)))
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// relative shortens path to be relative to root when it lies below it.
func relative(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// Package module opens plugin binaries for metadata-only inspection.
//
// Supported formats are ELF, PE and Mach-O. Plugin type definitions are read from a YAML
// manifest embedded in a dedicated section; Go binaries additionally contribute their
// build information as module name and references.
package module

import (
	"bytes"
	"debug/buildinfo"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"io"
	"os"
	"slices"

	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// ELFSection is the ELF section holding the manifest.
	ELFSection = ".chainload"
	// PESection is the PE section holding the manifest. PE section names are limited to eight bytes.
	PESection = ".chainld"
	// MachOSection is the Mach-O section holding the manifest.
	MachOSection = "__chainload"
)

// Format identifies a binary container format.
type Format string

// Supported formats.
const (
	FormatUnknown Format = ""
	FormatELF     Format = "elf"
	FormatPE      Format = "pe"
	FormatMachO   Format = "macho"
)

var _ ports.ModuleReader = (*Reader)(nil)

// Reader implements ports.ModuleReader.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Open inspects the binary at path. The returned module keeps the file open until Close.
func (r *Reader) Open(path string) (ports.Module, error) {
	//nolint:gosec // Path comes from the directory walker
	f, err := os.Open(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleReadFailed.Error()), "path", path)
	}

	m, err := inspect(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// Detect returns the container format announced by the first bytes of r.
func Detect(r io.ReaderAt) (Format, error) {
	var magic [4]byte
	n, err := r.ReadAt(magic[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	b := magic[:n]

	switch {
	case bytes.HasPrefix(b, []byte(elf.ELFMAG)):
		return FormatELF, nil
	case bytes.HasPrefix(b, []byte("MZ")):
		return FormatPE, nil
	case n == 4 && isMachOMagic(b):
		return FormatMachO, nil
	default:
		return FormatUnknown, nil
	}
}

func isMachOMagic(b []byte) bool {
	le := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	be := uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
	for _, v := range []uint32{le, be} {
		switch v {
		case macho.Magic32, macho.Magic64, macho.MagicFat:
			return true
		}
	}
	return false
}

func inspect(f *os.File, path string) (*Module, error) {
	format, err := Detect(f)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleReadFailed.Error()), "path", path)
	}

	var section []byte
	switch format {
	case FormatELF:
		section, err = elfSection(f)
	case FormatPE:
		section, err = peSection(f)
	case FormatMachO:
		section, err = machoSection(f)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrNotAModule, "unrecognised file format"), "path", path)
	}
	if err != nil {
		return nil, err
	}

	m := &Module{path: path}
	if len(section) > 0 {
		var manifest domain.Manifest
		if err := yaml.Unmarshal(section, &manifest); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
		}
		m.name = manifest.Module
		m.references = manifest.References
		m.types = manifest.Types
	}

	addBuildInfo(m, f)
	return m, nil
}

func notAModule(err error) error {
	return zerr.With(zerr.Wrap(domain.ErrNotAModule, "malformed binary"), "reason", err.Error())
}

func elfSection(f io.ReaderAt) ([]byte, error) {
	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, notAModule(err)
	}
	s := ef.Section(ELFSection)
	if s == nil {
		return nil, nil
	}
	return sectionData(s.Data())
}

func peSection(f io.ReaderAt) ([]byte, error) {
	pf, err := pe.NewFile(f)
	if err != nil {
		return nil, notAModule(err)
	}
	s := pf.Section(PESection)
	if s == nil {
		return nil, nil
	}
	return sectionData(s.Data())
}

func machoSection(f io.ReaderAt) ([]byte, error) {
	mf, err := macho.NewFile(f)
	if err != nil {
		fat, fatErr := macho.NewFatFile(f)
		if fatErr != nil || len(fat.Arches) == 0 {
			return nil, notAModule(err)
		}
		mf = fat.Arches[0].File
	}
	s := mf.Section(MachOSection)
	if s == nil {
		return nil, nil
	}
	return sectionData(s.Data())
}

func sectionData(data []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrManifestParseFailed.Error())
	}
	return bytes.TrimRight(data, "\x00"), nil
}

// addBuildInfo merges Go build information into m. Non-Go binaries are left untouched.
func addBuildInfo(m *Module, f io.ReaderAt) {
	info, err := buildinfo.Read(f)
	if err != nil {
		return
	}
	if m.name == "" {
		m.name = info.Main.Path
	}
	for _, dep := range info.Deps {
		if !slices.Contains(m.references, dep.Path) {
			m.references = append(m.references, dep.Path)
		}
	}
}

// Module is an opened binary.
type Module struct {
	path       string
	name       string
	references []string
	types      []domain.TypeDefinition
	closer     io.Closer
}

// Path returns the file the module was opened from.
func (m *Module) Path() string { return m.path }

// Name returns the declared module path.
func (m *Module) Name() string { return m.name }

// References returns the module paths the binary depends on.
func (m *Module) References() []string { return m.references }

// Types returns the declared type definitions.
func (m *Module) Types() []domain.TypeDefinition { return m.types }

// Close releases the file handle.
func (m *Module) Close() error {
	if m.closer == nil {
		return nil
	}
	err := m.closer.Close()
	m.closer = nil
	return err
}

// Package modtest builds small plugin binaries for tests.
package modtest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.trai.ch/chainload/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// SDK is the module path used as the plugin SDK reference in generated manifests.
const SDK = domain.DefaultSDKModule

const (
	headerSize  = 64
	sectionSize = 64
	manifestSec = ".chainload"
)

// BuildELF returns a minimal 64-bit little-endian ELF shared object with three sections:
// the null section, the section name table and a manifest section holding data.
// A nil manifest omits the manifest section entirely.
func BuildELF(manifest []byte) []byte {
	strtab := []byte("\x00.shstrtab\x00")
	manifestName := uint32(len(strtab))
	if manifest != nil {
		strtab = append(strtab, manifestSec+"\x00"...)
	}

	strtabOff := uint64(headerSize)
	dataOff := strtabOff + uint64(len(strtab))
	shoff := align8(dataOff + uint64(len(manifest)))

	shnum := uint16(2)
	if manifest != nil {
		shnum = 3
	}

	var hdr elf.Header64
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	hdr.Type = uint16(elf.ET_DYN)
	hdr.Machine = uint16(elf.EM_X86_64)
	hdr.Version = uint32(elf.EV_CURRENT)
	hdr.Shoff = shoff
	hdr.Ehsize = headerSize
	hdr.Shentsize = sectionSize
	hdr.Shnum = shnum
	hdr.Shstrndx = 1

	sections := []elf.Section64{
		{},
		{
			Name:      1,
			Type:      uint32(elf.SHT_STRTAB),
			Off:       strtabOff,
			Size:      uint64(len(strtab)),
			Addralign: 1,
		},
	}
	if manifest != nil {
		sections = append(sections, elf.Section64{
			Name:      manifestName,
			Type:      uint32(elf.SHT_PROGBITS),
			Off:       dataOff,
			Size:      uint64(len(manifest)),
			Addralign: 1,
		})
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, hdr)
	buf.Write(strtab)
	buf.Write(manifest)
	buf.Write(make([]byte, shoff-uint64(buf.Len())))
	_ = binary.Write(&buf, binary.LittleEndian, sections)
	return buf.Bytes()
}

func align8(n uint64) uint64 {
	return (n + 7) &^ 7
}

// Encode renders a manifest as YAML.
func Encode(m domain.Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

// WriteELF writes an ELF binary embedding m to path, creating parent directories.
func WriteELF(tb testing.TB, path string, m domain.Manifest) {
	tb.Helper()
	data, err := Encode(m)
	if err != nil {
		tb.Fatalf("encode manifest: %v", err)
	}
	WriteFile(tb, path, BuildELF(data))
}

// WriteFile writes raw bytes to path, creating parent directories.
func WriteFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		tb.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}

// SetModTime sets the modification time of path.
func SetModTime(tb testing.TB, path string, mtime time.Time) {
	tb.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		tb.Fatalf("chtimes %s: %v", path, err)
	}
}

// Plugin returns a manifest declaring one plugin type that references the SDK.
// Each dependency is "guid" (hard) or "guid:soft".
func Plugin(guid, name, version string, deps ...string) domain.Manifest {
	return domain.Manifest{
		Module:     "example.com/" + name,
		References: []string{SDK},
		Types:      []domain.TypeDefinition{PluginType(guid, name, version, deps...)},
	}
}

// PluginType returns a type definition carrying a Plugin attribute and its dependencies.
func PluginType(guid, name, version string, deps ...string) domain.TypeDefinition {
	def := domain.TypeDefinition{
		Name:      name,
		Namespace: "plugins",
		BaseType:  "chainload.Plugin",
		Attributes: []domain.Attribute{
			{Name: "Plugin", Args: []string{guid, name, version}},
		},
	}
	for _, dep := range deps {
		id, flag, _ := strings.Cut(dep, ":")
		args := []string{id}
		if flag != "" {
			args = append(args, flag)
		}
		def.Attributes = append(def.Attributes, domain.Attribute{Name: "Dependency", Args: args})
	}
	return def
}

// Patcher returns a manifest declaring one patcher type with the given target assemblies.
func Patcher(name string, targets ...string) domain.Manifest {
	return domain.Manifest{
		Module: "example.com/" + name,
		Types: []domain.TypeDefinition{{
			Name:       name,
			Namespace:  "patchers",
			BaseType:   "chainload.Patcher",
			Attributes: []domain.Attribute{{Name: "Patcher", Args: targets}},
		}},
	}
}

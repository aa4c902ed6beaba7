package dynlib

import (
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Object formats recognised by Diagnose.
const (
	FormatUnknown = ""
	FormatELF     = "ELF"
	FormatMachO   = "Mach-O"
	FormatPE      = "PE"
)

// Object is what Diagnose could learn from a library file's header.
type Object struct {
	Path   string
	Format string
	// Archs lists GOARCH names the file carries code for. Universal
	// Mach-O binaries list more than one.
	Archs []string
}

// Diagnose reads the object header of path. It never fails; unreadable or
// unrecognised files produce an Object with an empty Format.
func Diagnose(path string) Object {
	obj := Object{Path: path}

	if f, err := elf.Open(path); err == nil {
		defer f.Close()
		obj.Format = FormatELF
		obj.Archs = []string{elfArch(f)}
		return obj
	}
	if f, err := macho.Open(path); err == nil {
		defer f.Close()
		obj.Format = FormatMachO
		obj.Archs = []string{machoArch(f.Cpu)}
		return obj
	}
	if f, err := macho.OpenFat(path); err == nil {
		defer f.Close()
		obj.Format = FormatMachO
		for _, a := range f.Arches {
			obj.Archs = append(obj.Archs, machoArch(a.Cpu))
		}
		return obj
	}
	if f, err := pe.Open(path); err == nil {
		defer f.Close()
		obj.Format = FormatPE
		obj.Archs = []string{peArch(f.Machine)}
		return obj
	}
	return obj
}

// HostFormat is the object format the host's loader accepts.
func HostFormat() string {
	switch runtime.GOOS {
	case "windows":
		return FormatPE
	case "darwin", "ios":
		return FormatMachO
	default:
		return FormatELF
	}
}

// Mismatch describes why the object cannot run on this host, or returns
// an empty string when nothing obvious is wrong.
func (o Object) Mismatch() string {
	host := runtime.GOOS + "/" + runtime.GOARCH
	if o.Format == FormatUnknown {
		return fmt.Sprintf("file is not a valid %s object", HostFormat())
	}
	if o.Format != HostFormat() {
		return fmt.Sprintf("file is %s, host %s expects %s", o.Format, host, HostFormat())
	}
	if !slices.Contains(o.Archs, runtime.GOARCH) {
		return fmt.Sprintf("file is %s for %s, host is %s", o.Format, strings.Join(o.Archs, ","), host)
	}
	return ""
}

func elfArch(f *elf.File) string {
	switch f.Machine {
	case elf.EM_X86_64:
		return "amd64"
	case elf.EM_386:
		return "386"
	case elf.EM_AARCH64:
		return "arm64"
	case elf.EM_ARM:
		return "arm"
	case elf.EM_RISCV:
		if f.Class == elf.ELFCLASS64 {
			return "riscv64"
		}
		return "riscv"
	case elf.EM_PPC64:
		if f.Data == elf.ELFDATA2LSB {
			return "ppc64le"
		}
		return "ppc64"
	case elf.EM_S390:
		return "s390x"
	case elf.EM_LOONGARCH:
		return "loong64"
	case elf.EM_MIPS:
		if f.Class == elf.ELFCLASS64 {
			if f.Data == elf.ELFDATA2LSB {
				return "mips64le"
			}
			return "mips64"
		}
		if f.Data == elf.ELFDATA2LSB {
			return "mipsle"
		}
		return "mips"
	}
	return strings.ToLower(strings.TrimPrefix(f.Machine.String(), "EM_"))
}

func machoArch(cpu macho.Cpu) string {
	switch cpu {
	case macho.CpuAmd64:
		return "amd64"
	case macho.Cpu386:
		return "386"
	case macho.CpuArm64:
		return "arm64"
	case macho.CpuArm:
		return "arm"
	case macho.CpuPpc64:
		return "ppc64"
	}
	return strings.ToLower(strings.TrimPrefix(cpu.String(), "Cpu"))
}

func peArch(machine uint16) string {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "amd64"
	case pe.IMAGE_FILE_MACHINE_I386:
		return "386"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "arm64"
	case pe.IMAGE_FILE_MACHINE_ARMNT:
		return "arm"
	}
	return fmt.Sprintf("machine(%#x)", machine)
}

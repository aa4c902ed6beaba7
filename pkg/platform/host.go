package platform

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Info describes the machine the process runs on.
type Info struct {
	OS       string   `json:"os" yaml:"os" msgpack:"os"`
	Family   string   `json:"family" yaml:"family" msgpack:"family"`
	Arch     string   `json:"arch" yaml:"arch" msgpack:"arch"`
	CPU      string   `json:"cpu" yaml:"cpu" msgpack:"cpu"`
	Vendor   string   `json:"vendor" yaml:"vendor" msgpack:"vendor"`
	Cores    int      `json:"cores" yaml:"cores" msgpack:"cores"`
	Threads  int      `json:"threads" yaml:"threads" msgpack:"threads"`
	Features []string `json:"features,omitempty" yaml:"features,omitempty" msgpack:"features,omitempty"`
}

// HostInfo collects the host OS, architecture and CPU identification.
// Family is empty when the host OS is not a supported family.
func HostInfo() Info {
	info := Info{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPU:      cpuid.CPU.BrandName,
		Vendor:   cpuid.CPU.VendorString,
		Cores:    cpuid.CPU.PhysicalCores,
		Threads:  cpuid.CPU.LogicalCores,
		Features: cpuid.CPU.FeatureSet(),
	}
	if f, err := Host(); err == nil {
		info.Family = f.String()
	}
	if info.Threads == 0 {
		info.Threads = runtime.NumCPU()
	}
	return info
}

func (i Info) String() string {
	family := i.Family
	if family == "" {
		family = "unsupported"
	}
	cpu := i.CPU
	if cpu == "" {
		cpu = "unknown cpu"
	}
	return fmt.Sprintf("%s (%s/%s, %s, %d threads)", family, i.OS, i.Arch, cpu, i.Threads)
}

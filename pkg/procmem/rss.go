// Пакет procmem — текущий объём резидентной памяти процесса.
package procmem

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// Probe — замер RSS текущего процесса.
type Probe struct {
	proc *process.Process
}

func NewProbe() (*Probe, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("procmem: open self: %w", err)
	}
	return &Probe{proc: p}, nil
}

// ResidentBytes — RSS в байтах.
func (p *Probe) ResidentBytes() (uint64, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("procmem: memory info: %w", err)
	}
	return info.RSS, nil
}

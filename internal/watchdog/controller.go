package watchdog

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessController abstracts process discovery, termination and
// spawning so restart sequencing can be tested without touching real
// processes.
type ProcessController interface {
	// FindByCommandLine returns pids whose command line contains every
	// element of the launch signature.
	FindByCommandLine(signature []string) ([]int32, error)
	// FindByPort returns the pid listening on the given TCP port, if any.
	FindByPort(port int) (int32, bool)
	Terminate(pid int32) error
	Spawn(command []string) error
}

// OSController is the real implementation backed by the process table.
type OSController struct{}

func (OSController) FindByCommandLine(signature []string) ([]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	self := int32(os.Getpid())
	var pids []int32
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		matched := true
		for _, part := range signature {
			if !strings.Contains(cmdline, part) {
				matched = false
				break
			}
		}
		if matched {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

func (OSController) FindByPort(port int) (int32, bool) {
	conns, err := gopsnet.Connections("tcp")
	if err != nil {
		return 0, false
	}
	for _, c := range conns {
		if c.Status == "LISTEN" && c.Laddr.Port == uint32(port) && c.Pid > 0 {
			return c.Pid, true
		}
	}
	return 0, false
}

func (OSController) Terminate(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	if err := p.Terminate(); err != nil {
		// escalate when the polite signal is refused
		return p.Kill()
	}
	return nil
}

// Spawn launches the target detached so it outlives the watchdog's own
// check cycle and any watchdog restart.
func (OSController) Spawn(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty spawn command")
	}
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command[0], err)
	}
	return cmd.Process.Release()
}

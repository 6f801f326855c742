// Package sandbox provisions ephemeral remote execution environments.
package sandbox

import (
	"context"
	"errors"
	"time"
)

// ErrFileNotFound is returned by ReadFile when the path does not exist yet
var ErrFileNotFound = errors.New("sandbox: file not found")

// Spec describes the resources requested for a sandbox
type Spec struct {
	Runtime      string        `json:"runtime,omitempty"`
	VCPUs        int           `json:"vcpus"`
	MemoryMiB    int           `json:"memory_mib"`
	Timeout      time.Duration `json:"-"`
	IdleTimeout  time.Duration `json:"-"`
	AllowNetwork bool          `json:"allow_network"`
}

// DefaultSpec is 2 vCPU, 2 GiB, five minute execution and idle timeouts,
// with outbound network access.
func DefaultSpec() Spec {
	return Spec{
		Runtime:      "node22",
		VCPUs:        2,
		MemoryMiB:    2048,
		Timeout:      5 * time.Minute,
		IdleTimeout:  5 * time.Minute,
		AllowNetwork: true,
	}
}

// Command is a single instruction run inside a sandbox
type Command struct {
	Cmd     string            `json:"cmd"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Timeout time.Duration     `json:"-"`
	// Detached returns as soon as the command has started
	Detached bool `json:"detached"`
}

// Sandbox is a handle to one provisioned environment
type Sandbox interface {
	ID() string
	Execute(ctx context.Context, cmd Command) error
	// ReadFile returns ErrFileNotFound when path does not exist
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Destroy(ctx context.Context) error
}

// Provider creates sandboxes
type Provider interface {
	Create(ctx context.Context, spec Spec) (Sandbox, error)
}

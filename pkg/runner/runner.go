// Package runner manages process lifecycle for a lensa agent: banner,
// start/stop hooks, and bounded drain on shutdown.
package runner

import (
	"bytes"
	"context"
	"os"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

// Work is the long-running body of the process, typically a session
// engine loop. It returns when ctx is cancelled or the work finishes.
type Work func(ctx context.Context) error

type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Drainer flushes buffered state (observers, display) before exit.
type Drainer interface {
	Drain() error
}

const EngineVersion = "dev"

func PrintBanner() {
	tpl := "{{ .Title \"LENSA\" \"\" 0 }}\nVersion: " + EngineVersion + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

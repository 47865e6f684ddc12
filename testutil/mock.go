package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/clientmanager/engine"
)

// RecordingEmitter is an engine.Emitter that keeps every command in order.
// Thread-safe.
type RecordingEmitter struct {
	mu       sync.Mutex
	commands []engine.Command
}

// NewRecordingEmitter creates an empty recorder.
func NewRecordingEmitter() *RecordingEmitter {
	return &RecordingEmitter{}
}

// Emit records cmd.
func (r *RecordingEmitter) Emit(_ context.Context, cmd engine.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of the recorded commands.
func (r *RecordingEmitter) Commands() []engine.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Command(nil), r.commands...)
}

// Actions returns the action names of the recorded commands, in order.
func (r *RecordingEmitter) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c.Action())
	}
	return out
}

// Count returns how many recorded commands have the given action.
func (r *RecordingEmitter) Count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.commands {
		if c.Action() == action {
			n++
		}
	}
	return n
}

// Reset drops everything recorded so far.
func (r *RecordingEmitter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

// SequentialIDs returns a generator producing "test:1", "test:2", ...
func SequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("test:%d", n)
	}
}

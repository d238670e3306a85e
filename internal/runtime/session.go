package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// session is one isolated interpreter bound to a single render. Sessions
// are never reused or pooled across requests; state installed for one
// render must not leak into another. A session holds no native resources
// beyond interpreter heap, so teardown is stopping its watchers and letting
// it go out of scope.
type session struct {
	vm *goja.Runtime
}

// newSession creates an interpreter with the sandbox prelude installed.
func newSession() (*session, error) {
	vm := goja.New()
	if _, err := vm.RunProgram(preludeProgram); err != nil {
		return nil, fmt.Errorf("installing sandbox prelude: %w", err)
	}
	return &session{vm: vm}, nil
}

// watch interrupts the interpreter when ctx is done or the time budget
// elapses, whichever comes first. The returned stop releases both triggers
// and must be called before the session is discarded.
func (s *session) watch(ctx context.Context, budget time.Duration) func() {
	timer := time.AfterFunc(budget, func() {
		s.vm.Interrupt(errBudgetExceeded)
	})
	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(ctx.Err())
	})
	return func() {
		timer.Stop()
		stop()
	}
}

// install evaluates a setup script, such as the context accessors.
func (s *session) install(script string) error {
	_, err := s.vm.RunString(script)
	return err
}

// consoleErrors drains messages the component wrote through console.error.
func (s *session) consoleErrors() []string {
	value, err := s.vm.RunString("globalThis.__errors")
	if err != nil {
		return nil
	}
	var messages []string
	if err := s.vm.ExportTo(value, &messages); err != nil {
		return nil
	}
	return messages
}

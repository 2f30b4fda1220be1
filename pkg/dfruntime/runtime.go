package dfruntime

import (
	"context"
	"fmt"

	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

// Run spawns mainSub's root Block and blocks until the whole coroutine tree
// it transitively spawns has drained, or a coroutine panics (most notably a
// DoubleAssign), whichever happens first — the interpreter's analogue of
// lunarc_run's "spawn entry, join pool" sequence in pkg/emit/c/runtime.c.
func (rt *Runtime) Run(ctx context.Context, prog *translator.Program, mainSub string) error {
	root, ok := prog.Subs[mainSub]
	if !ok {
		return fmt.Errorf("dfruntime: no such subroutine %q", mainSub)
	}
	rt.Spawn(root, make(ctxFrame))

	drained := make(chan error, 1)
	go func() { drained <- rt.Pool.Drain(ctx) }()

	select {
	case err := <-rt.errCh:
		return err
	case err := <-drained:
		return err
	}
}

// Package natives is the native-symbol registry consulted by the Go-native
// interpreter (pkg/dfruntime, used by `lunarc run` without --native and by
// the REST server's executions): the Go-side
// implementations a DSL program's `import` declarations resolve to. The
// cgo/dlopen execution path never consults this package — it links against
// real C symbols instead.
//
// Grounded on the teacher's pkg/stdlib/registry.go Registry/StdlibFunc/
// Register/NewRegistry shape, adapted from GCW's types.Value argument model
// to dfruntime's scalar-float64/*Output model: every DSL native takes
// resolved float64 values for its "value"/scalar parameters and an
// *dfruntime.Output for each "name" (output) parameter.
package natives

import (
	"fmt"

	"github.com/lemonberrylabs/lunarc/pkg/dfruntime"
)

// Registry holds every native symbol available to the interpreter,
// mirroring the teacher's stdlib.Registry.
type Registry struct {
	funcs dfruntime.Natives
}

// NewRegistry returns a Registry with every built-in native registered.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(dfruntime.Natives)}
	r.registerMath()
	r.registerTime()
	r.registerHash()
	return r
}

// Register adds a native symbol implementation, mirroring the teacher's
// Registry.Register.
func (r *Registry) Register(name string, fn dfruntime.NativeFunc) {
	r.funcs[name] = fn
}

// Natives returns the accumulated table as a dfruntime.Natives, ready to
// hand to dfruntime.NewRuntime.
func (r *Registry) Natives() dfruntime.Natives {
	return r.funcs
}

// requireArgs mirrors the teacher's requireArgs helper: a uniform arity
// check shared by every native below.
func requireArgs(name string, args []any, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, want, len(args))
	}
	return nil
}

func scalar(args []any, i int) float64 {
	return args[i].(float64)
}

func output(args []any, i int) *dfruntime.Output {
	return args[i].(*dfruntime.Output)
}

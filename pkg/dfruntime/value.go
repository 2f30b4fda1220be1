package dfruntime

// DFHandle is an unresolved dataflow reference held in a coroutine's ctx: the
// Go-interpreter analogue of the emitted C ABI's `DF` struct before
// request()/wait() has filled it. Once a wait-prologue resolves it, the ctx
// entry is replaced in place by the resolved float64 value — mirroring how
// cast_int(ctx->name) in emitted C reads a DF whose .slot the runtime
// already filled.
type DFHandle uint64

// Output is passed to a native function in place of a resolved scalar for
// every "name" (output) parameter; the native calls Set to produce its
// result, which the calling Block's submit epilogue then publishes to the
// registry. Grounded on the ABI's convention of passing an output DF* that
// the native writes into before the block calls submit() on it.
type Output struct {
	value float64
	set   bool
}

// Set records the value this output parameter resolves to. Calling it more
// than once is a native implementation bug — not a DoubleAssign (that
// invariant is about submit(), not about a native writing its own local
// Output more than once) — so the second call simply wins, matching a plain
// C struct field assignment.
func (o *Output) Set(v float64) {
	o.value = v
	o.set = true
}

// Value returns the value a native has produced so far, for callers outside
// this package that need to observe an Output directly (tests, mainly) —
// the submit epilogue itself reads the unexported fields in-package.
func (o *Output) Value() float64 {
	return o.value
}

// NativeFunc is the Go-interpreter shape of an imported native symbol.
// args[i] is a float64 for every scalar or "value" parameter (already
// resolved by the calling block's wait-prologue) and an *Output for every
// "name" parameter.
type NativeFunc func(args []any) error

// Natives resolves imported symbol names to their Go-interpreter
// implementation, used by the interpreted execution mode (`lunarc run`
// without --native, and the REST server's executions); the cgo/dlopen path
// never consults this map.
type Natives map[string]NativeFunc

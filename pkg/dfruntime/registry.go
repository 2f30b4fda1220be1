// Package dfruntime is the Go-native counterpart to the emitted C runtime
// (pkg/emit/c/runtime.h/.c): a dataflow registry plus worker pool
// implementing request/submit/wait/spawn, and a pure-Go interpreter that
// walks a translator.Block tree directly instead of invoking compiled C
// through cgo. Only the Go-native execution mode uses this registry/pool
// pair; the native mode uses the C registry and pool in
// pkg/emit/c/runtime.c.
//
// Grounded on original_source/src/runtime/imp.rs's Runtime (storage map +
// id generators) and threadpool.rs's channel-fed worker pool, restated with
// a Go mutex-guarded map and channel instead of a Mutex<HashMap> and a
// crossbeam channel.
package dfruntime

import (
	"fmt"
	"sync"

	"github.com/lemonberrylabs/lunarc/pkg/ids"
)

// entry is one dataflow variable's registry slot: either empty with a list
// of coroutines waiting to be resumed once it's filled, or filled with its
// submitted value. Mirrors original_source's runtime::imp::Entry.
type entry struct {
	filled bool
	value  float64
	// waiters are resumed (given the filled value, then re-enqueued) the
	// moment this entry is filled.
	waiters []func(float64)
}

// Registry is the dataflow variable store: one mutex-guarded map from
// dataflow id to entry, exactly original_source's Mutex<HashMap<u64, Entry>>
// restated as a Go sync.Mutex + map.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*entry
	dfIDs   *ids.Generator
}

// NewRegistry returns an empty Registry ready to hand out dataflow ids.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uint64]*entry),
		dfIDs:   ids.NewGenerator(),
	}
}

// Create allocates a fresh dataflow id, mirroring df_create()/alloc_dfid().
func (r *Registry) Create() uint64 {
	return r.dfIDs.Next()
}

func (r *Registry) getOrCreateLocked(id uint64) *entry {
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

// Request mirrors the C ABI's request(self, df): if id is already filled it
// returns the value and true; otherwise it registers resume as a waiter
// (invoked with the eventual value once Submit fills the entry) and returns
// false, signalling the caller's coroutine should suspend.
func (r *Registry) Request(id uint64, resume func(float64)) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.getOrCreateLocked(id)
	if e.filled {
		return e.value, true
	}
	e.waiters = append(e.waiters, resume)
	return 0, false
}

// Submit mirrors submit(df): fills id with value, fataling with a
// DoubleAssign-shaped panic if it was already filled (the runtime invariant
// spec.md documents as a fatal error, not a recoverable one), then resumes
// every waiter registered via Request.
func (r *Registry) Submit(id uint64, value float64) {
	r.mu.Lock()
	e := r.getOrCreateLocked(id)
	if e.filled {
		r.mu.Unlock()
		panic(fmt.Sprintf("dfruntime: DoubleAssign on dataflow id %d", id))
	}
	e.filled = true
	e.value = value
	waiters := e.waiters
	e.waiters = nil
	r.mu.Unlock()

	for _, resume := range waiters {
		resume(value)
	}
}

// Wait mirrors the ABI's blocking wait(df): it is only ever called from
// scalar expression position (never from a block's wait-prologue, which
// always suspends via Request instead), so a simple condition-variable
// style block is acceptable here; pkg/emit's runtime.c implements the
// equivalent spin-with-backoff slow path in C.
func (r *Registry) Wait(id uint64) float64 {
	done := make(chan float64, 1)
	val, ok := r.Request(id, func(v float64) { done <- v })
	if ok {
		return val
	}
	return <-done
}

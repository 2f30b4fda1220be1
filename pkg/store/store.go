// Package store provides in-memory storage for compiled programs and their
// executions, the compiler-service counterpart to the teacher's
// pkg/store.Store (workflows/executions/callbacks). Grounded directly on
// that file's shape: a mutex-guarded map pair, monotonic revision/execution
// counters, and one CRUD method per resource kind.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/lemonberrylabs/lunarc/pkg/diag"
	"github.com/lemonberrylabs/lunarc/pkg/parser"
	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

// ProgramState mirrors the teacher's WorkflowState — every stored program
// has already parsed and translated successfully by the time it is stored,
// so there is only one state (a program that fails to compile is rejected
// by CreateProgram before it ever becomes a Program).
type ProgramState string

const ProgramActive ProgramState = "ACTIVE"

// ExecutionState mirrors the teacher's ExecutionState, trimmed to the
// states a lunarc run can actually reach. There is no CANCELLED state: a
// run whose context ends (such as the REST server's execution deadline) is
// recorded as FAILED.
type ExecutionState string

const (
	ExecutionRunning   ExecutionState = "RUNNING"
	ExecutionSucceeded ExecutionState = "SUCCEEDED"
	ExecutionFailed    ExecutionState = "FAILED"
)

// Mode selects which of the two execution backends SPEC_FULL.md §4.3
// describes an Execution ran under.
type Mode string

const (
	ModeInterp Mode = "INTERP"
	ModeNative Mode = "NATIVE"
)

// Program is a stored, successfully compiled DSL source file.
type Program struct {
	Name       string
	Source     string
	State      ProgramState
	RevisionID string
	CreateTime time.Time
	UpdateTime time.Time
	Prog       *translator.Program
}

// Execution is a single run of a Program under a chosen Mode.
type Execution struct {
	Name      string
	Program   string
	Mode      Mode
	State     ExecutionState
	Error     string
	StartTime time.Time
	EndTime   time.Time
}

// Store is a thread-safe in-memory registry of Programs and Executions.
type Store struct {
	mu         sync.RWMutex
	programs   map[string]*Program
	executions map[string]*Execution

	revCounter  int64
	execCounter int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		programs:   make(map[string]*Program),
		executions: make(map[string]*Execution),
	}
}

// CreateProgram parses and translates source, rejecting it outright on any
// compile error (mirroring the teacher's createWorkflow validate-then-store
// sequence) and stores the result under name.
func (s *Store) CreateProgram(name, source string) (*Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.programs[name]; exists {
		return nil, fmt.Errorf("program %q already exists", name)
	}

	file, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", name, err)
	}
	prog, err := translator.New().Translate(file)
	if err != nil {
		return nil, fmt.Errorf("translating %q: %w", name, err)
	}

	s.revCounter++
	now := time.Now()
	p := &Program{
		Name:       name,
		Source:     source,
		State:      ProgramActive,
		RevisionID: fmt.Sprintf("%06d", s.revCounter),
		CreateTime: now,
		UpdateTime: now,
		Prog:       prog,
	}
	s.programs[name] = p
	return p, nil
}

// GetProgram retrieves a stored program by name.
func (s *Store) GetProgram(name string) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.programs[name]
	if !ok {
		return nil, fmt.Errorf("program %q not found", name)
	}
	return p, nil
}

// ListPrograms returns every stored program.
func (s *Store) ListPrograms() []*Program {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Program, 0, len(s.programs))
	for _, p := range s.programs {
		result = append(result, p)
	}
	return result
}

// UpdateProgram re-parses and re-translates source, replacing the stored
// program only if the new source compiles cleanly.
func (s *Store) UpdateProgram(name, source string) (*Program, error) {
	file, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", name, err)
	}
	prog, err := translator.New().Translate(file)
	if err != nil {
		return nil, fmt.Errorf("translating %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[name]
	if !ok {
		return nil, fmt.Errorf("program %q not found", name)
	}

	s.revCounter++
	p.Source = source
	p.Prog = prog
	p.RevisionID = fmt.Sprintf("%06d", s.revCounter)
	p.UpdateTime = time.Now()
	return p, nil
}

// DeleteProgram removes a stored program.
func (s *Store) DeleteProgram(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[name]; !ok {
		return fmt.Errorf("program %q not found", name)
	}
	delete(s.programs, name)
	return nil
}

// CreateExecution records a new, running execution of program under mode.
func (s *Store) CreateExecution(program string, mode Mode) (*Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[program]; !ok {
		return nil, fmt.Errorf("program %q not found", program)
	}

	s.execCounter++
	name := fmt.Sprintf("%s/executions/exec-%d", program, s.execCounter)
	exec := &Execution{
		Name:      name,
		Program:   program,
		Mode:      mode,
		State:     ExecutionRunning,
		StartTime: time.Now(),
	}
	s.executions[name] = exec
	return exec, nil
}

// GetExecution retrieves an execution by name.
func (s *Store) GetExecution(name string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[name]
	if !ok {
		return nil, fmt.Errorf("execution %q not found", name)
	}
	return exec, nil
}

// ListExecutions returns every execution recorded for program.
func (s *Store) ListExecutions(program string) []*Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Execution
	for _, exec := range s.executions {
		if exec.Program == program {
			result = append(result, exec)
		}
	}
	return result
}

// CompleteExecution marks name as succeeded.
func (s *Store) CompleteExecution(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[name]
	if !ok {
		return fmt.Errorf("execution %q not found", name)
	}
	exec.State = ExecutionSucceeded
	exec.EndTime = time.Now()
	return nil
}

// FailExecution marks name as failed with err's message. A *diag.Bag is
// unwrapped to its accumulated diagnostics text so pipeline-stage errors
// read the same way through the store as they do from the CLI.
func (s *Store) FailExecution(name string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[name]
	if !ok {
		return fmt.Errorf("execution %q not found", name)
	}
	exec.State = ExecutionFailed
	exec.EndTime = time.Now()
	if bag, ok := err.(*diag.Bag); ok {
		exec.Error = bag.Error()
	} else {
		exec.Error = err.Error()
	}
	return nil
}

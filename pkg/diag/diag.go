// Package diag defines the diagnostic error kinds produced at each stage of
// the lunarc pipeline, in the order they can occur: lexing, parsing,
// translation, emission, native compilation, and linking. Runtime invariant
// violations (DoubleAssign, DanglingWait) are documented here too even
// though DanglingWait is never surfaced as a value — it manifests as
// indefinite suspension by contract.
package diag

import "fmt"

// Kind tags the pipeline stage (or runtime invariant) that produced a
// Diagnostic.
type Kind string

const (
	KindLex              Kind = "LexError"
	KindParse            Kind = "ParseError"
	KindUnknownSymbol    Kind = "UnknownSymbol"
	KindUntypedIdent     Kind = "UntypedIdentifier"
	KindArityMismatch    Kind = "ArityMismatch"
	KindRedeclaration    Kind = "Redeclaration"
	KindEmit             Kind = "EmitError"
	KindNativeCompile    Kind = "NativeCompileError"
	KindLink             Kind = "LinkError"
	KindDoubleAssign     Kind = "DoubleAssign"
	KindDanglingWait     Kind = "DanglingWait"
	KindNestedSubCall    Kind = "NestedSubCallUnsupported"
)

// Diagnostic is a single pipeline error. Name carries the offending
// identifier for the translator error kinds; it is empty for kinds that
// don't name a symbol (lex/parse/emit/native-compile/link).
type Diagnostic struct {
	Kind    Kind
	Message string
	Name    string
	Pos     int // byte offset into source, -1 if not applicable
}

func (d *Diagnostic) Error() string {
	if d.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Message, d.Name)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// New builds a Diagnostic with no offending name and no position.
func New(kind Kind, msg string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: msg, Pos: -1}
}

// NewAt builds a Diagnostic anchored to a byte offset in the source.
func NewAt(kind Kind, msg string, pos int) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: msg, Pos: pos}
}

// NewNamed builds a translator Diagnostic carrying the offending
// identifier.
func NewNamed(kind Kind, msg, name string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: msg, Name: name, Pos: -1}
}

// Bag accumulates diagnostics from a single pipeline stage. Stages report
// every problem they find before halting, rather than stopping at the
// first error — see Translator.codegen in the original lunar translator,
// which collects into self.errors before bailing.
type Bag struct {
	items []*Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.items = append(b.items, d)
}

// Empty reports whether no diagnostics were recorded.
func (b *Bag) Empty() bool {
	return len(b.items) == 0
}

// Items returns the accumulated diagnostics in report order.
func (b *Bag) Items() []*Diagnostic {
	return b.items
}

// Error implements error, joining every diagnostic onto its own line. Only
// call this once the bag is known non-empty.
func (b *Bag) Error() string {
	s := ""
	for _, d := range b.items {
		s += "error: " + d.Error() + "\n"
	}
	return s
}

// AsError returns the bag as an error if non-empty, else nil. Callers
// typically do: if err := bag.AsError(); err != nil { return err }.
func (b *Bag) AsError() error {
	if b.Empty() {
		return nil
	}
	return b
}

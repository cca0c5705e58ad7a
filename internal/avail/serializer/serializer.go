// Package serializer implements the §6 serialized-module byte stream:
// every compiled zero-argument function and the module's final public-
// atom publication function, REZI-encoded in the order they were
// compiled, using dekarrin/rezi to persist the structured state.
package serializer

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// CompiledFunction is one REZI-encodable unit written to the module's
// serialization stream: a name, the printed phrase text of the statement
// (or publication) it stands for, and the globals it closes over, as
// built by cmd/availc's compile step.
type CompiledFunction struct {
	Name    string
	Literal []byte // printed phrase text, not bytecode
	Globals []string
}

// MarshalBinary implements rezi's binary-encoding contract for CompiledFunction.
func (f CompiledFunction) MarshalBinary() ([]byte, error) {
	return rezi.EncBinary(wireFunction{Name: f.Name, Literal: f.Literal, Globals: f.Globals}), nil
}

// UnmarshalBinary implements rezi's binary-decoding contract.
func (f *CompiledFunction) UnmarshalBinary(data []byte) error {
	var w wireFunction
	n, err := rezi.DecBinary(data, &w)
	if err != nil {
		return fmt.Errorf("rezi decode compiled function: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("rezi decoded byte count mismatch; consumed %d/%d bytes", n, len(data))
	}
	f.Name, f.Literal, f.Globals = w.Name, w.Literal, w.Globals
	return nil
}

type wireFunction struct {
	Name    string
	Literal []byte
	Globals []string
}

// Stream accumulates the sequence of compiled functions a module produces
// as its top-level statements commit (§4.8 step 4e), in the order they
// were compiled, plus the module's publication function appended last.
type Stream struct {
	functions []CompiledFunction
	published *CompiledFunction
}

// NewStream constructs an empty serialization stream for one module
// compilation transaction.
func NewStream() *Stream {
	return &Stream{}
}

// Append records a newly compiled zero-argument function at the end of
// the stream.
func (s *Stream) Append(fn CompiledFunction) {
	s.functions = append(s.functions, fn)
}

// Publish records the module's final public-atom publication function,
// always serialized last regardless of when it was compiled.
func (s *Stream) Publish(fn CompiledFunction) {
	s.published = &fn
}

// Bytes encodes the entire stream: each appended function's REZI
// encoding concatenated in order, followed by the publication function's
// encoding if one was set.
func (s *Stream) Bytes() ([]byte, error) {
	var out []byte
	for _, fn := range s.functions {
		b, err := fn.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode function %q: %w", fn.Name, err)
		}
		out = append(out, b...)
	}
	if s.published != nil {
		b, err := s.published.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode publication function: %w", err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Len returns the number of zero-argument functions recorded, not
// counting the publication function.
func (s *Stream) Len() int { return len(s.functions) }

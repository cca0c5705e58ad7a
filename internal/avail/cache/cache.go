// Package cache persists splitter programs across process runs, keyed by
// message name, using modernc.org/sqlite as a tiny hand-rolled table, no
// ORM. Only each program's instructions and argument count are stored;
// expression trees and bundle-tree expansions are not.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dekarrin/avail/internal/avail/splitter"
)

// Store is a persistent cache of compiled message-splitter programs.
// Callers Lookup and Store programs explicitly; the module compilation
// path in cmd/availc does not open or consult a Store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS splitter_cache (
			name       TEXT PRIMARY KEY,
			program    BLOB NOT NULL,
			arg_count  INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("init cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Lookup returns the cached program for name, if one is stored.
func (s *Store) Lookup(name string) (*splitter.Program, bool, error) {
	row := s.db.QueryRow(`SELECT program, arg_count FROM splitter_cache WHERE name = ?`, name)

	var encoded []byte
	var argCount int
	if err := row.Scan(&encoded, &argCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lookup %q: %w", name, err)
	}

	instrs, err := decodeInstructions(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached program for %q: %w", name, err)
	}
	return &splitter.Program{Instructions: instrs, ArgumentCount: argCount}, true, nil
}

// Store records name's compiled program, overwriting any previous entry.
func (s *Store) Store(name string, prog *splitter.Program) error {
	encoded := encodeInstructions(prog.Instructions)
	_, err := s.db.Exec(
		`INSERT INTO splitter_cache (name, program, arg_count) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET program = excluded.program, arg_count = excluded.arg_count`,
		name, encoded, prog.ArgumentCount,
	)
	if err != nil {
		return fmt.Errorf("store %q: %w", name, err)
	}
	return nil
}

// encodeInstructions serializes a parsing program's instructions to a
// compact binary form (four fixed-width integer fields and a
// length-prefixed keyword per instruction); kept local to this package rather than
// routed through internal/avail/serializer, since a splitter program is
// an internal compiler artifact, not part of a module's public
// serialization stream (§6).
func encodeInstructions(instrs []splitter.Instruction) []byte {
	out := make([]byte, 0, len(instrs)*24)
	for _, in := range instrs {
		out = appendInt(out, int(in.Op))
		out = appendInt(out, in.Target)
		out = appendInt(out, in.Operand)
		out = appendInt(out, int(in.Rule))
		out = appendString(out, in.Keyword)
	}
	return out
}

func decodeInstructions(data []byte) ([]splitter.Instruction, error) {
	var out []splitter.Instruction
	for len(data) > 0 {
		var op, target, operand, rule int
		var kw string
		var err error

		if op, data, err = readInt(data); err != nil {
			return nil, err
		}
		if target, data, err = readInt(data); err != nil {
			return nil, err
		}
		if operand, data, err = readInt(data); err != nil {
			return nil, err
		}
		if rule, data, err = readInt(data); err != nil {
			return nil, err
		}
		if kw, data, err = readString(data); err != nil {
			return nil, err
		}

		out = append(out, splitter.Instruction{
			Op:      splitter.Opcode(op),
			Target:  target,
			Operand: operand,
			Rule:    splitter.ConvertRule(rule),
			Keyword: kw,
		})
	}
	return out, nil
}

func appendInt(b []byte, v int) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func readInt(b []byte) (int, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("truncated cache entry")
	}
	v := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	return v, b[4:], nil
}

func appendString(b []byte, s string) []byte {
	b = appendInt(b, len(s))
	return append(b, s...)
}

func readString(b []byte) (string, []byte, error) {
	n, rest, err := readInt(b)
	if err != nil {
		return "", nil, err
	}
	if len(rest) < n {
		return "", nil, fmt.Errorf("truncated cache entry string")
	}
	return string(rest[:n]), rest[n:], nil
}

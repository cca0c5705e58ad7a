package bundle

import (
	"sync"

	"github.com/tidwall/btree"

	"github.com/dekarrin/avail/internal/avail/splitter"
)

// Plan pairs a bundle with a cursor: the one-based instruction index
// execution has reached within the bundle's parsing program (GLOSSARY).
type Plan struct {
	Bundle *Bundle
	Cursor int // one-based index into Bundle.Program.Instructions
}

// AtEnd reports whether this plan's cursor has run off the end of its
// program, meaning the bundle is complete at the node holding this plan.
func (p Plan) AtEnd() bool {
	return p.Cursor > len(p.Bundle.Program.Instructions)
}

// Instruction returns the instruction the plan's cursor currently points
// at. Callers must not call this when AtEnd is true.
func (p Plan) Instruction() splitter.Instruction {
	return p.Bundle.Program.Instructions[p.Cursor-1]
}

// Advance returns a copy of p with its cursor moved to the given one-based
// instruction index.
func (p Plan) Advance(to int) Plan {
	p.Cursor = to
	return p
}

// Tree is a lazily expanded prefix trie over every visible parsing
// program (§3, §4.3). A node is only expanded into its child maps on
// first access (Expand); expansion is idempotent.
type Tree struct {
	mu sync.Mutex

	pending []Plan // plans not yet folded into this node's maps
	expanded bool

	exact      *btree.Map[string, *Tree]
	caseFolded *btree.Map[string, *Tree]
	actions    map[splitter.Opcode][]*Tree
	actionPlans map[splitter.Opcode][]Plan // plans driving each action subtree, parallel to actions
	complete   *btree.Map[string, *Bundle]
	prefilter  *btree.Map[string, *Tree] // keyed by inner method name
}

// NewTree constructs an empty, unexpanded root node.
func NewTree() *Tree {
	return &Tree{
		exact:      &btree.Map[string, *Tree]{},
		caseFolded: &btree.Map[string, *Tree]{},
		actions:    make(map[splitter.Opcode][]*Tree),
		actionPlans: make(map[splitter.Opcode][]Plan),
		complete:   &btree.Map[string, *Bundle]{},
		prefilter:  &btree.Map[string, *Tree]{},
	}
}

// AddPlan registers a new plan (typically at cursor 1, a fresh bundle's
// entry point) to be folded in on the next Expand. The affected node is
// marked for re-expansion; Expand is always safe to call repeatedly.
func (t *Tree) AddPlan(p Plan) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, p)
	t.expanded = false
}

// Expand folds every pending plan into this node's per-edge maps: the
// exact and case-folded keyword maps, the action map (one entry per
// opcode, each a tuple of successor subtrees), and the complete-message
// map (§4.3). Expand does not touch the prefilter map; its entries come
// only from SetPrefilter.
// Expansion is idempotent: calling it twice with no new pending plans
// produces identical maps (§8 "Idempotence of bundle-tree expansion").
func (t *Tree) Expand() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expanded {
		return
	}

	for _, p := range t.pending {
		t.foldPlan(p)
	}
	t.pending = nil
	t.expanded = true
}

func (t *Tree) foldPlan(p Plan) {
	if p.AtEnd() {
		t.complete.Set(p.Bundle.Name, p.Bundle)
		return
	}

	in := p.Instruction()
	switch in.Op {
	case splitter.OpParsePart:
		child := t.childFor(t.exact, in.Keyword)
		child.AddPlan(p.Advance(p.Cursor + 1))

	case splitter.OpParsePartCaseInsensitive:
		child := t.childFor(t.caseFolded, in.Keyword)
		child.AddPlan(p.Advance(p.Cursor + 1))

	case splitter.OpJump:
		// Jump and Branch are zero-width epsilon transitions: they touch
		// no token and no per-parse data, so they are resolved once, here
		// at expansion time, exactly like an NFA's epsilon-closure
		// computation, rather than re-evaluated on every traversal.
		t.foldPlan(p.Advance(in.Target))

	case splitter.OpBranch:
		t.foldPlan(p.Advance(p.Cursor + 1))
		t.foldPlan(p.Advance(in.Target))

	default:
		t.addAction(in.Op, p)
	}
}

func (t *Tree) childFor(m *btree.Map[string, *Tree], key string) *Tree {
	if existing, ok := m.Get(key); ok {
		return existing
	}
	child := NewTree()
	m.Set(key, child)
	return child
}

func (t *Tree) addAction(op splitter.Opcode, p Plan) {
	// Each plan at a non-keyword instruction gets its own successor
	// subtree; the action map's value is a slice of these, since multiple
	// plans can share the same opcode at this node.
	child := NewTree()
	t.actions[op] = append(t.actions[op], child)
	t.actionPlans[op] = append(t.actionPlans[op], p)
	child.AddPlan(p.Advance(p.Cursor + 1))
}

// ExactEdge returns the child reachable by consuming keyword as an exact
// match, if any. Callers should Expand before calling this.
func (t *Tree) ExactEdge(keyword string) (*Tree, bool) {
	return t.exact.Get(keyword)
}

// CaseFoldedEdge returns the child reachable by consuming keyword
// case-insensitively, if any.
func (t *Tree) CaseFoldedEdge(keyword string) (*Tree, bool) {
	return t.caseFolded.Get(keyword)
}

// ExpectedKeywords returns every exact-edge keyword at this node in
// lexical order, followed by every case-folded-edge keyword in lexical
// order (the ordered btree.Map backing this node
// makes that order free rather than requiring a sort at error-reporting
// time, per the DOMAIN STACK rationale for adopting it).
func (t *Tree) ExpectedKeywords() []string {
	var out []string
	t.exact.Scan(func(k string, _ *Tree) bool {
		out = append(out, k)
		return true
	})
	t.caseFolded.Scan(func(k string, _ *Tree) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Actions returns the successor subtrees and their driving plans for the
// given opcode.
func (t *Tree) Actions(op splitter.Opcode) ([]*Tree, []Plan) {
	return t.actions[op], t.actionPlans[op]
}

// AllActionOpcodes returns every opcode that has at least one action
// subtree at this node.
func (t *Tree) AllActionOpcodes() []splitter.Opcode {
	out := make([]splitter.Opcode, 0, len(t.actions))
	for op := range t.actions {
		out = append(out, op)
	}
	return out
}

// CompleteMessages returns every bundle whose program is fully consumed
// at this node.
func (t *Tree) CompleteMessages() []*Bundle {
	var out []*Bundle
	t.complete.Scan(func(_ string, b *Bundle) bool {
		out = append(out, b)
		return true
	})
	return out
}

// Prefilter returns the child reached by enforcing a grammatical
// restriction for the given inner method, if this node has one. When
// present, the engine descends only via this edge rather than evaluating
// normal actions (§4.5 rule 4).
func (t *Tree) Prefilter(innerMethod string) (*Tree, bool) {
	return t.prefilter.Get(innerMethod)
}

// SetPrefilter installs (or replaces) the prefilter child for innerMethod.
// No caller in the compiler installs prefilter entries, so grammatical
// restrictions are not propagated into the tree and Prefilter finds none
// during parsing.
func (t *Tree) SetPrefilter(innerMethod string, child *Tree) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefilter.Set(innerMethod, child)
}

// HasPrefilter reports whether any prefilter entries exist at this node.
func (t *Tree) HasPrefilter() bool {
	return t.prefilter.Len() > 0
}

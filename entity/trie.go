package entity

// node is one state in the Aho-Corasick automaton. Nodes live in a flat
// arena (Matcher.nodes) and refer to each other by index, since failure
// links are non-owning references that must stay valid regardless of how
// the arena's backing slice is reallocated during Compile.
type node struct {
	children    map[rune]int32
	fail        int32
	terminal    bool
	replacement string
}

const rootIndex int32 = 0

func newNode() node {
	return node{children: make(map[rune]int32), fail: rootIndex}
}

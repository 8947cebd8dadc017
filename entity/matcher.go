// Package entity implements an Aho-Corasick multi-pattern matcher used to
// decode the fixed dictionary of HTML entities gorushi's tree builder
// understands, in one linear pass over arbitrary text.
package entity

import (
	"strings"

	"github.com/kojima/gorushi"
)

// Matcher is a compiled Aho-Corasick automaton over a fixed pattern set.
// It is built once (AddPattern, then Compile) and is read-only and safe
// for concurrent use by any number of goroutines thereafter.
type Matcher struct {
	nodes    []node
	compiled bool
}

// NewMatcher returns an empty, uncompiled Matcher.
func NewMatcher() *Matcher {
	m := &Matcher{nodes: make([]node, 1)}
	m.nodes[0] = newNode()
	return m
}

// NewDefaultMatcher returns a Matcher compiled with gorushi's fixed set of
// HTML entities: &amp;, &lt;, &gt;, &quot;, &apos;, and &#39;.
func NewDefaultMatcher() *Matcher {
	m := NewMatcher()
	m.AddPattern("&amp;", "&")
	m.AddPattern("&lt;", "<")
	m.AddPattern("&gt;", ">")
	m.AddPattern("&quot;", `"`)
	m.AddPattern("&apos;", "'")
	m.AddPattern("&#39;", "'")
	m.Compile()
	return m
}

// AddPattern inserts pattern as a path in the trie and marks its terminal
// node with replacement. Must be called before Compile.
func (m *Matcher) AddPattern(pattern, replacement string) {
	cur := rootIndex
	for _, c := range pattern {
		next, ok := m.nodes[cur].children[c]
		if !ok {
			m.nodes = append(m.nodes, newNode())
			next = int32(len(m.nodes) - 1)
			m.nodes[cur].children[c] = next
		}
		cur = next
	}
	m.nodes[cur].terminal = true
	m.nodes[cur].replacement = replacement
}

// Compile computes failure links by breadth-first traversal and propagates
// terminal/replacement state across suffix links, so that a pattern which
// is a suffix of another is still recognized. Compile must run before
// ReplaceAll and must not be called more than once.
func (m *Matcher) Compile() {
	var queue []int32
	root := &m.nodes[rootIndex]
	for c, child := range root.children {
		m.nodes[child].fail = rootIndex
		queue = append(queue, child)
		_ = c
	}

	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		for c, child := range m.nodes[cur].children {
			queue = append(queue, child)
			fail := m.nodes[cur].fail
			for fail != rootIndex {
				if next, ok := m.nodes[fail].children[c]; ok {
					fail = next
					break
				}
				fail = m.nodes[fail].fail
			}
			if fail == rootIndex {
				if next, ok := m.nodes[rootIndex].children[c]; ok && next != child {
					fail = next
				}
			}
			m.nodes[child].fail = fail

			if flink := m.nodes[fail]; flink.terminal && !m.nodes[child].terminal {
				m.nodes[child].terminal = true
				m.nodes[child].replacement = flink.replacement
			}
		}
	}

	m.compiled = true
}

// ReplaceAll scans text once, left to right, replacing every match of the
// compiled pattern set with its associated replacement. It runs in
// O(len(text) + Σ len(pattern)) time and fails with ErrNotCompiled if
// Compile has not yet been called.
func (m *Matcher) ReplaceAll(text string) (string, error) {
	if !m.compiled {
		return "", &gorushi.Error{Op: "entity.Matcher.ReplaceAll", Kind: gorushi.ErrNotCompiled}
	}

	var out strings.Builder
	out.Grow(len(text))
	cur := rootIndex

	for _, c := range text {
		for cur != rootIndex {
			if _, ok := m.nodes[cur].children[c]; ok {
				break
			}
			cur = m.nodes[cur].fail
		}
		if next, ok := m.nodes[cur].children[c]; ok {
			cur = next
		} else {
			out.WriteRune(c)
			cur = rootIndex
			continue
		}
		if m.nodes[cur].terminal {
			out.WriteString(m.nodes[cur].replacement)
			cur = rootIndex
		}
	}

	return out.String(), nil
}

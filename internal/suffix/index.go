// Package suffix implements a domain-suffix index: a trie keyed by domain
// labels, walked from the top-level domain downwards, answering "is this
// hostname equal to or a subdomain of any registered domain".
package suffix

import (
	"sort"
	"strings"
)

const root = 0

// node is either internal (children != nil) or terminal (children == nil).
// A terminal node covers every label below it.
type node struct {
	children map[string]int
}

func (n *node) terminal() bool {
	return n.children == nil
}

// Index stores nodes in an arena and links them by position, so a built
// index can be handed to any number of readers without copying or locking.
//
// Insert must not be called concurrently with anything else. Once built,
// Matches, Count and Domains are safe for concurrent use.
type Index struct {
	nodes []node
}

// New returns an empty index that matches nothing.
func New() *Index {
	return &Index{
		nodes: []node{{children: make(map[string]int)}},
	}
}

// FromDomains builds an index from a list of domains.
func FromDomains(domains ...string) *Index {
	idx := New()
	for _, d := range domains {
		idx.Insert(d)
	}
	return idx
}

// labels normalises a hostname and returns its labels in reverse order
// (top-level domain first). It returns nil for the empty name or a name
// containing an empty label.
func labels(domain string) []string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return nil
	}

	parts := strings.Split(domain, ".")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return parts
}

// Insert registers domain and all of its subdomains. Inserting a parent of
// an already registered domain prunes the deeper entries; inserting a
// subdomain of a registered domain is a no-op.
func (idx *Index) Insert(domain string) {
	parts := labels(domain)
	if parts == nil {
		return
	}

	cur := root
	for _, label := range parts {
		n := &idx.nodes[cur]
		if n.terminal() {
			return
		}
		next, ok := n.children[label]
		if !ok {
			next = len(idx.nodes)
			idx.nodes = append(idx.nodes, node{children: make(map[string]int)})
			// append may have moved the arena
			idx.nodes[cur].children[label] = next
		}
		cur = next
	}

	// Pruned descendants stay in the arena but are no longer reachable.
	idx.nodes[cur].children = nil
}

// Matches reports whether domain is a registered domain or a subdomain of one.
func (idx *Index) Matches(domain string) bool {
	parts := labels(domain)
	if parts == nil {
		return false
	}

	cur := root
	for _, label := range parts {
		n := &idx.nodes[cur]
		if n.terminal() {
			return true
		}
		next, ok := n.children[label]
		if !ok {
			return false
		}
		cur = next
	}
	return idx.nodes[cur].terminal()
}

// Count returns the number of distinct, non-redundant registered domains.
func (idx *Index) Count() int {
	count := 0
	stack := []int{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &idx.nodes[cur]
		if n.terminal() {
			count++
			continue
		}
		for _, child := range n.children {
			stack = append(stack, child)
		}
	}
	return count
}

// Domains returns the registered domains in lexical order.
func (idx *Index) Domains() []string {
	var out []string
	var walk func(cur int, path []string)
	walk = func(cur int, path []string) {
		n := &idx.nodes[cur]
		if n.terminal() {
			name := make([]string, len(path))
			for i, label := range path {
				name[len(path)-1-i] = label
			}
			out = append(out, strings.Join(name, "."))
			return
		}
		for label, child := range n.children {
			walk(child, append(path, label))
		}
	}
	walk(root, nil)

	sort.Strings(out)
	return out
}

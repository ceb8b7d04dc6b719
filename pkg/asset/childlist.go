package asset

import "fmt"

// ChildList is an insertion-ordered collection of composite children keyed
// by name. Order and lookup are backed by the same structure, so the
// ordered name sequence and the name->child mapping cannot diverge.
type ChildList struct {
	names   []string
	entries map[string]*Child
}

// Add appends a child, keyed by its name. Adding a second child with the
// same name is an error.
func (l *ChildList) Add(c *Child) error {
	if l.entries == nil {
		l.entries = make(map[string]*Child)
	}
	if _, exists := l.entries[c.Name]; exists {
		return fmt.Errorf("duplicate child %q", c.Name)
	}
	l.names = append(l.names, c.Name)
	l.entries[c.Name] = c
	return nil
}

// Get returns the child with the given name.
func (l *ChildList) Get(name string) (*Child, bool) {
	c, ok := l.entries[name]
	return c, ok
}

// At returns the child at position i in insertion order.
func (l *ChildList) At(i int) *Child {
	return l.entries[l.names[i]]
}

// Names returns the child names in insertion order.
func (l *ChildList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of children.
func (l *ChildList) Len() int {
	return len(l.names)
}

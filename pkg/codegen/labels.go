package codegen

import "fmt"

// Labels hands out fresh assembly label names, unique within one Labels
// value (each Generator owns its own, starting from zero). The source
// this compiler was distilled from keeps this counter as a static/global —
// SPEC_FULL.md §9 calls that out as a redesign: tests need a deterministic,
// resettable counter, so here it is explicit state owned by a Generator
// rather than a package-level variable.
type Labels struct {
	prefix  string
	counter int
}

// NewLabels returns a counter starting at zero, minting names "<prefix>N".
func NewLabels(prefix string) *Labels { return &Labels{prefix: prefix} }

// Next returns a fresh label built from tag (e.g. "else", "end") and
// advances the counter, guaranteeing no two calls ever return the same
// name for the lifetime of this Labels value.
func (l *Labels) Next(tag string) string {
	name := fmt.Sprintf("%s%s%d", l.prefix, tag, l.counter)
	l.counter++
	return name
}

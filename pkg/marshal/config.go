package marshal

import (
	"maps"
	"slices"

	"github.com/matzehuels/qtikit/pkg/qti"
)

type ruleMode int

const (
	ruleNone ruleMode = iota
	ruleAllNodes
	ruleAllElements
	ruleKinds
)

// ChildRule decides which children of a non-final kind take part in
// recursion. The zero value accepts no children.
type ChildRule struct {
	mode  ruleMode
	kinds map[string]bool
}

// AllNodes accepts every child, text included.
func AllNodes() ChildRule { return ChildRule{mode: ruleAllNodes} }

// AllElements accepts every element child and drops text.
func AllElements() ChildRule { return ChildRule{mode: ruleAllElements} }

// OnlyKinds accepts element children with the given kind tags.
func OnlyKinds(kinds ...string) ChildRule {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return ChildRule{mode: ruleKinds, kinds: m}
}

func (r ChildRule) acceptsText() bool { return r.mode == ruleAllNodes }

func (r ChildRule) accepts(kind string) bool {
	switch r.mode {
	case ruleAllNodes, ruleAllElements:
		return true
	case ruleKinds:
		return r.kinds[kind]
	}
	return false
}

// Config is the immutable resolution data shared by a Factory and its
// marshallers: vocabularies in lookup order, the finality set and the
// child-extraction rules. Build it with DefaultConfig or NewConfig.
type Config struct {
	vocabularies []*qti.Vocabulary
	finals       map[string]bool
	rules        map[string]ChildRule
}

// Option customises a Config.
type Option func(*Config)

// WithVocabularies replaces the vocabulary search order.
func WithVocabularies(vs ...*qti.Vocabulary) Option {
	return func(c *Config) { c.vocabularies = slices.Clone(vs) }
}

// WithFinals adds kinds to the finality set.
func WithFinals(kinds ...string) Option {
	return func(c *Config) {
		for _, k := range kinds {
			c.finals[k] = true
		}
	}
}

// WithoutFinals removes kinds from the finality set.
func WithoutFinals(kinds ...string) Option {
	return func(c *Config) {
		for _, k := range kinds {
			delete(c.finals, k)
		}
	}
}

// WithRule sets the child rule of a kind.
func WithRule(kind string, r ChildRule) Option {
	return func(c *Config) { c.rules[kind] = r }
}

// NewConfig starts from the default configuration and applies opts.
func NewConfig(opts ...Option) *Config {
	d := DefaultConfig()
	c := &Config{
		vocabularies: slices.Clone(d.vocabularies),
		finals:       maps.Clone(d.finals),
		rules:        maps.Clone(d.rules),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultConfig = buildDefaultConfig()

// DefaultConfig returns the shared default configuration.
func DefaultConfig() *Config { return defaultConfig }

func buildDefaultConfig() *Config {
	c := &Config{
		vocabularies: qti.Vocabularies(),
		finals:       make(map[string]bool),
		rules:        make(map[string]ChildRule),
	}
	for _, k := range qti.FinalKinds() {
		c.finals[k] = true
	}

	simple := []string{
		"a", "q", "feedbackInline", "td", "th", "object", "caption", "li", "dd", "dt",
		"div", "simpleChoice", "simpleAssociableChoice", "inlineChoice", "prompt", "modalFeedback",
	}
	simple = append(simple, qti.InlineKinds...)
	simple = append(simple, qti.AtomicBlockKinds...)
	for _, k := range simple {
		c.rules[k] = AllNodes()
	}

	c.rules["choiceInteraction"] = OnlyKinds("prompt", "simpleChoice")
	c.rules["orderInteraction"] = OnlyKinds("prompt", "simpleChoice")
	c.rules["associateInteraction"] = OnlyKinds("prompt", "simpleAssociableChoice")
	c.rules["matchInteraction"] = OnlyKinds("prompt", "simpleMatchSet")
	c.rules["simpleMatchSet"] = OnlyKinds("simpleAssociableChoice")
	c.rules["tr"] = OnlyKinds("td", "th")
	c.rules["ul"] = OnlyKinds("li")
	c.rules["ol"] = OnlyKinds("li")
	c.rules["dl"] = OnlyKinds("dd", "dt")

	structural := []string{
		"itemBody", "blockquote", "assessmentItem", "mapping", "responseProcessing",
		"responseCondition", "responseIf", "responseElseIf", "responseElse", "setOutcomeValue",
	}
	structural = append(structural, qti.OperatorKinds()...)
	for _, k := range structural {
		c.rules[k] = AllElements()
	}
	return c
}

// IsFinal reports whether kind is in the finality set.
func (c *Config) IsFinal(kind string) bool { return kind == "textRun" || c.finals[kind] }

// Rule returns the child rule of kind; unknown kinds get no children.
func (c *Config) Rule(kind string) ChildRule { return c.rules[kind] }

// Vocabularies returns the vocabulary search order.
func (c *Config) Vocabularies() []*qti.Vocabulary { return slices.Clone(c.vocabularies) }

// newComponent creates a component for kind from the first vocabulary that
// knows it.
func (c *Config) newComponent(kind string) (qti.Component, bool) {
	for _, v := range c.vocabularies {
		if comp, ok := v.New(kind); ok {
			return comp, true
		}
	}
	return nil, false
}

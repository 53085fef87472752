package relex

import (
	"fmt"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const defaultVariablePrefix = "$"

// Builder turns a parsed sentence into a Formula.
type Builder struct {
	variablePrefix string
}

type BuilderOption func(*Builder)

// WithVariablePrefix sets the prefix of generated variable names.
func WithVariablePrefix(prefix string) BuilderOption {
	return func(b *Builder) {
		b.variablePrefix = prefix
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{variablePrefix: defaultVariablePrefix}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// VariableName returns the i-th variable name: A..Z, then A1..Z1 and so on.
func VariableName(prefix string, i int) string {
	name := prefix + string(rune('A'+i%26))
	if round := i / 26; round > 0 {
		name += strconv.Itoa(round)
	}
	return name
}

// Build creates one argument per word node in order of first use and one
// predicate per binary relation.
func (b *Builder) Build(sentence *Sentence) (*Formula, error) {
	if sentence == nil {
		return nil, fmt.Errorf("sentence is nil")
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID for formula: %w", err)
	}

	f := &Formula{
		ID:         id,
		Predicates: make([]*Predicate, 0, len(sentence.Relations)),
		Arguments:  make([]*Argument, 0),
	}

	args := make(map[*FeatureNode]*Argument)
	argument := func(node *FeatureNode) *Argument {
		if a, ok := args[node]; ok {
			return a
		}
		a := NewArgument(node, VariableName(b.variablePrefix, len(f.Arguments)))
		args[node] = a
		f.Arguments = append(f.Arguments, a)
		return a
	}

	for _, rel := range sentence.Relations {
		head := argument(rel.Head)
		dep := argument(rel.Dependent)
		f.Predicates = append(f.Predicates, NewPredicate(rel.Name, head, dep))
	}

	return f, nil
}

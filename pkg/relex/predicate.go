package relex

import "fmt"

// Predicate is a binary RelEx relation such as _subj(eat, cat) between two
// arguments of a formula.
type Predicate struct {
	Name   string
	First  *Argument
	Second *Argument
}

// NewPredicate creates the relation and registers it on both arguments.
func NewPredicate(name string, first, second *Argument) *Predicate {
	p := &Predicate{
		Name:   name,
		First:  first,
		Second: second,
	}
	first.AddRelation(p)
	second.AddRelation(p)
	return p
}

// String renders the relation with word names, e.g. "_subj(eat, cat)".
func (p *Predicate) String() string {
	return fmt.Sprintf("%s(%s, %s)", p.Name, p.First.Name(), p.Second.Name())
}

// VariableString renders the relation with variable names, e.g.
// "_subj($A, $B)".
func (p *Predicate) VariableString() string {
	return fmt.Sprintf("%s(%s, %s)", p.Name, p.First.VariableName(), p.Second.VariableName())
}

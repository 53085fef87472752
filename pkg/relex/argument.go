package relex

import (
	"github.com/opencog/question2atomese/pkg/logger"
)

// PlaceholderName is returned by Argument.Name when the feature node is not
// a word node. Downstream code compares against it to skip unnamed
// arguments.
const PlaceholderName = "XXXX"

// Argument is a word of a parsed sentence used as an argument of one or
// more relations. It carries the variable name that represents the word in
// generated Atomese.
//
// The feature node is borrowed from the parse and never modified. The
// relation list only grows and its length is the usage count.
type Argument struct {
	featureNode  *FeatureNode
	variableName string
	relations    []*Predicate
}

// NewArgument creates an argument for node represented by variableName.
// Both values are stored as given.
func NewArgument(node *FeatureNode, variableName string) *Argument {
	return &Argument{
		featureNode:  node,
		variableName: variableName,
		relations:    make([]*Predicate, 0),
	}
}

func (a *Argument) VariableName() string {
	return a.variableName
}

// LookupName returns the word name of the argument and false if the feature
// node has no usable name.
func (a *Argument) LookupName() (string, bool) {
	name, err := FeatureNodeName(a.featureNode)
	if err != nil {
		logger.Debug("[Relex] Argument has no name", "variable", a.variableName, "err", err)
		return "", false
	}
	return name, true
}

// Name returns the word name of the argument, or PlaceholderName when the
// feature node has an unexpected shape. It never fails.
func (a *Argument) Name() string {
	name, ok := a.LookupName()
	if !ok {
		return PlaceholderName
	}
	return name
}

// FeatureNode returns the node the argument was created with.
func (a *Argument) FeatureNode() *FeatureNode {
	return a.featureNode
}

func (a *Argument) String() string {
	return a.Name()
}

// UsageCount returns the number of relations added to the argument.
func (a *Argument) UsageCount() int {
	return len(a.relations)
}

// AddRelation records that relation uses the argument. The same relation
// may be added more than once.
func (a *Argument) AddRelation(relation *Predicate) {
	a.relations = append(a.relations, relation)
}

// Relations returns the recorded relations in insertion order.
func (a *Argument) Relations() []*Predicate {
	out := make([]*Predicate, len(a.relations))
	copy(out, a.relations)
	return out
}

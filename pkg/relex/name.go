package relex

import (
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a feature node does not have the
// structure of a RelEx word node.
var ErrUnexpectedShape = errors.New("unexpected feature node shape")

// FeatureNodeName returns the value of the "name" feature of a word node.
func FeatureNodeName(node *FeatureNode) (string, error) {
	if node == nil {
		return "", fmt.Errorf("%w: nil node", ErrUnexpectedShape)
	}
	if node.IsValued() {
		return "", fmt.Errorf("%w: valued node has no features", ErrUnexpectedShape)
	}

	nameNode := node.Get(NameFeature)
	if nameNode == nil {
		return "", fmt.Errorf("%w: missing name feature", ErrUnexpectedShape)
	}
	name, ok := nameNode.Value()
	if !ok {
		return "", fmt.Errorf("%w: name feature is not valued", ErrUnexpectedShape)
	}

	return name, nil
}

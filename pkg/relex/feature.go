package relex

// FeatureNode is a node of a RelEx feature structure. A node is either
// valued, holding a single string such as a lemma or a tense, or featured,
// holding named child nodes. Word nodes produced by the parser are featured
// nodes with at least a "name" feature.
//
// Nodes are owned by whoever parsed the sentence. Arguments and relations
// only keep pointers to them.
type FeatureNode struct {
	value    *string
	features map[string]*FeatureNode
	order    []string
}

// NameFeature is the feature holding the word name of a word node.
const NameFeature = "name"

// NewValueNode returns a valued node holding v.
func NewValueNode(v string) *FeatureNode {
	return &FeatureNode{value: &v}
}

// NewFeatureNode returns an empty featured node.
func NewFeatureNode() *FeatureNode {
	return &FeatureNode{features: make(map[string]*FeatureNode)}
}

// NewWordNode returns a featured node whose "name" feature is set to name.
func NewWordNode(name string) *FeatureNode {
	n := NewFeatureNode()
	n.SetValue(NameFeature, name)
	return n
}

// IsValued reports whether the node holds a string value.
func (n *FeatureNode) IsValued() bool {
	return n != nil && n.value != nil
}

// Value returns the string held by a valued node.
func (n *FeatureNode) Value() (string, bool) {
	if !n.IsValued() {
		return "", false
	}
	return *n.value, true
}

// Set attaches child under name, replacing any previous child. Setting a
// feature on a valued node is a no-op.
func (n *FeatureNode) Set(name string, child *FeatureNode) {
	if n == nil || n.value != nil {
		return
	}
	if n.features == nil {
		n.features = make(map[string]*FeatureNode)
	}
	if _, ok := n.features[name]; !ok {
		n.order = append(n.order, name)
	}
	n.features[name] = child
}

func (n *FeatureNode) SetValue(name string, v string) {
	n.Set(name, NewValueNode(v))
}

// Get returns the child stored under name or nil.
func (n *FeatureNode) Get(name string) *FeatureNode {
	if n == nil || n.features == nil {
		return nil
	}
	return n.features[name]
}

// GetValue returns the value of a valued child.
func (n *FeatureNode) GetValue(name string) (string, bool) {
	return n.Get(name).Value()
}

// FeatureNames returns feature names in insertion order.
func (n *FeatureNode) FeatureNames() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

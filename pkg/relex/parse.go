package relex

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedRelation is returned for lines of RelEx output that are not
// of the form name(head, dependent).
var ErrMalformedRelation = errors.New("malformed relation")

var reRelation = regexp.MustCompile(`^([^\s(]+)\(\s*([^,]+?)\s*,\s*(.+?)\s*\)$`)

// Relation is a binary dependency relation between two word nodes.
type Relation struct {
	Name      string
	Head      *FeatureNode
	Dependent *FeatureNode
}

// Sentence is the parsed RelEx output of one sentence. Words are identified
// by their name; all relations mentioning the same name share one node.
type Sentence struct {
	Relations []Relation
	words     map[string]*FeatureNode
	order     []string
}

func newSentence() *Sentence {
	return &Sentence{words: make(map[string]*FeatureNode)}
}

func (s *Sentence) word(name string) *FeatureNode {
	if n, ok := s.words[name]; ok {
		return n
	}
	n := NewWordNode(name)
	s.words[name] = n
	s.order = append(s.order, name)
	return n
}

// Word returns the node for name or nil.
func (s *Sentence) Word(name string) *FeatureNode {
	return s.words[name]
}

// Words returns the word nodes in order of first appearance.
func (s *Sentence) Words() []*FeatureNode {
	out := make([]*FeatureNode, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.words[name])
	}
	return out
}

// ParseRelations parses the relation section of RelEx output, one relation
// per line:
//
//	_subj(eat, cat)
//	_obj(eat, fish)
//	tense(eat, present)
//
// Relations named in attributes are stored as a feature of the head word
// instead of becoming binary relations. NameFeature is reserved for the word
// name and never treated as an attribute. Blank lines and lines starting
// with ';' or '#' are skipped.
func ParseRelations(text string, attributes []string) (*Sentence, error) {
	attrs := make(map[string]struct{}, len(attributes))
	for _, a := range attributes {
		if a == NameFeature {
			continue
		}
		attrs[a] = struct{}{}
	}

	s := newSentence()
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		m := reRelation.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedRelation, lineNo, line)
		}
		name, head, dep := m[1], m[2], m[3]

		if _, ok := attrs[name]; ok {
			s.word(head).SetValue(name, dep)
			continue
		}

		s.Relations = append(s.Relations, Relation{
			Name:      name,
			Head:      s.word(head),
			Dependent: s.word(dep),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relations: %w", err)
	}

	return s, nil
}

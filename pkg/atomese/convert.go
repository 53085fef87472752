package atomese

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opencog/question2atomese/pkg/relex"
)

// ErrEmptyFormula is returned when no predicate is left to convert.
var ErrEmptyFormula = errors.New("formula has no convertible predicates")

const (
	TypeYesNo = "yes/no"
	TypeOther = "other"
)

// Query is the Atomese rendering of a question formula.
type Query struct {
	Type      string   `json:"type"`
	Scheme    string   `json:"scheme"`
	Variables []string `json:"variables"`
}

// QuestionType classifies a formula. Truth queries are "yes/no", other
// questions use their QUERY-TYPE ("what", "how", ...) and fall back to
// "other".
func QuestionType(f *relex.Formula, cfg *Config) string {
	for _, a := range f.Arguments {
		if flag, _ := a.FeatureNode().GetValue("TRUTH-QUERY-FLAG"); flag == "T" {
			return TypeYesNo
		}
	}

	if a := f.ArgumentByName(cfg.QueryVariable); a != nil {
		if qt, ok := a.FeatureNode().GetValue("QUERY-TYPE"); ok && qt != "" {
			return qt
		}
	}
	for _, a := range f.Arguments {
		if qt, ok := a.FeatureNode().GetValue("QUERY-TYPE"); ok && qt != "" {
			return qt
		}
	}

	return TypeOther
}

// Convert renders f as a pattern matcher query. Every argument used by a
// kept predicate becomes a variable, named arguments other than the query
// variable are constrained by an InheritanceLink to their word concept.
// Yes/no questions become a SatisfactionLink, all others a GetLink.
func Convert(f *relex.Formula, cfg *Config) (*Query, error) {
	if f == nil {
		return nil, ErrEmptyFormula
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	preds := make([]*relex.Predicate, 0, len(f.Predicates))
	used := make(map[*relex.Argument]struct{})
	for _, p := range f.Predicates {
		if cfg.IsIgnored(p.Name) {
			continue
		}
		preds = append(preds, p)
		used[p.First] = struct{}{}
		used[p.Second] = struct{}{}
	}
	if len(preds) == 0 {
		return nil, ErrEmptyFormula
	}

	vars := make([]*relex.Argument, 0, len(used))
	for _, a := range f.Arguments {
		if _, ok := used[a]; ok {
			vars = append(vars, a)
		}
	}

	var clauses []string
	for _, a := range vars {
		name := a.Name()
		if name == relex.PlaceholderName || name == cfg.QueryVariable {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(
			"(InheritanceLink %s (ConceptNode %s))",
			variableNode(a), quote(name),
		))
	}
	for _, p := range preds {
		clauses = append(clauses, fmt.Sprintf(
			"(EvaluationLink (PredicateNode %s) (ListLink %s %s))",
			quote(cfg.PredicateName(p.Name)), variableNode(p.First), variableNode(p.Second),
		))
	}

	qType := QuestionType(f, cfg)
	link := "GetLink"
	if qType == TypeYesNo {
		link = "SatisfactionLink"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(%s\n", link)
	b.WriteString("  (VariableList\n")
	names := make([]string, 0, len(vars))
	for _, a := range vars {
		names = append(names, a.VariableName())
		if link == "GetLink" {
			fmt.Fprintf(&b, "    (TypedVariableLink %s (TypeNode \"ConceptNode\"))\n", variableNode(a))
		} else {
			fmt.Fprintf(&b, "    %s\n", variableNode(a))
		}
	}
	b.WriteString("  )\n")
	b.WriteString("  (AndLink\n")
	for _, c := range clauses {
		fmt.Fprintf(&b, "    %s\n", c)
	}
	b.WriteString("  )\n")
	b.WriteString(")")

	return &Query{
		Type:      qType,
		Scheme:    b.String(),
		Variables: names,
	}, nil
}

func variableNode(a *relex.Argument) string {
	return fmt.Sprintf("(VariableNode %s)", quote(a.VariableName()))
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

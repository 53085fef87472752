package relex

import (
	"fmt"
	"sort"
	"strings"
)

// Formula is the set of relations of one sentence expressed over
// arguments. It is the intermediate form between RelEx output and Atomese.
type Formula struct {
	ID         string
	Predicates []*Predicate
	Arguments  []*Argument
}

// String renders all predicates with word names, separated by ';'.
func (f *Formula) String() string {
	parts := make([]string, 0, len(f.Predicates))
	for _, p := range f.Predicates {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ";")
}

// Shape renders the formula with canonical variable names so that
// sentences with the same structure but different words produce the same
// string, e.g. "_obj($A, $B);_subj($A, $C)". The result does not depend on
// the order of the relations.
//
// Arguments are ordered by a colour refined from the relations they take
// part in. Arguments that keep the same colour are tried in every order and
// the smallest rendering wins, up to maxShapeOrderings orderings.
func (f *Formula) Shape() string {
	args := shapeArguments(f.Predicates)
	colour := refineColours(f.Predicates, args)
	sort.SliceStable(args, func(i, j int) bool {
		return colour[args[i]] < colour[args[j]]
	})

	var groups [][2]int
	for i := 0; i < len(args); {
		j := i + 1
		for j < len(args) && colour[args[j]] == colour[args[i]] {
			j++
		}
		if j-i > 1 {
			groups = append(groups, [2]int{i, j})
		}
		i = j
	}

	best := ""
	seen := 0
	permuteGroups(args, groups, 0, func() bool {
		if s := renderShape(f.Predicates, args); seen == 0 || s < best {
			best = s
		}
		seen++
		return seen < maxShapeOrderings
	})
	return best
}

const maxShapeOrderings = 40320

// shapeArguments returns the arguments used by preds in first-use order.
func shapeArguments(preds []*Predicate) []*Argument {
	seen := make(map[*Argument]struct{})
	var out []*Argument
	for _, p := range preds {
		for _, a := range []*Argument{p.First, p.Second} {
			if _, ok := seen[a]; !ok {
				seen[a] = struct{}{}
				out = append(out, a)
			}
		}
	}
	return out
}

// refineColours assigns every argument a rank computed from the names and
// positions of its relations and the ranks of its neighbours, repeated
// until the partition stops changing.
func refineColours(preds []*Predicate, args []*Argument) map[*Argument]int {
	colour := make(map[*Argument]int, len(args))
	classes := 1
	for range len(args) + 1 {
		sigs := make(map[*Argument][]string, len(args))
		for _, p := range preds {
			sigs[p.First] = append(sigs[p.First], fmt.Sprintf("%s:0:%d", p.Name, colour[p.Second]))
			sigs[p.Second] = append(sigs[p.Second], fmt.Sprintf("%s:1:%d", p.Name, colour[p.First]))
		}

		signature := make(map[*Argument]string, len(args))
		distinct := make(map[string]struct{})
		for _, a := range args {
			entries := sigs[a]
			sort.Strings(entries)
			sig := fmt.Sprintf("%d|%s", colour[a], strings.Join(entries, ","))
			signature[a] = sig
			distinct[sig] = struct{}{}
		}

		ordered := make([]string, 0, len(distinct))
		for sig := range distinct {
			ordered = append(ordered, sig)
		}
		sort.Strings(ordered)
		rank := make(map[string]int, len(ordered))
		for i, sig := range ordered {
			rank[sig] = i
		}
		for _, a := range args {
			colour[a] = rank[signature[a]]
		}

		if len(ordered) == classes {
			break
		}
		classes = len(ordered)
	}
	return colour
}

// permuteGroups calls visit for every ordering of the index ranges in
// groups. It stops as soon as visit returns false.
func permuteGroups(args []*Argument, groups [][2]int, gi int, visit func() bool) bool {
	if gi == len(groups) {
		return visit()
	}
	end := groups[gi][1]
	var permute func(k int) bool
	permute = func(k int) bool {
		if k == end {
			return permuteGroups(args, groups, gi+1, visit)
		}
		for i := k; i < end; i++ {
			args[k], args[i] = args[i], args[k]
			ok := permute(k + 1)
			args[k], args[i] = args[i], args[k]
			if !ok {
				return false
			}
		}
		return true
	}
	return permute(groups[gi][0])
}

func renderShape(preds []*Predicate, order []*Argument) string {
	index := make(map[*Argument]int, len(order))
	for i, a := range order {
		index[a] = i
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, fmt.Sprintf("%s(%s, %s)", p.Name,
			VariableName(defaultVariablePrefix, index[p.First]),
			VariableName(defaultVariablePrefix, index[p.Second])))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Argument returns the argument with the given variable name or nil.
func (f *Formula) Argument(variableName string) *Argument {
	for _, a := range f.Arguments {
		if a.VariableName() == variableName {
			return a
		}
	}
	return nil
}

// ArgumentByName returns the first argument whose word name is name.
func (f *Formula) ArgumentByName(name string) *Argument {
	for _, a := range f.Arguments {
		if n, ok := a.LookupName(); ok && n == name {
			return a
		}
	}
	return nil
}

// UnusedArguments returns the arguments no predicate refers to.
func (f *Formula) UnusedArguments() []*Argument {
	var out []*Argument
	for _, a := range f.Arguments {
		if a.UsageCount() == 0 {
			out = append(out, a)
		}
	}
	return out
}

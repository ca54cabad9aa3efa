package anova

import (
	"fmt"
	"sort"
	"strings"

	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/errors"
)

// Interaction is a pairwise interaction between two independent variables
type Interaction [2]string

// String renders the interaction as written in a formula ("A:B")
func (i Interaction) String() string {
	return i[0] + ":" + i[1]
}

// ParseInteraction parses "A:B" into an Interaction
func ParseInteraction(text string) (Interaction, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return Interaction{}, errors.InvalidInput(fmt.Sprintf("interaction %q must have the form A:B", text))
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if !dataset.IsIdentifier(a) || !dataset.IsIdentifier(b) {
		return Interaction{}, errors.InvalidInput(fmt.Sprintf("interaction %q must name two columns", text))
	}
	return Interaction{a, b}, nil
}

// InteractionPairs lists every unordered pair of distinct independents in
// declaration order.
func InteractionPairs(independents []string) []Interaction {
	var pairs []Interaction
	for i := 0; i < len(independents); i++ {
		for j := i + 1; j < len(independents); j++ {
			if independents[i] != independents[j] {
				pairs = append(pairs, Interaction{independents[i], independents[j]})
			}
		}
	}
	return pairs
}

// BuildFormula constructs `dependent ~ i1 + i2 + ... + a:b + ...`.
// Interactions must pair two different members of the independent set.
// The table is not consulted; column existence is checked at fit time.
func BuildFormula(dependent string, independents []string, interactions []Interaction) (stats.ModelSpec, error) {
	dependent = strings.TrimSpace(dependent)
	if dependent == "" {
		return stats.ModelSpec{}, errors.InvalidInput("a dependent variable is required")
	}
	if len(independents) == 0 {
		return stats.ModelSpec{}, errors.InvalidInput("at least one independent variable is required")
	}

	spec := stats.ModelSpec{Dependent: dependent}
	declared := make(map[string]bool, len(independents))
	for _, name := range independents {
		name = strings.TrimSpace(name)
		if name == "" {
			return stats.ModelSpec{}, errors.InvalidInput("independent variable names cannot be empty")
		}
		if declared[name] {
			return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("independent variable %q is listed twice", name))
		}
		declared[name] = true
		spec.Terms = append(spec.Terms, stats.NewTerm(name))
	}

	paired := make(map[string]bool, len(interactions))
	for _, pair := range interactions {
		a, b := strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1])
		if a == b {
			return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("%s:%s is a self-interaction", a, b))
		}
		for _, member := range []string{a, b} {
			if !declared[member] {
				return stats.ModelSpec{}, errors.InvalidInput(
					fmt.Sprintf("interaction %s:%s uses %q, which is not an independent variable", a, b, member))
			}
		}
		key := termKey(a, b)
		if paired[key] {
			return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("interaction %s:%s is listed twice", a, b))
		}
		paired[key] = true
		spec.Terms = append(spec.Terms, stats.NewTerm(a, b))
	}

	return spec, nil
}

// ParseFormula parses `Y ~ A + B + A:B` into a ModelSpec. Every lower-order
// term an interaction is built from must also be in the formula, since the
// design matrix codes interactions against their main effects.
func ParseFormula(text string) (stats.ModelSpec, error) {
	sides := strings.Split(text, "~")
	if len(sides) != 2 {
		return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("formula %q must contain exactly one '~'", text))
	}

	dependent := strings.TrimSpace(sides[0])
	if !dataset.IsIdentifier(dependent) {
		return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("formula %q has an invalid dependent variable", text))
	}

	spec := stats.ModelSpec{Dependent: dependent}
	seen := make(map[string]bool)
	for _, raw := range strings.Split(sides[1], "+") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("formula %q has an empty term", text))
		}

		factors := strings.Split(raw, ":")
		inTerm := make(map[string]bool, len(factors))
		for i, f := range factors {
			f = strings.TrimSpace(f)
			if !dataset.IsIdentifier(f) {
				return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("formula %q has an invalid term %q", text, raw))
			}
			if inTerm[f] {
				return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("term %q repeats %q", raw, f))
			}
			inTerm[f] = true
			factors[i] = f
		}

		key := termKey(factors...)
		if seen[key] {
			return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf("formula %q repeats term %q", text, raw))
		}
		seen[key] = true
		spec.Terms = append(spec.Terms, stats.NewTerm(factors...))
	}

	for _, term := range spec.Terms {
		for _, sub := range marginalTerms(term.Factors) {
			if !seen[termKey(sub...)] {
				return stats.ModelSpec{}, errors.InvalidInput(fmt.Sprintf(
					"formula %q uses %s without its marginal term %s", text, term.Name(), strings.Join(sub, ":")))
			}
		}
	}

	return spec, nil
}

// marginalTerms lists every proper, non-empty subset of factors
func marginalTerms(factors []string) [][]string {
	var subs [][]string
	full := 1<<len(factors) - 1
	for mask := 1; mask < full; mask++ {
		var sub []string
		for i, f := range factors {
			if mask&(1<<i) != 0 {
				sub = append(sub, f)
			}
		}
		subs = append(subs, sub)
	}
	return subs
}

// termKey identifies a term irrespective of factor order
func termKey(factors ...string) string {
	sorted := append([]string(nil), factors...)
	sort.Strings(sorted)
	return strings.Join(sorted, ":")
}

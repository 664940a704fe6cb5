package expand

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/nickwells/location.mod/location"
)

// DfltMaxPasses is the default limit on expansion passes
// DfltName is the default name used to report directive positions
//
// They are used by NewExpander when no overriding options are given
const (
	DfltMaxPasses = 10
	DfltName      = "input"
)

// rule is one recognized directive pattern. For label rules token holds
// the bare token name; content-input rules capture their argument instead.
type rule struct {
	kind  Kind
	token string
	re    *regexp.Regexp
}

// Expander applies directive substitution to document text until the text
// stops changing.
//
// You should create a new Expander with NewExpander, giving it the
// Resolver that supplies replacement text. Substitution is repeated
// because replacement text may itself contain directives; the number of
// passes is capped (see DfltMaxPasses) so that an include file referring
// to itself cannot loop forever.
type Expander struct {
	resolver  Resolver
	tokens    []string
	rules     []rule
	maxPasses int
	name      string
	logger    *slog.Logger
}

type ExpOptFunc func(e *Expander) error

// NewExpander creates a new Expander using the given Resolver. A nil
// logger means the default logger is used.
func NewExpander(r Resolver, logger *slog.Logger, opts ...ExpOptFunc) (*Expander, error) {
	if r == nil {
		return nil, fmt.Errorf("a resolver must be given")
	}

	if logger == nil {
		logger = slog.Default()
	}

	e := &Expander{
		resolver:  r,
		tokens:    labelTokens(DefaultLabels()),
		maxPasses: DfltMaxPasses,
		name:      DfltName,
		logger:    logger,
	}

	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}

	e.rules = buildRules(e.tokens)

	return e, nil
}

// MaxPasses returns an ExpOptFunc that will set the limit on expansion
// passes.
func MaxPasses(n int) ExpOptFunc {
	return func(e *Expander) error {
		if n < 1 {
			return fmt.Errorf("bad pass limit %d: it must be at least 1", n)
		}

		e.maxPasses = n
		return nil
	}
}

// LabelTokens returns an ExpOptFunc that will replace the set of bare
// tokens recognized as label directives. The tokens are given without
// their leading backslash.
func LabelTokens(tokens ...string) ExpOptFunc {
	return func(e *Expander) error {
		if len(tokens) == 0 {
			return fmt.Errorf("at least one label token must be passed")
		}

		for _, tok := range tokens {
			if tok == "" {
				return fmt.Errorf("an empty label token was passed")
			}
		}

		e.tokens = append([]string(nil), tokens...)
		return nil
	}
}

// Name returns an ExpOptFunc that will set the name used when reporting
// the positions of unresolved directives.
func Name(name string) ExpOptFunc {
	return func(e *Expander) error {
		if name == "" {
			return fmt.Errorf("the name must not be empty")
		}

		e.name = name
		return nil
	}
}

// labelTokens returns the table's tokens in a fixed order.
func labelTokens(labels map[string]string) []string {
	tokens := make([]string, 0, len(labels))
	for tok := range labels {
		tokens = append(tokens, tok)
	}

	sort.Strings(tokens)
	return tokens
}

// buildRules constructs the directive patterns. The two content-input
// spellings are disjoint and are tried before the label tokens. Arguments
// are captured up to the first closing brace; an argument containing a
// brace will mis-parse.
func buildRules(tokens []string) []rule {
	rules := []rule{
		{kind: KindContentInput,
			re: regexp.MustCompile(`\\exsetinput\{([^}]+)\}`)},
		{kind: KindContentInput,
			re: regexp.MustCompile(`\\exinput\{([^}]+)\}`)},
	}

	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)

	for _, tok := range sorted {
		rules = append(rules, rule{
			kind:  KindLabel,
			token: tok,
			re:    regexp.MustCompile(`\\` + regexp.QuoteMeta(tok) + `\b`),
		})
	}

	return rules
}

// Expand substitutes directives in text until a pass changes nothing and
// returns the result. If the text is still changing when the pass limit
// is reached a warning is issued and the text as it stands is returned.
func (e *Expander) Expand(text string) string {
	prev := text
	for i := 0; i < e.maxPasses; i++ {
		curr := e.pass(prev)
		if curr == prev {
			return curr
		}

		prev = curr
	}

	e.logger.Warn(
		"Reached max replacement passes. Some nested directives may remain.",
		slog.Int("max_passes", e.maxPasses))

	return prev
}

// pass applies every rule once across the whole text.
func (e *Expander) pass(text string) string {
	for _, r := range e.rules {
		text = e.apply(r, text)
	}

	return text
}

// apply rewrites every occurrence of one rule. Occurrences the resolver
// cannot resolve are copied through byte for byte.
func (e *Expander) apply(r rule, text string) string {
	matches := r.re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	last := 0

	for _, m := range matches {
		arg := r.token
		if r.kind == KindContentInput {
			arg = text[m[2]:m[3]]
		}

		b.WriteString(text[last:m[0]])

		if repl, ok := e.resolver.Resolve(r.kind, arg); ok {
			b.WriteString(repl)
		} else {
			b.WriteString(text[m[0]:m[1]])
		}

		last = m[1]
	}

	b.WriteString(text[last:])

	return b.String()
}

// Occurrence is a directive present in the text, with its position.
type Occurrence struct {
	Text string
	Loc  *location.L
}

// Unresolved returns the directive occurrences remaining in text, in
// line order. After a call to Expand these are the occurrences that could
// not be resolved (or, if the pass limit was hit, not yet reached).
func (e *Expander) Unresolved(text string) []Occurrence {
	loc := location.New(e.name)

	var occs []Occurrence
	for _, line := range strings.Split(text, "\n") {
		loc.Incr()

		for _, r := range e.rules {
			for _, m := range r.re.FindAllString(line, -1) {
				l := *loc
				occs = append(occs, Occurrence{Text: m, Loc: &l})
			}
		}
	}

	return occs
}

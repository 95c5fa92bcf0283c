package tap

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter selects records with a jq expression. The expression is parsed once
// at construction to catch errors early and avoid repeated parsing across a
// dump.
type Filter struct {
	expr  string
	query *gojq.Query
}

// NewFilter parses a jq expression, e.g. `.dir == "down" and .event == 352`.
func NewFilter(expr string) (*Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	return &Filter{expr: expr, query: query}, nil
}

// Expr returns the original expression string.
func (f *Filter) Expr() string { return f.expr }

// Match reports whether the expression produces a truthy value for rec.
// jq truthiness: any output other than null and false counts.
func (f *Filter) Match(rec *Record) (bool, error) {
	// Round-trip through JSON so the query sees plain maps and numbers.
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}

	iter := f.query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("run jq expression: %w", err)
		}
		if v != nil && v != false {
			return true, nil
		}
	}
}

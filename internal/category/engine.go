// Package category classifies transaction records with an ordered rule list.
//
// Rules are evaluated in declaration order and the first one whose predicate
// matches decides the category. Predicates are allowed to overlap; the order of
// the list is the priority.
package category

import (
	"fmt"
	"strings"

	"bankrecon/internal/core"
)

// Field selects the record attribute a predicate inspects.
type Field int

const (
	Notice Field = iota
	TypeName
	Partner
)

func (f Field) String() string {
	switch f {
	case Notice:
		return "notice"
	case TypeName:
		return "type_name"
	case Partner:
		return "partner"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

func (f Field) value(rec core.TransactionRecord) string {
	switch f {
	case Notice:
		return rec.Notice
	case TypeName:
		return rec.TypeName
	case Partner:
		return rec.Partner
	default:
		return ""
	}
}

// Op is the comparison a predicate applies. Both are case-insensitive.
type Op int

const (
	// Contains matches when the field contains any of the values.
	Contains Op = iota
	// OneOf matches when the field equals any of the values.
	OneOf
)

// Predicate tests one field of a record.
type Predicate struct {
	Field  Field
	Op     Op
	Values []string
}

// Match reports whether the predicate holds for rec.
func (p Predicate) Match(rec core.TransactionRecord) bool {
	v := p.Field.value(rec)
	switch p.Op {
	case Contains:
		lv := strings.ToLower(v)
		for _, s := range p.Values {
			if strings.Contains(lv, strings.ToLower(s)) {
				return true
			}
		}
	case OneOf:
		for _, s := range p.Values {
			if strings.EqualFold(v, s) {
				return true
			}
		}
	}
	return false
}

// Rule assigns Category to records matching any of its predicates. Include and
// VAT are forced only when known.
type Rule struct {
	Name     string
	When     []Predicate
	Category string
	Include  core.Tristate
	VAT      core.Tristate
}

// Match reports whether any predicate of the rule holds for rec.
func (r Rule) Match(rec core.TransactionRecord) bool {
	for _, p := range r.When {
		if p.Match(rec) {
			return true
		}
	}
	return false
}

// Engine applies an ordered rule list. It holds no state besides the rules and
// is safe for concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine evaluating rules in the given order.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: append([]Rule(nil), rules...)}
}

// Rules returns a copy of the rule list in evaluation order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Apply returns rec categorized by the first matching rule. When nothing
// matches, rec is returned unchanged along with false.
func (e *Engine) Apply(rec core.TransactionRecord) (core.TransactionRecord, bool) {
	r, ok := e.Match(rec)
	if !ok {
		return rec, false
	}
	return rec.WithCategory(r.Category, r.Include, r.VAT), true
}

// Match returns the first rule that matches rec.
func (e *Engine) Match(rec core.TransactionRecord) (Rule, bool) {
	for _, r := range e.rules {
		if r.Match(rec) {
			return r, true
		}
	}
	return Rule{}, false
}

// Package rights builds access rules that can be combined with boolean
// operators, for example
//
//	rule := Admin.Or(InDomain).And(InSuperDomain.Not())
//
// A Rule is evaluated against a caller-defined context value, typically
// built from the current request.
package rights

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned by Check when a rule denies access.
var ErrForbidden = errors.New("forbidden")

// Rule is a named predicate over a context of type C.
type Rule[C any] struct {
	name  string
	check func(C) bool
}

// New names fn as a rule.
func New[C any](name string, fn func(C) bool) Rule[C] {
	return Rule[C]{name: name, check: fn}
}

// Always is a rule that allows everything.
func Always[C any]() Rule[C] {
	return New("always", func(C) bool { return true })
}

// Never is a rule that denies everything.
func Never[C any]() Rule[C] {
	return New("never", func(C) bool { return false })
}

// Allows evaluates r. The zero Rule allows.
func (r Rule[C]) Allows(ctx C) bool {
	if r.check == nil {
		return true
	}
	return r.check(ctx)
}

// Check returns an error wrapping ErrForbidden when r denies ctx.
func (r Rule[C]) Check(ctx C) error {
	if r.Allows(ctx) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, r)
}

// String returns the rule's expression, e.g. "(admin | editor) & ~banned".
func (r Rule[C]) String() string {
	if r.name == "" {
		return "always"
	}
	return r.name
}

// And allows when both rules allow. o is not evaluated when r denies.
func (r Rule[C]) And(o Rule[C]) Rule[C] {
	return New(fmt.Sprintf("(%s & %s)", r, o), func(ctx C) bool {
		return r.Allows(ctx) && o.Allows(ctx)
	})
}

// Or allows when either rule allows. o is not evaluated when r allows.
func (r Rule[C]) Or(o Rule[C]) Rule[C] {
	return New(fmt.Sprintf("(%s | %s)", r, o), func(ctx C) bool {
		return r.Allows(ctx) || o.Allows(ctx)
	})
}

// Xor allows when exactly one rule allows.
func (r Rule[C]) Xor(o Rule[C]) Rule[C] {
	return New(fmt.Sprintf("(%s ^ %s)", r, o), func(ctx C) bool {
		return r.Allows(ctx) != o.Allows(ctx)
	})
}

// Not inverts r.
func (r Rule[C]) Not() Rule[C] {
	return New("~"+r.String(), func(ctx C) bool {
		return !r.Allows(ctx)
	})
}

// All combines rules with And; no rules allows.
func All[C any](rules ...Rule[C]) Rule[C] {
	out := Always[C]()
	for i, r := range rules {
		if i == 0 {
			out = r
			continue
		}
		out = out.And(r)
	}
	return out
}

// Any combines rules with Or; no rules denies.
func Any[C any](rules ...Rule[C]) Rule[C] {
	out := Never[C]()
	for i, r := range rules {
		if i == 0 {
			out = r
			continue
		}
		out = out.Or(r)
	}
	return out
}

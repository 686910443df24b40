// Package repository defines the store-agnostic query options used by
// persistence implementations.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that no stored entity matched a lookup.
var ErrNotFound = errors.New("entity not found")

// Option applies a modification to a Query.
type Option func(Query) Query

// Query holds conditions, ordering, and pagination for store lookups.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
	offset     int
}

// Build creates a Query from a set of options.
func Build(options ...Option) Query {
	q := Query{}
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns the query conditions.
func (q Query) Conditions() []Condition {
	result := make([]Condition, len(q.conditions))
	copy(result, q.conditions)
	return result
}

// Orders returns the query ordering.
func (q Query) Orders() []Order {
	result := make([]Order, len(q.orders))
	copy(result, q.orders)
	return result
}

// LimitValue returns the limit (0 means no limit).
func (q Query) LimitValue() int { return q.limit }

// OffsetValue returns the offset.
func (q Query) OffsetValue() int { return q.offset }

// Operator is the comparison a Condition applies.
type Operator int

// Operator values.
const (
	OpEqual Operator = iota
	OpIn
	OpIsNull
	OpIsNotNull
	OpRaw
)

// Condition represents a single query condition.
type Condition struct {
	field string
	op    Operator
	value any
}

// Field returns the condition field name, or the raw SQL fragment for OpRaw.
func (c Condition) Field() string { return c.field }

// Operator returns the comparison.
func (c Condition) Operator() Operator { return c.op }

// Value returns the condition value.
func (c Condition) Value() any { return c.value }

// String returns a readable representation.
func (c Condition) String() string {
	switch c.op {
	case OpIn:
		return fmt.Sprintf("%s IN %v", c.field, c.value)
	case OpIsNull:
		return c.field + " IS NULL"
	case OpIsNotNull:
		return c.field + " IS NOT NULL"
	case OpRaw:
		return fmt.Sprintf("(%s) %v", c.field, c.value)
	default:
		return fmt.Sprintf("%s = %v", c.field, c.value)
	}
}

// Order is one sort key.
type Order struct {
	field     string
	ascending bool
}

// Field returns the order field name.
func (o Order) Field() string { return o.field }

// Ascending returns true for ASC, false for DESC.
func (o Order) Ascending() bool { return o.ascending }

func withCondition(c Condition) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, c)
		return q
	}
}

// WithCondition adds a field = value condition.
func WithCondition(field string, value any) Option {
	return withCondition(Condition{field: field, op: OpEqual, value: value})
}

// WithConditionIn adds a field IN (values) condition.
func WithConditionIn(field string, values any) Option {
	return withCondition(Condition{field: field, op: OpIn, value: values})
}

// WithNull requires field to be NULL.
func WithNull(field string) Option {
	return withCondition(Condition{field: field, op: OpIsNull})
}

// WithNotNull requires field to be non-NULL.
func WithNotNull(field string) Option {
	return withCondition(Condition{field: field, op: OpIsNotNull})
}

// WithWhere adds a raw SQL fragment with positional arguments.
func WithWhere(sql string, args ...any) Option {
	return withCondition(Condition{field: sql, op: OpRaw, value: args})
}

// WithID filters by the "id" column.
func WithID(id string) Option {
	return WithCondition("id", id)
}

// WithIDIn filters by the "id" column using IN.
func WithIDIn(ids []string) Option {
	return WithConditionIn("id", ids)
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = n
		return q
	}
}

// WithOffset sets the result offset.
func WithOffset(n int) Option {
	return func(q Query) Query {
		q.offset = n
		return q
	}
}

// WithOrderAsc adds ascending ordering on a field.
func WithOrderAsc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: true})
		return q
	}
}

// WithOrderDesc adds descending ordering on a field.
func WithOrderDesc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: false})
		return q
	}
}

// WithPagination returns limit and offset options for a page.
func WithPagination(limit, offset int) []Option {
	return []Option{WithLimit(limit), WithOffset(offset)}
}

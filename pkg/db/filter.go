package db

import (
	"fmt"

	"github.com/octohelm/tabledb/pkg/schema"
)

func Eq[T comparable](v T) Matcher[T] {
	return MatchFunc[T](func(actual T) (bool, error) {
		return v == actual, nil
	}, fmt.Sprintf("= %v", v))
}

func MatchFunc[T any](match func(actual T) (bool, error), desc string) Matcher[T] {
	return &matcher[T]{
		match: match,
		desc:  desc,
	}
}

type matcher[T any] struct {
	match func(actual T) (bool, error)
	desc  string
}

func (m *matcher[T]) Match(actual T) (bool, error) {
	return m.match(actual)
}

func (m *matcher[T]) String() string {
	return m.desc
}

type Matcher[T any] interface {
	Match(actual T) (bool, error)
	String() string
}

// Field reads a value of a record.
type Field[T any] interface {
	Name() string
	Value(r *Record) (T, bool)
}

func PrimaryKey() Field[uint64] {
	return &field[uint64]{
		name: "pk",
		value: func(r *Record) (uint64, bool) {
			return r.PrimaryKey, true
		},
	}
}

func SecondaryKey(slot int) Field[schema.Key] {
	return &field[schema.Key]{
		name: fmt.Sprintf("keys[%d]", slot),
		value: func(r *Record) (schema.Key, bool) {
			if slot < 0 || slot >= len(r.Keys) {
				return schema.Key{}, false
			}
			return r.Keys[slot], true
		},
	}
}

type field[T any] struct {
	name  string
	value func(r *Record) (T, bool)
}

func (f *field[T]) Name() string {
	return f.name
}

func (f *field[T]) Value(r *Record) (T, bool) {
	return f.value(r)
}

func Filter[T any](f Field[T], matcher Matcher[T]) Operator {
	return &filterOperator[T]{
		field:   f,
		matcher: matcher,
	}
}

type filterOperator[T any] struct {
	Op
	field   Field[T]
	matcher Matcher[T]
}

func (op *filterOperator[T]) Iterate(in State, f func(out State) error) error {
	return op.IteratePrev(in, func(out State) error {
		r := out.Record()
		if r == nil {
			return nil
		}

		v, ok := op.field.Value(r)
		if !ok {
			return nil
		}

		matched, err := op.matcher.Match(v)
		if err != nil {
			return err
		}
		if matched {
			return f(out)
		}

		return nil
	})
}

func (op *filterOperator[T]) String() string {
	return fmt.Sprintf("Filter(%s %s)", op.field.Name(), op.matcher)
}

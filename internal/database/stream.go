package database

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrBreak stops an iteration early without failing it.
var ErrBreak = errors.New("break")

type Operator interface {
	Iterate(global State, next func(state State) error) error
	String() string

	Prev() Operator
	Next() Operator

	setPrev(prev Operator)
	setNext(next Operator)
}

func Pipe(operators ...Operator) Operator {
	if len(operators) == 0 {
		return nil
	}

	ops := make([]Operator, 0, len(operators))

	for i := range operators {
		if op := operators[i]; op != nil {
			ops = append(ops, op)
		}
	}

	if len(ops) == 0 {
		return nil
	}

	for i := len(ops) - 1; i > 0; i-- {
		ops[i].setPrev(ops[i-1])
		ops[i-1].setNext(ops[i])
	}

	return ops[len(ops)-1]
}

type Op struct {
	prev Operator
	next Operator
}

func (op *Op) setPrev(o Operator) {
	op.prev = o
}

func (op *Op) setNext(o Operator) {
	op.next = o
}

func (op *Op) Prev() Operator {
	return op.prev
}

func (op *Op) Next() Operator {
	return op.next
}

// IteratePrev iterates the previous operator, or passes in through once
// when op is the head of its pipe.
func (op *Op) IteratePrev(in State, next func(state State) error) error {
	if op.prev == nil {
		return next(in)
	}
	return op.prev.Iterate(in, next)
}

func Stringify(o Operator) string {
	head := o
	for head.Prev() != nil {
		head = head.Prev()
	}

	b := strings.Builder{}

	for next := head; next != nil; next = next.Next() {
		if next != head {
			b.WriteString(" | ")
		}
		b.WriteString(next.String())
	}

	return b.String()
}

type State interface {
	Context() context.Context

	SetOuter(out State)

	Database() Database
	SetDatabase(db Database)

	SetTx(tx Transaction)
	Tx() Transaction

	Table() Table
	SetTable(t Table)

	Cursor() Cursor
	SetCursor(c Cursor)

	Record() *Record
	SetRecord(r *Record)
}

func NewStateWithContext(ctx context.Context) State {
	return &streamState{
		ctx: ctx,
	}
}

type streamState struct {
	ctx    context.Context
	db     Database
	tx     Transaction
	table  Table
	cursor Cursor
	record *Record
	out    State
}

func (c *streamState) SetOuter(out State) {
	c.out = out
}

func (c *streamState) SetTx(tx Transaction) {
	c.tx = tx
}

func (c *streamState) Tx() Transaction {
	if tx := c.tx; tx != nil {
		return tx
	}
	if c.out != nil {
		return c.out.Tx()
	}
	return nil
}

func (c *streamState) Table() Table {
	if t := c.table; t != nil {
		return t
	}
	if c.out != nil {
		return c.out.Table()
	}
	return nil
}

func (c *streamState) SetTable(t Table) {
	c.table = t
}

func (c *streamState) Cursor() Cursor {
	return c.cursor
}

func (c *streamState) SetCursor(cursor Cursor) {
	c.cursor = cursor
}

func (c *streamState) Context() context.Context {
	return c.ctx
}

func (c *streamState) SetRecord(r *Record) {
	c.record = r
}

func (c *streamState) Record() *Record {
	if r := c.record; r != nil {
		return r
	}
	if c.out != nil {
		return c.out.Record()
	}
	return nil
}

func (c *streamState) Database() Database {
	if db := c.db; db != nil {
		return db
	}
	if c.out != nil {
		return c.out.Database()
	}
	return nil
}

func (c *streamState) SetDatabase(db Database) {
	c.db = db
}

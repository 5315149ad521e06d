package db

import (
	"github.com/octohelm/tabledb/internal/database"
	"github.com/octohelm/tabledb/pkg/schema"
)

type State = database.State
type Op = database.Op
type Operator = database.Operator
type Database = database.Database
type Transaction = database.Transaction
type Table = database.Table
type TableInfo = database.TableInfo
type Index = database.Index
type Record = database.Record
type Cursor = database.Cursor

type Name = schema.Name
type Key = schema.Key
type KeyType = schema.KeyType
type TableRef = schema.TableRef
type IndexID = schema.IndexID

const AutoincrementLimit = database.AutoincrementLimit

var ErrBreak = database.ErrBreak

func Pipe(operators ...Operator) Operator {
	return database.Pipe(operators...)
}

func NewRecord(pk uint64, payload []byte, keys ...Key) *Record {
	return database.NewRecord(pk, payload, keys...)
}

func Stringify(op Operator) string {
	return database.Stringify(op)
}

package kv

type CommitOptionFunc = func(opt *CommitOption)

var NoSync = func(opt *CommitOption) {
	opt.NoSync = true
}

type CommitOption struct {
	NoSync bool
}

type OpType uint8

const (
	OpPut OpType = iota + 1
	OpDelete
)

// Op is a single write of a write set.
type Op struct {
	Type  OpType
	Key   []byte
	Value []byte
}

func PutOp(k, v []byte) Op {
	return Op{Type: OpPut, Key: k, Value: v}
}

func DeleteOp(k []byte) Op {
	return Op{Type: OpDelete, Key: k}
}

type Session interface {
	// Insert inserts a key-value pair. If it already exists, it returns ErrKeyAlreadyExists.
	Insert(k, v []byte) error
	// Put stores a key-value pair. If it already exists, it overrides it.
	Put(k, v []byte) error
	// Get returns a value associated with the given key. If not found, returns ErrKeyNotFound.
	Get(k []byte) ([]byte, error)
	// Apply applies all ops or none of them.
	Apply(ops ...Op) error
	// Commit apply changes of batch
	Commit(opts ...CommitOptionFunc) error

	Close() error
	// Exists returns whether a key exists and is visible by the current session.
	Exists(k []byte) (bool, error)
	// Delete a record by key. Deleting a missing key is not an error.
	Delete(k []byte) error

	// Iterator iterates over keys in [start, end). nil bounds are open.
	Iterator(start []byte, end []byte) Iterator
}

type Iterator interface {
	First() bool
	Next() bool

	Last() bool // reverse
	Prev() bool

	// SeekGE moves to the first key >= k.
	SeekGE(k []byte) bool
	// SeekLT moves to the last key < k.
	SeekLT(k []byte) bool

	Valid() bool
	Error() error

	Key() []byte
	Value() []byte
	Close() error
}

// ErrIterator is an Iterator which is never valid.
type ErrIterator struct {
	Err error
}

func (it *ErrIterator) First() bool          { return false }
func (it *ErrIterator) Next() bool           { return false }
func (it *ErrIterator) Last() bool           { return false }
func (it *ErrIterator) Prev() bool           { return false }
func (it *ErrIterator) SeekGE(k []byte) bool { return false }
func (it *ErrIterator) SeekLT(k []byte) bool { return false }
func (it *ErrIterator) Valid() bool          { return false }
func (it *ErrIterator) Error() error         { return it.Err }
func (it *ErrIterator) Key() []byte          { return nil }
func (it *ErrIterator) Value() []byte        { return nil }
func (it *ErrIterator) Close() error         { return nil }

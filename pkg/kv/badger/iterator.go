package badger

import (
	"bytes"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/octohelm/tabledb/pkg/kv"
)

var _ kv.Iterator = (*iterator)(nil)

// iterator gives badger's one-way iterators the bidirectional, bounded
// interface of kv.Iterator. Changing direction reopens the underlying
// iterator and seeks back to the current key.
type iterator struct {
	txn        *badger.Txn
	start, end []byte

	it      *badger.Iterator
	reverse bool

	key, value []byte
	valid      bool
	err        error
}

func (i *iterator) open(reverse bool) {
	if i.it != nil && i.reverse == reverse {
		return
	}
	if i.it != nil {
		i.it.Close()
	}
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = reverse
	i.it = i.txn.NewIterator(opts)
	i.reverse = reverse
}

func (i *iterator) inBounds(k []byte) bool {
	if i.start != nil && bytes.Compare(k, i.start) < 0 {
		return false
	}
	if i.end != nil && bytes.Compare(k, i.end) >= 0 {
		return false
	}
	return true
}

func (i *iterator) load() bool {
	i.valid = false
	if i.err != nil || !i.it.Valid() {
		return false
	}
	item := i.it.Item()
	k := item.KeyCopy(nil)
	if !i.inBounds(k) {
		return false
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		i.err = err
		return false
	}
	i.key, i.value, i.valid = k, v, true
	return true
}

// seekBefore positions a reverse iterator at the last key < k.
func (i *iterator) seekBefore(k []byte) {
	i.it.Seek(k)
	if i.it.Valid() && bytes.Equal(i.it.Item().Key(), k) {
		i.it.Next()
	}
}

func (i *iterator) First() bool {
	i.open(false)
	if i.start != nil {
		i.it.Seek(i.start)
	} else {
		i.it.Rewind()
	}
	return i.load()
}

func (i *iterator) Last() bool {
	i.open(true)
	if i.end != nil {
		i.seekBefore(i.end)
	} else {
		i.it.Rewind()
	}
	return i.load()
}

func (i *iterator) SeekGE(k []byte) bool {
	if i.start != nil && bytes.Compare(k, i.start) < 0 {
		k = i.start
	}
	i.open(false)
	i.it.Seek(k)
	return i.load()
}

func (i *iterator) SeekLT(k []byte) bool {
	if i.end != nil && bytes.Compare(k, i.end) > 0 {
		k = i.end
	}
	i.open(true)
	i.seekBefore(k)
	return i.load()
}

func (i *iterator) Next() bool {
	if !i.valid {
		return false
	}
	if i.reverse {
		cur := i.key
		i.open(false)
		i.it.Seek(cur)
		if i.it.Valid() && bytes.Equal(i.it.Item().Key(), cur) {
			i.it.Next()
		}
	} else {
		i.it.Next()
	}
	return i.load()
}

func (i *iterator) Prev() bool {
	if !i.valid {
		return false
	}
	if !i.reverse {
		cur := i.key
		i.open(true)
		i.seekBefore(cur)
	} else {
		i.it.Next()
	}
	return i.load()
}

func (i *iterator) Valid() bool {
	return i.valid
}

func (i *iterator) Error() error {
	return i.err
}

func (i *iterator) Key() []byte {
	return i.key
}

func (i *iterator) Value() []byte {
	return i.value
}

func (i *iterator) Close() error {
	if i.it != nil {
		i.it.Close()
		i.it = nil
	}
	return nil
}

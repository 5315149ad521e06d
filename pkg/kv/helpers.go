package kv

// Walk calls fn for every pair in [start, end) in key order.
func Walk(s Session, start, end []byte, fn func(k, v []byte) error) error {
	it := s.Iterator(start, end)
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}

	return it.Error()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}

// Clone copies b so it outlives the iterator position or session it came from.
func Clone(b []byte) []byte {
	return clone(b)
}

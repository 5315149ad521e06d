package kv

// Recorder wraps a Session and keeps every successful write, in order.
type Recorder struct {
	Session
	ops []Op
}

func NewRecorder(s Session) *Recorder {
	return &Recorder{Session: s}
}

// Ops returns the writes recorded so far.
func (r *Recorder) Ops() []Op {
	return r.ops
}

func (r *Recorder) Insert(k, v []byte) error {
	if err := r.Session.Insert(k, v); err != nil {
		return err
	}
	r.ops = append(r.ops, PutOp(clone(k), clone(v)))
	return nil
}

func (r *Recorder) Put(k, v []byte) error {
	if err := r.Session.Put(k, v); err != nil {
		return err
	}
	r.ops = append(r.ops, PutOp(clone(k), clone(v)))
	return nil
}

func (r *Recorder) Delete(k []byte) error {
	if err := r.Session.Delete(k); err != nil {
		return err
	}
	r.ops = append(r.ops, DeleteOp(clone(k)))
	return nil
}

func (r *Recorder) Apply(ops ...Op) error {
	if err := r.Session.Apply(ops...); err != nil {
		return err
	}
	for _, op := range ops {
		r.ops = append(r.ops, Op{Type: op.Type, Key: clone(op.Key), Value: clone(op.Value)})
	}
	return nil
}

package id

import (
	"time"

	"github.com/go-courier/snowflakeid"
	"github.com/go-courier/snowflakeid/workeridutil"
)

var startTime, _ = time.Parse(time.RFC3339, "2020-01-01T00:00:00Z")
var sff = snowflakeid.NewSnowflakeFactory(16, 8, 5, startTime)

// New returns a generator of transaction trace ids. Trace ids only appear in
// logs and the journal, never in table state.
func New() (Gen, error) {
	return sff.NewSnowflake(workeridutil.WorkerIDFromIP(ResolveExposedIP()))
}

type Gen interface {
	ID() (uint64, error)
}

// Sequence is a Gen counting up from 1, for deterministic trace ids.
type Sequence struct {
	next uint64
}

func (s *Sequence) ID() (uint64, error) {
	s.next++
	return s.next, nil
}

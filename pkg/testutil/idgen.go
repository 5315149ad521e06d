package testutil

import (
	"testing"

	"github.com/octohelm/tabledb/pkg/id"
)

// NewIDGen returns a deterministic trace id generator.
func NewIDGen(t testing.TB) id.Gen {
	t.Helper()
	return &id.Sequence{}
}

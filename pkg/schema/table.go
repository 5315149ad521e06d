package schema

import (
	"fmt"
	"strings"

	"github.com/octohelm/tabledb/pkg/dberr"
)

// MaxSecondaryIndexes bounds the number of secondary slots of one table.
const MaxSecondaryIndexes = 16

// TableRef identifies a table: the owner which may mutate it, the scope
// and the table name.
type TableRef struct {
	Owner Name `yaml:"owner" json:"owner"`
	Scope Name `yaml:"scope" json:"scope"`
	Name  Name `yaml:"name" json:"name"`
}

func Ref(owner, scope, name string) TableRef {
	return TableRef{
		Owner: MustParseName(owner),
		Scope: MustParseName(scope),
		Name:  MustParseName(name),
	}
}

// ParseRef parses owner/scope/name.
func ParseRef(s string) (TableRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return TableRef{}, fmt.Errorf("invalid table ref %q, want owner/scope/name", s)
	}

	names := make([]Name, 3)
	for i, p := range parts {
		n, err := ParseName(p)
		if err != nil {
			return TableRef{}, err
		}
		names[i] = n
	}

	return TableRef{Owner: names[0], Scope: names[1], Name: names[2]}, nil
}

func (r TableRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Owner, r.Scope, r.Name)
}

// TableSchema is the configuration of a table: its identity and the key type
// of each secondary slot.
type TableSchema struct {
	Ref   TableRef
	Slots []KeyType
}

func (s *TableSchema) Validate() error {
	if len(s.Slots) > MaxSecondaryIndexes {
		return dberr.Newf(dberr.ErrSchemaMismatch, "%s: at most %d secondary indexes, got %d", s.Ref, MaxSecondaryIndexes, len(s.Slots))
	}
	for i, t := range s.Slots {
		if !t.IsValid() {
			return dberr.Newf(dberr.ErrSchemaMismatch, "%s: slot %d has invalid key type %d", s.Ref, i, t)
		}
	}
	return nil
}

// Codecs resolves one codec per slot.
func (s *TableSchema) Codecs() ([]KeyCodec, error) {
	codecs := make([]KeyCodec, len(s.Slots))
	for i, t := range s.Slots {
		c, err := CodecFor(t)
		if err != nil {
			return nil, err
		}
		codecs[i] = c
	}
	return codecs, nil
}

func (s *TableSchema) IsEqual(o *TableSchema) bool {
	if s.Ref != o.Ref || len(s.Slots) != len(o.Slots) {
		return false
	}
	for i := range s.Slots {
		if s.Slots[i] != o.Slots[i] {
			return false
		}
	}
	return true
}

// IndexID selects the primary index or one secondary slot of a table.
type IndexID uint8

const PrimaryIndex IndexID = 0

func SecondaryIndex(slot int) IndexID {
	return IndexID(slot + 1)
}

func (i IndexID) IsPrimary() bool {
	return i == PrimaryIndex
}

// Slot returns the secondary slot number, -1 for the primary index.
func (i IndexID) Slot() int {
	return int(i) - 1
}

func (i IndexID) String() string {
	if i.IsPrimary() {
		return "primary"
	}
	return fmt.Sprintf("secondary[%d]", i.Slot())
}

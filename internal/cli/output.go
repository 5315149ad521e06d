package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/octohelm/tabledb/pkg/db"
)

type tableView struct {
	Table          string   `json:"table"`
	ID             uint64   `json:"id"`
	Slots          []string `json:"slots"`
	Count          uint64   `json:"count"`
	NextPrimaryKey uint64   `json:"nextPrimaryKey"`
	Exhausted      bool     `json:"exhausted,omitempty"`
}

func tableViewOf(info *db.TableInfo) tableView {
	v := tableView{
		Table:          info.Ref.String(),
		ID:             info.ID,
		Slots:          make([]string, len(info.Slots)),
		Count:          info.Count,
		NextPrimaryKey: info.NextPrimaryKey,
		Exhausted:      info.Exhausted,
	}
	for i, s := range info.Slots {
		v.Slots[i] = s.String()
	}
	return v
}

func (v tableView) text() string {
	return fmt.Sprintf("%s\tid=%d\tslots=%v\tcount=%d\tnext=%d", v.Table, v.ID, v.Slots, v.Count, v.NextPrimaryKey)
}

type recordView struct {
	PrimaryKey uint64   `json:"pk"`
	Keys       []string `json:"keys"`
	Payload    string   `json:"payload"`
}

func recordViewOf(r *db.Record) recordView {
	v := recordView{
		PrimaryKey: r.PrimaryKey,
		Keys:       make([]string, len(r.Keys)),
		Payload:    hex.EncodeToString(r.Payload),
	}
	for i, k := range r.Keys {
		v.Keys[i] = k.String()
	}
	return v
}

func (v recordView) text() string {
	return fmt.Sprintf("%d\t%v\t%s", v.PrimaryKey, v.Keys, v.Payload)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

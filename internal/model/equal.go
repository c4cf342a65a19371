// Copyright 2026 Canonical.

package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// ContentEqual reports whether two class definitions carry the same
// content, ignoring audit fields. The merge engine compares entities
// this way so that touching a class without changing it does not
// register as a modification.
func (c ClassDef) ContentEqual(o ClassDef) bool {
	return contentJSON(c.stripped()) == contentJSON(o.stripped())
}

func (c ClassDef) stripped() ClassDef {
	c.CreatedBy, c.UpdatedBy = "", ""
	c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}
	return c
}

// ContentEqual reports whether two instances carry the same content,
// ignoring audit fields.
func (i Instance) ContentEqual(o Instance) bool {
	return contentJSON(i.stripped()) == contentJSON(o.stripped())
}

func (i Instance) stripped() Instance {
	i.CreatedBy, i.UpdatedBy = "", ""
	i.CreatedAt, i.UpdatedAt = time.Time{}, time.Time{}
	return i
}

func contentJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var decoded interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(decoded); err != nil {
		return ""
	}
	return buf.String()
}

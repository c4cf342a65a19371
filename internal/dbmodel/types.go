// Copyright 2026 Canonical.

package dbmodel

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/condb/condb/internal/model"
)

// Strings is a data type that stores a slice of strings into a single
// column. The strings are encoded as a JSON array and stored in a BLOB
// data type.
type Strings []string

// GormDataType implements schema.GormDataTypeInterface.
func (s Strings) GormDataType() string {
	return "bytes"
}

// Value implements driver.Valuer.
func (s Strings) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *Strings) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	buf, err := rawBytes(src)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %T as Strings", src)
	}
	return json.Unmarshal(buf, s)
}

// A Map stores a generic map in a database column. The map is encoded as
// JSON and stored in a BLOB element.
type Map map[string]interface{}

// GormDataType implements schema.GormDataTypeInterface.
func (m Map) GormDataType() string {
	return "bytes"
}

// Value implements driver.Valuer.
func (m Map) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Map) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	buf, err := rawBytes(src)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %T as Map", src)
	}
	return json.Unmarshal(buf, m)
}

// SchemaData stores a schema draft in a database column. The schema is
// encoded as JSON and stored in a BLOB element.
type SchemaData model.Schema

// GormDataType implements schema.GormDataTypeInterface.
func (s SchemaData) GormDataType() string {
	return "bytes"
}

// Value implements driver.Valuer.
func (s SchemaData) Value() (driver.Value, error) {
	return json.Marshal(model.Schema(s))
}

// Scan implements sql.Scanner.
func (s *SchemaData) Scan(src interface{}) error {
	if src == nil {
		*s = SchemaData{}
		return nil
	}
	buf, err := rawBytes(src)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %T as SchemaData", src)
	}
	return json.Unmarshal(buf, (*model.Schema)(s))
}

// Instances stores an instance draft in a database column. The instances
// are encoded as a JSON array and stored in a BLOB element.
type Instances []model.Instance

// GormDataType implements schema.GormDataTypeInterface.
func (i Instances) GormDataType() string {
	return "bytes"
}

// Value implements driver.Valuer.
func (i Instances) Value() (driver.Value, error) {
	if i == nil {
		return json.Marshal([]model.Instance{})
	}
	return json.Marshal([]model.Instance(i))
}

// Scan implements sql.Scanner.
func (i *Instances) Scan(src interface{}) error {
	if src == nil {
		*i = nil
		return nil
	}
	buf, err := rawBytes(src)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %T as Instances", src)
	}
	return json.Unmarshal(buf, (*[]model.Instance)(i))
}

func rawBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot interpret %T as raw bytes", src)
	}
}

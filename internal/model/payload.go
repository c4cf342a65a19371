// Copyright 2026 Canonical.

package model

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// A Payload is the content of a commit or working commit: a schema and
// the instances that exist under it.
type Payload struct {
	Schema    Schema     `json:"schema"`
	Instances []Instance `json:"instances"`
}

// CanonicalPayload returns the canonical JSON serialization of the
// payload. Classes and instances are sorted by id, as are the
// property, relationship and derived lists within each class; object
// keys are emitted in lexicographic order; timestamps are normalized
// to UTC. Any two semantically equal payloads canonicalize to the same
// bytes, which is what makes commit hashes content addresses.
func CanonicalPayload(p Payload) ([]byte, error) {
	b, err := json.Marshal(p.canonicalized())
	if err != nil {
		return nil, fmt.Errorf("cannot serialize payload: %v", err)
	}
	// Round-trip through a generic value so that every object is
	// emitted with sorted keys and numbers in their shortest form.
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("cannot canonicalize payload: %v", err)
	}
	return json.Marshal(v)
}

// canonicalized returns a copy of the payload with all id-keyed lists
// sorted and timestamps normalized to UTC.
func (p Payload) canonicalized() Payload {
	cp := p
	cp.Schema.Classes = make([]ClassDef, len(p.Schema.Classes))
	copy(cp.Schema.Classes, p.Schema.Classes)
	for i := range cp.Schema.Classes {
		c := &cp.Schema.Classes[i]
		c.Properties = sortedByID(c.Properties, func(d PropertyDef) string { return d.ID })
		c.Relationships = sortedByID(c.Relationships, func(d RelationshipDef) string { return d.ID })
		c.Derived = sortedByID(c.Derived, func(d DerivedDef) string { return d.ID })
		c.CreatedAt = c.CreatedAt.UTC()
		c.UpdatedAt = c.UpdatedAt.UTC()
	}
	sort.Slice(cp.Schema.Classes, func(i, j int) bool {
		return cp.Schema.Classes[i].ID < cp.Schema.Classes[j].ID
	})
	cp.Instances = make([]Instance, len(p.Instances))
	copy(cp.Instances, p.Instances)
	for i := range cp.Instances {
		cp.Instances[i].CreatedAt = cp.Instances[i].CreatedAt.UTC()
		cp.Instances[i].UpdatedAt = cp.Instances[i].UpdatedAt.UTC()
	}
	sort.Slice(cp.Instances, func(i, j int) bool {
		return cp.Instances[i].ID < cp.Instances[j].ID
	})
	return cp
}

func sortedByID[T any](in []T, id func(T) string) []T {
	out := make([]T, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// CommitHash computes the content address of a commit from its
// metadata and canonical payload. The parent, author and message
// lines are omitted when empty, matching the stored hashes of
// existing commits.
func CommitHash(databaseID, parentHash, author, message string, canonical []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "database:%s\n", databaseID)
	if parentHash != "" {
		fmt.Fprintf(h, "parent:%s\n", parentHash)
	}
	if author != "" {
		fmt.Fprintf(h, "author:%s\n", author)
	}
	if message != "" {
		fmt.Fprintf(h, "message:%s\n", message)
	}
	h.Write([]byte("data:"))
	h.Write(canonical)
	h.Write([]byte("\n"))
	return hex.EncodeToString(h.Sum(nil))
}

// CompressPayload gzips canonical payload bytes for storage.
func CompressPayload(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressPayload undoes CompressPayload. Data that does not start
// with the gzip magic bytes is returned unchanged, some early commits
// were stored uncompressed.
func DecompressPayload(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// EncodePayload canonicalizes and compresses a payload, returning the
// stored bytes, the content hash input and the uncompressed size.
func EncodePayload(p Payload) (compressed []byte, canonical []byte, err error) {
	canonical, err = CanonicalPayload(p)
	if err != nil {
		return nil, nil, err
	}
	compressed, err = CompressPayload(canonical)
	if err != nil {
		return nil, nil, err
	}
	return compressed, canonical, nil
}

// DecodePayload decompresses and deserializes stored payload bytes.
// The returned size is the uncompressed length, which callers compare
// against the recorded data size.
func DecodePayload(data []byte) (Payload, int64, error) {
	raw, err := DecompressPayload(data)
	if err != nil {
		return Payload{}, 0, fmt.Errorf("cannot decompress payload: %v", err)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, 0, fmt.Errorf("cannot deserialize payload: %v", err)
	}
	return p, int64(len(raw)), nil
}

// Clone returns a deep copy of the payload by serializing and
// deserializing it. Working commits are initialized this way so that
// draft mutations never alias committed state.
func (p Payload) Clone() (Payload, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return Payload{}, err
	}
	var cp Payload
	if err := json.Unmarshal(b, &cp); err != nil {
		return Payload{}, err
	}
	return cp, nil
}

package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for a Value: NFC-normalized
// strings, object keys in sorted order, no HTML escaping, shortest
// float representation. The journal and the golden-test harness both
// rely on this being byte-stable for equal values.
func MarshalCanonical(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return canonicalString(string(val))
	case Number:
		return []byte(strconv.FormatFloat(float64(val), 'g', -1, 64)), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case List:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Object:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := canonicalString(k)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := MarshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", k, err)
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// canonicalString marshals a string with NFC normalization and without
// HTML escaping. Two visually identical strings with different Unicode
// compositions serialize identically.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	// Encoder appends a newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fingerprint computes a stable hash of the configuration's structure:
// element ids, types, orders, rule counts, and dependency edges. The
// journal stamps every row with this so a log recorded against one
// configuration is never replayed through another.
func (c *Config) Fingerprint() string {
	proj := Object{"id": String(c.ID)}
	var elems List
	for pi := range c.Pages {
		page := &c.Pages[pi]
		for si := range page.Sections {
			sec := &page.Sections[si]
			for ci := range sec.Components {
				comp := &sec.Components[ci]
				deps := make(List, len(comp.DependentIDs))
				for i, d := range comp.DependentIDs {
					deps[i] = String(d)
				}
				elems = append(elems, Object{
					"id":    String(comp.ID),
					"type":  String(comp.Type),
					"order": Number(comp.Order),
					"rules": Number(len(comp.Rules)),
					"deps":  deps,
				})
			}
		}
	}
	proj["elements"] = elems

	b, err := MarshalCanonical(proj)
	if err != nil {
		// Projection only contains the types above; canonical marshal
		// cannot fail on it.
		panic(fmt.Sprintf("config fingerprint: %v", err))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

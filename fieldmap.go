// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"io"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Fields represents a raw json object as a map of interfaces.  Decoded
// service responses use Fields for objects, []interface{} for arrays
// and jx.Num for numbers, so no precision is lost before a value is
// cleaned into an entity field.
// i.e. {"DocCode":"A1","TotalTax":"1.25","Messages":[{"Summary":"x"}]} becomes
// avatax.Fields{"DocCode":"A1", "TotalTax":"1.25", "Messages":[]interface{}{avatax.Fields{"Summary":"x"}}}
type Fields map[string]interface{}

// Has reports whether the key is present, even with a null value.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// String returns the string value of the named field.  Numbers are
// returned in their json form; other types return an empty string.
func (f Fields) String(name string) string {
	switch v := f[name].(type) {
	case string:
		return v
	case jx.Num:
		return v.String()
	}
	return ""
}

// Decimal parses the named field as a decimal.  Errors are returned
// as zero.
func (f Fields) Decimal(name string) decimal.Decimal {
	d, _ := toDecimal(f[name])
	return d
}

// Fields returns a nested object or nil.
func (f Fields) Fields(name string) Fields {
	nf, _ := asFields(f[name])
	return nf
}

// Array returns a slice of objects from the named field. If the
// value is nil or a single object, Array returns an empty or a
// single valued slice.  Any other type returns an error.
func (f Fields) Array(name string) ([]Fields, error) {
	switch val := f[name].(type) {
	case nil:
		return []Fields{}, nil
	case []Fields:
		return val, nil
	case []interface{}:
		var list = make([]Fields, 0, len(val))
		for i, v := range val {
			nf, ok := asFields(v)
			if !ok {
				return nil, errors.Errorf("%s[%d] is not an object", name, i)
			}
			list = append(list, nf)
		}
		return list, nil
	}
	if nf, ok := asFields(f[name]); ok {
		return []Fields{nf}, nil
	}
	return nil, errors.Errorf("%s is not an array: %v", name, f[name])
}

// MarshalJSON encodes the map with sorted keys.
func (f Fields) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	if err := encodeFields(e, f); err != nil {
		return nil, err
	}
	return append([]byte(nil), e.Bytes()...), nil
}

// DecodeFields reads a json object from r.
func DecodeFields(r io.Reader) (Fields, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeFieldsBytes(b)
}

// DecodeFieldsBytes decodes a json object.
func DecodeFieldsBytes(b []byte) (Fields, error) {
	d := jx.DecodeBytes(b)
	if tp := d.Next(); tp != jx.Object {
		return nil, errors.Errorf("expected json object; got %v", tp)
	}
	v, err := decodeValue(d)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	// only whitespace may follow the object
	if err := d.Skip(); err != io.EOF {
		return nil, errors.Errorf("unexpected data after json object: %v", err)
	}
	return v.(Fields), nil
}

func decodeValue(d *jx.Decoder) (interface{}, error) {
	switch tp := d.Next(); tp {
	case jx.String:
		return d.Str()
	case jx.Number:
		// NumAppend copies; Num references the input buffer
		return d.NumAppend(nil)
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
		var list = make([]interface{}, 0)
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err == nil {
				list = append(list, v)
			}
			return err
		})
		return list, err
	case jx.Object:
		var obj = make(Fields)
		err := d.Obj(func(d *jx.Decoder, key string) error {
			v, err := decodeValue(d)
			if err != nil {
				return errors.Wrap(err, key)
			}
			obj[key] = v
			return nil
		})
		return obj, err
	default:
		return nil, errors.Errorf("unexpected json type %v", tp)
	}
}

// Pair is a single key/value of a Payload.
type Pair struct {
	Key   string
	Value interface{}
}

// Payload is the ordered wire form of an entity produced by Serialize.
// Values are strings, bools, ints, decimal.Decimal, nested Payloads and
// []Payload.
type Payload []Pair

// Get returns the value for key.
func (p Payload) Get(key string) (interface{}, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Keys lists the keys in order.
func (p Payload) Keys() []string {
	var keys = make([]string, 0, len(p))
	for _, kv := range p {
		keys = append(keys, kv.Key)
	}
	return keys
}

// Fields converts the payload into a Fields map suitable for
// constructing a new entity.
func (p Payload) Fields() Fields {
	var f = make(Fields, len(p))
	for _, kv := range p {
		switch v := kv.Value.(type) {
		case Payload:
			f[kv.Key] = v.Fields()
		case []Payload:
			var list = make([]interface{}, 0, len(v))
			for _, item := range v {
				list = append(list, item.Fields())
			}
			f[kv.Key] = list
		default:
			f[kv.Key] = v
		}
	}
	return f
}

// MarshalJSON encodes the payload preserving key order.
func (p Payload) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	if err := encodePayload(e, p); err != nil {
		return nil, err
	}
	return append([]byte(nil), e.Bytes()...), nil
}

func encodePayload(e *jx.Encoder, p Payload) error {
	e.ObjStart()
	for _, kv := range p {
		e.FieldStart(kv.Key)
		if err := encodeValue(e, kv.Value); err != nil {
			return errors.Wrap(err, kv.Key)
		}
	}
	e.ObjEnd()
	return nil
}

func encodeFields(e *jx.Encoder, f Fields) error {
	var keys = make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		if err := encodeValue(e, f[k]); err != nil {
			return errors.Wrap(err, k)
		}
	}
	e.ObjEnd()
	return nil
}

func encodeValue(e *jx.Encoder, v interface{}) error {
	switch x := v.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(x)
	case bool:
		e.Bool(x)
	case int:
		e.Int(x)
	case int64:
		e.Int64(x)
	case float64:
		e.Float64(x)
	case jx.Num:
		e.Num(x)
	case decimal.Decimal:
		e.Num(jx.Num(x.String()))
	case Date:
		if x.IsNil() {
			e.Null()
		} else {
			e.Str(x.String())
		}
	case Datetime:
		if x.IsNil() {
			e.Null()
		} else {
			e.Str(x.String())
		}
	case Payload:
		return encodePayload(e, x)
	case []Payload:
		e.ArrStart()
		for _, p := range x {
			if err := encodePayload(e, p); err != nil {
				return err
			}
		}
		e.ArrEnd()
	case Fields:
		return encodeFields(e, x)
	case map[string]interface{}:
		return encodeFields(e, Fields(x))
	case []interface{}:
		e.ArrStart()
		for _, item := range x {
			if err := encodeValue(e, item); err != nil {
				return err
			}
		}
		e.ArrEnd()
	default:
		return errors.Errorf("unable to encode %T", v)
	}
	return nil
}

// asFields accepts the object shapes a caller may nest in a mapping.
func asFields(v interface{}) (Fields, bool) {
	switch x := v.(type) {
	case Fields:
		return x, true
	case map[string]interface{}:
		return Fields(x), true
	case Payload:
		return x.Fields(), true
	}
	return nil, false
}

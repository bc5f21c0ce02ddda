// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"bitbucket.org/gotamer/cases"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jfcote87/avatax"
)

// response is satisfied by every avatax response type.
type response interface {
	Raw() avatax.Fields
	Err() error
	ErrorDetails() ([]avatax.ErrorDetail, error)
}

// writeResult prints {"success":..., "errors":[...], "response":{...}}
// and returns errRejected for a failed call.
func writeResult(w io.Writer, r response) error {
	raw, err := r.Raw().MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode response")
	}
	details, _ := r.ErrorDetails()
	rejected := r.Err() != nil

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(!rejected) })
		if len(details) > 0 {
			e.Field("errors", func(e *jx.Encoder) { encodeDetails(e, details) })
		}
		e.Field("response", func(e *jx.Encoder) { e.Raw(raw) })
	})
	if err := writeJSON(w, e.Bytes()); err != nil {
		return err
	}
	if rejected {
		return errRejected
	}
	return nil
}

func encodeDetails(e *jx.Encoder, details []avatax.ErrorDetail) {
	e.Arr(func(e *jx.Encoder) {
		for _, d := range details {
			e.Obj(func(e *jx.Encoder) {
				e.Field("source", func(e *jx.Encoder) { e.Str(d.Source) })
				e.Field("summary", func(e *jx.Encoder) { e.Str(d.Summary) })
			})
		}
	})
}

// writeJSON re-encodes the compact json b with two space indentation.
func writeJSON(w io.Writer, b []byte) error {
	var e jx.Encoder
	e.SetIdent(2)
	if err := copyValue(&e, jx.DecodeBytes(b)); err != nil {
		return errors.Wrap(err, "indent json")
	}
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}

func copyValue(e *jx.Encoder, d *jx.Decoder) error {
	switch tp := d.Next(); tp {
	case jx.Object:
		e.ObjStart()
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			e.FieldStart(key)
			return copyValue(e, d)
		}); err != nil {
			return err
		}
		e.ObjEnd()
	case jx.Array:
		e.ArrStart()
		if err := d.Arr(func(d *jx.Decoder) error {
			return copyValue(e, d)
		}); err != nil {
			return err
		}
		e.ArrEnd()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		e.Str(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		e.Num(n)
	case jx.Bool:
		v, err := d.Bool()
		if err != nil {
			return err
		}
		e.Bool(v)
	case jx.Null:
		if err := d.Null(); err != nil {
			return err
		}
		e.Null()
	default:
		return errors.Errorf("unexpected json type %v", tp)
	}
	return nil
}

// readFields decodes a json object from a file or stdin when name is "-".
func readFields(stdin io.Reader, name string) (avatax.Fields, error) {
	var r = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	fields, err := avatax.DecodeFields(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return fields, nil
}

// normalizeKeys converts snake_case and lower camel keys to the
// service's CamelCase names, i.e. doc_code becomes DocCode.  Nested
// objects and lists of objects are converted as well.
func normalizeKeys(f avatax.Fields) avatax.Fields {
	var out = make(avatax.Fields, len(f))
	for k, v := range f {
		out[wireName(k)] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case avatax.Fields:
		return normalizeKeys(x)
	case map[string]interface{}:
		return normalizeKeys(avatax.Fields(x))
	case []interface{}:
		var list = make([]interface{}, 0, len(x))
		for _, item := range x {
			list = append(list, normalizeValue(item))
		}
		return list
	}
	return v
}

func wireName(k string) string {
	if strings.Contains(k, "_") {
		return cases.Camel(strings.TrimSpace(strings.ReplaceAll(k, "_", " ")))
	}
	r, n := utf8.DecodeRuneInString(k)
	if unicode.IsLower(r) {
		return string(unicode.ToUpper(r)) + k[n:]
	}
	return k
}

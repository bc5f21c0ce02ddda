// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Mode selects how construction treats keys that are not fields of
// the entity.
type Mode int

const (
	// Strict rejects unknown keys with CodeInvalidField.  Use for
	// caller built entities so typos are caught early.
	Strict Mode = iota
	// Permissive logs and skips unknown keys.  Service responses are
	// always read permissively since the service adds fields freely.
	Permissive
)

// Entity is implemented by every document and response type.  The
// field table returned by fields() is static per type.
type Entity interface {
	fields() []field
	validate() error
}

type fieldKind int

const (
	scalarKind fieldKind = iota
	hasOneKind
	hasManyKind
)

// field binds a wire name to a struct field.  get returns the wire value
// for scalars, an Entity for has-one and []Entity for has-many along with
// whether the value should be serialized.
type field struct {
	name  string
	kind  fieldKind
	set   func(v interface{}, b *builder) error
	get   func() (interface{}, bool)
	check func() error
}

var nopLogger logrus.FieldLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}()

type builder struct {
	mode Mode
	log  logrus.FieldLogger
	// lenient skips values that fail cleaning.  Set for service
	// responses so one odd field cannot hide the result.
	lenient bool
}

func (b *builder) build(e Entity, f Fields) error {
	if d, ok := e.(interface{ setDefaults() }); ok {
		d.setDefaults()
	}
	table := e.fields()
	var keys = make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fd, ok := lookupField(table, k)
		if !ok {
			if b.mode == Strict {
				return invalid(CodeInvalidField, k, "not a field of %s", entityName(e))
			}
			b.log.WithField("field", k).Debugf("ignoring unknown field of %s", entityName(e))
			continue
		}
		if err := fd.set(f[k], b); err != nil {
			if !b.lenient {
				return err
			}
			b.log.WithError(err).WithField("field", k).Debugf("skipping invalid field of %s", entityName(e))
		}
	}
	return nil
}

func lookupField(table []field, name string) (field, bool) {
	for _, fd := range table {
		if fd.name == name {
			return fd, true
		}
	}
	return field{}, false
}

func entityName(e Entity) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", e), "*avatax.")
}

type entityPtr[T any] interface {
	*T
	Entity
}

// construct returns a new entity built from f.  f is not modified.
func construct[T any, P entityPtr[T]](f Fields, mode Mode, log logrus.FieldLogger) (*T, error) {
	if log == nil {
		log = nopLogger
	}
	var t = new(T)
	if err := (&builder{mode: mode, log: log}).build(P(t), f); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the fields of e, then its nested entities, then the
// entity's own cross-field rules.
func Validate(e Entity) error {
	if e == nil {
		return misuse(CodeNilEntity, "nil entity")
	}
	table := e.fields()
	for _, fd := range table {
		if fd.check != nil {
			if err := fd.check(); err != nil {
				return err
			}
		}
	}
	for _, fd := range table {
		if fd.kind == scalarKind {
			continue
		}
		v, ok := fd.get()
		if !ok {
			continue
		}
		if err := validateNested(v); err != nil {
			return prefixField(err, fd.name)
		}
	}
	return e.validate()
}

func validateNested(v interface{}) error {
	switch x := v.(type) {
	case Entity:
		return Validate(x)
	case []Entity:
		for _, item := range x {
			if err := Validate(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// Serialize validates e and returns its wire form: scalars in declared
// order (absent ones skipped), then has-one entities, then has-many
// lists.
func Serialize(e Entity) (Payload, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	return lower(e), nil
}

func lower(e Entity) Payload {
	table := e.fields()
	var p = make(Payload, 0, len(table))
	for _, kind := range []fieldKind{scalarKind, hasOneKind, hasManyKind} {
		for _, fd := range table {
			if fd.kind != kind {
				continue
			}
			v, ok := fd.get()
			if !ok {
				continue
			}
			switch x := v.(type) {
			case Entity:
				p = append(p, Pair{Key: fd.name, Value: lower(x)})
			case []Entity:
				var list = make([]Payload, 0, len(x))
				for _, item := range x {
					list = append(list, lower(item))
				}
				p = append(p, Pair{Key: fd.name, Value: list})
			default:
				p = append(p, Pair{Key: fd.name, Value: v})
			}
		}
	}
	return p
}

func prefixField(err error, name string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		fld := name
		if ve.Field != "" {
			fld = name + "." + ve.Field
		}
		return &ValidationError{Code: ve.Code, Field: fld, Message: ve.Message}
	}
	return err
}

func stringField(name string, dst *string, max int) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			s, err := toString(v)
			if err != nil {
				return invalid(CodeBadString, name, "%v", err)
			}
			if err := checkLength(name, s, max); err != nil {
				return err
			}
			*dst = s
			return nil
		},
		get: func() (interface{}, bool) {
			return *dst, *dst != ""
		},
		check: func() error {
			return checkLength(name, *dst, max)
		},
	}
}

func checkLength(name, s string, max int) error {
	if max > 0 && len([]rune(s)) > max {
		return invalid(CodeTooLong, name, "%q is longer than %d characters", s, max)
	}
	return nil
}

func enumField[T ~string](name string, dst *T, valid func(T) bool) field {
	chk := func(val T) error {
		if val != "" && !valid(val) {
			return invalid(CodeBadEnum, name, "%q is not a valid value", string(val))
		}
		return nil
	}
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			s, err := toString(v)
			if err != nil {
				return invalid(CodeBadEnum, name, "%v", err)
			}
			if err := chk(T(s)); err != nil {
				return err
			}
			*dst = T(s)
			return nil
		},
		get: func() (interface{}, bool) {
			return string(*dst), *dst != ""
		},
		check: func() error {
			return chk(*dst)
		},
	}
}

func decimalField(name string, dst *decimal.Decimal) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			d, err := toDecimal(v)
			if err != nil {
				return invalid(CodeBadNumber, name, "%v", err)
			}
			*dst = d
			return nil
		},
		get: func() (interface{}, bool) {
			return *dst, true
		},
	}
}

// optDecimalField is serialized only when set.
func optDecimalField(name string, dst **decimal.Decimal) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			if v == nil {
				*dst = nil
				return nil
			}
			d, err := toDecimal(v)
			if err != nil {
				return invalid(CodeBadNumber, name, "%v", err)
			}
			*dst = &d
			return nil
		},
		get: func() (interface{}, bool) {
			if *dst == nil {
				return nil, false
			}
			return **dst, true
		},
	}
}

func intField(name string, dst *int) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			i, err := toInt(v)
			if err != nil {
				return invalid(CodeBadInt, name, "%v", err)
			}
			*dst = i
			return nil
		},
		get: func() (interface{}, bool) {
			return *dst, true
		},
	}
}

func boolField(name string, dst *bool) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			switch x := v.(type) {
			case nil:
				*dst = false
			case bool:
				*dst = x
			default:
				return invalid(CodeBadBool, name, "must be true or false; got %T", v)
			}
			return nil
		},
		get: func() (interface{}, bool) {
			return *dst, true
		},
	}
}

func dateField(name string, dst *Date) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			d, err := toDate(v)
			if err != nil {
				return invalid(CodeBadDate, name, "%v", err)
			}
			*dst = d
			return nil
		},
		get: func() (interface{}, bool) {
			return dst.String(), !dst.IsNil()
		},
	}
}

func datetimeField(name string, dst *Datetime) field {
	return field{
		name: name,
		set: func(v interface{}, _ *builder) error {
			var dt Datetime
			switch x := v.(type) {
			case nil:
			case Datetime:
				dt = x
			case time.Time:
				dt = TimeToDatetime(x)
			case string:
				var err error
				if dt, err = ParseDatetime(x); err != nil {
					return invalid(CodeBadDate, name, "%v", err)
				}
			default:
				return invalid(CodeBadDate, name, "expected a timestamp; got %T", v)
			}
			*dst = dt
			return nil
		},
		get: func() (interface{}, bool) {
			return dst.String(), !dst.IsNil()
		},
	}
}

func hasOne[T any, P entityPtr[T]](name string, dst **T) field {
	return field{
		name: name,
		kind: hasOneKind,
		set: func(v interface{}, b *builder) error {
			if v == nil {
				*dst = nil
				return nil
			}
			t, err := buildNested[T, P](v, b)
			if err != nil {
				return prefixField(err, name)
			}
			*dst = t
			return nil
		},
		get: func() (interface{}, bool) {
			if *dst == nil {
				return nil, false
			}
			return Entity(P(*dst)), true
		},
	}
}

func hasMany[T any, P entityPtr[T]](name string, dst *[]*T) field {
	return field{
		name: name,
		kind: hasManyKind,
		set: func(v interface{}, b *builder) error {
			switch x := v.(type) {
			case nil:
				return nil
			case []*T:
				*dst = append(*dst, x...)
				return nil
			case []T:
				for i := range x {
					item := x[i]
					*dst = append(*dst, &item)
				}
				return nil
			}
			items, ok := asList(v)
			if !ok {
				return invalid(CodeBadNested, name, "expected a list; got %T", v)
			}
			var list = make([]*T, 0, len(items))
			for i, item := range items {
				t, err := buildNested[T, P](item, b)
				if err != nil {
					return prefixField(err, fmt.Sprintf("%s[%d]", name, i))
				}
				list = append(list, t)
			}
			*dst = append(*dst, list...)
			return nil
		},
		get: func() (interface{}, bool) {
			if len(*dst) == 0 {
				return nil, false
			}
			var list = make([]Entity, 0, len(*dst))
			for _, t := range *dst {
				list = append(list, P(t))
			}
			return list, true
		},
		check: func() error {
			for i, t := range *dst {
				if t == nil {
					return misuse(CodeNilEntity, "%s[%d] is nil", name, i)
				}
			}
			return nil
		},
	}
}

func buildNested[T any, P entityPtr[T]](v interface{}, b *builder) (*T, error) {
	switch x := v.(type) {
	case *T:
		if x == nil {
			return nil, invalid(CodeBadNested, "", "nil entity")
		}
		return x, nil
	case T:
		return &x, nil
	}
	f, ok := asFields(v)
	if !ok {
		return nil, invalid(CodeBadNested, "", "expected an object; got %T", v)
	}
	var t = new(T)
	if err := b.build(P(t), f); err != nil {
		return nil, err
	}
	return t, nil
}

func asList(v interface{}) ([]interface{}, bool) {
	var list []interface{}
	switch x := v.(type) {
	case []interface{}:
		return x, true
	case []Fields:
		for _, f := range x {
			list = append(list, f)
		}
	case []map[string]interface{}:
		for _, f := range x {
			list = append(list, f)
		}
	case []Payload:
		for _, p := range x {
			list = append(list, p)
		}
	default:
		return nil, false
	}
	return list, true
}

func toString(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case jx.Num:
		return x.String(), nil
	case json.Number:
		return x.String(), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case decimal.Decimal:
		return x.String(), nil
	}
	return "", errors.Errorf("expected a string; got %T", v)
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, nil
		}
		return *x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, errors.Errorf("%v is not a number", x)
		}
		return decimal.NewFromFloat(x), nil
	case jx.Num:
		return decimal.NewFromString(x.String())
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return decimal.NewFromString(s)
		}
		return decimal.Zero, nil
	}
	return decimal.Zero, errors.Errorf("expected a number; got %T", v)
}

func toInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, errors.Errorf("%v is not an integer", x)
		}
		return int(x), nil
	case decimal.Decimal:
		if !x.IsInteger() {
			return 0, errors.Errorf("%v is not an integer", x)
		}
		return int(x.IntPart()), nil
	case jx.Num:
		i, err := x.Int64()
		return int(i), err
	case json.Number:
		i, err := x.Int64()
		return int(i), err
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return strconv.Atoi(s)
		}
		return 0, nil
	}
	return 0, errors.Errorf("expected an integer; got %T", v)
}

func toDate(v interface{}) (Date, error) {
	switch x := v.(type) {
	case nil:
		return Date{}, nil
	case Date:
		return x, nil
	case *Date:
		if x == nil {
			return Date{}, nil
		}
		return *x, nil
	case time.Time:
		return TimeToDate(x), nil
	case *time.Time:
		if x == nil {
			return Date{}, nil
		}
		return TimeToDate(*x), nil
	case string:
		// timestamps returned for date fields keep only the day
		if len(x) > 10 && x[10] == 'T' {
			x = x[:10]
		}
		return ParseDate(x)
	}
	return Date{}, errors.Errorf("expected a YYYY-MM-DD date; got %T", v)
}

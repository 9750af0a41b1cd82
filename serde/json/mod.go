// Package json implements the context engine for a the JSON format.
//
// The engine is strict: unknown fields, keys that only match a field when the
// case is ignored, duplicate keys and trailing data are rejected so that a
// stored record can only be read back as exactly the schema it was written
// with.
package json

import (
	"bytes"
	"encoding"
	"encoding/json"
	"io"
	"reflect"
	"strings"

	// Static registration of the JSON formats. By having them here, it ensures
	// that an import of the JSON context engine will import the definitions.
	_ "go.missionstake.io/stake/contracts/mission/json"
	"go.missionstake.io/stake/serde"
	"golang.org/x/xerrors"
)

// jsonEngine is a context engine to marshal and unmarshal in JSON format.
//
// - implements serde.ContextEngine
type jsonEngine struct{}

// NewContext returns a JSON context.
func NewContext() serde.Context {
	return serde.NewContext(jsonEngine{})
}

// GetFormat implements serde.ContextEngine. It returns the JSON format name.
func (ctx jsonEngine) GetFormat() serde.Format {
	return serde.FormatJSON
}

// Marshal implements serde.ContextEngine. It returns the bytes of the message
// marshaled in JSON format.
func (ctx jsonEngine) Marshal(m interface{}) ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine. It populates the message using the
// JSON format definition.
func (ctx jsonEngine) Unmarshal(data []byte, m interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err := dec.Decode(m)
	if err != nil {
		return err
	}

	_, err = dec.Token()
	if err != io.EOF {
		return xerrors.New("unexpected data after JSON value")
	}

	err = checkKeys(json.NewDecoder(bytes.NewReader(data)), reflect.TypeOf(m))
	if err != nil {
		return err
	}

	return nil
}

var (
	jsonUnmarshaler = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshaler = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// checkKeys walks the next value of the decoder alongside the type it is
// decoded into. Every object must have unique keys and, when the type is a
// struct, each key must be the exact name of one of its fields. A nil type
// only checks the uniqueness.
func checkKeys(dec *json.Decoder, t reflect.Type) error {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t != nil && (reflect.PtrTo(t).Implements(jsonUnmarshaler) ||
		reflect.PtrTo(t).Implements(textUnmarshaler)) {
		t = nil
	}

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		var fields map[string]reflect.Type
		if t != nil && t.Kind() == reflect.Struct {
			fields = make(map[string]reflect.Type)
			fieldsOf(t, fields)
		}

		seen := make(map[string]struct{})

		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}

			key, _ := tok.(string)

			_, found := seen[key]
			if found {
				return xerrors.Errorf("duplicate field %q", key)
			}

			seen[key] = struct{}{}

			var next reflect.Type

			switch {
			case fields != nil:
				next, found = fields[key]
				if !found {
					return xerrors.Errorf("field %q does not match the schema", key)
				}
			case t != nil && t.Kind() == reflect.Map:
				next = t.Elem()
			}

			err = checkKeys(dec, next)
			if err != nil {
				return err
			}
		}
	case '[':
		var next reflect.Type
		if t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
			next = t.Elem()
		}

		for dec.More() {
			err = checkKeys(dec, next)
			if err != nil {
				return err
			}
		}
	}

	// Closing delimiter.
	_, err = dec.Token()

	return err
}

// fieldsOf fills the map with the JSON names of the exported fields of the
// struct type, including the ones of embedded structs.
func fieldsOf(t reflect.Type, fields map[string]reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}

		name := strings.Split(tag, ",")[0]

		if field.Anonymous && name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}

			if ft.Kind() == reflect.Struct {
				fieldsOf(ft, fields)
				continue
			}
		}

		if field.PkgPath != "" {
			continue
		}

		if name == "" {
			name = field.Name
		}

		fields[name] = field.Type
	}
}

// Package textprint prints values in plain text, either one value per line
// with a format string or as a table with one column per struct field.
package textprint

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

type encodeFunc func(io.Writer, reflect.Value) error

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// encodeFuncOf returns the function printing the values of type t in a table
// cell. Nil pointers print as "(none)" and slices as comma separated lists.
func encodeFuncOf(t reflect.Type) encodeFunc {
	switch {
	case t.Kind() == reflect.Pointer:
		encode := encodeFuncOf(t.Elem())
		return func(w io.Writer, v reflect.Value) error {
			if v.IsNil() {
				_, err := io.WriteString(w, "(none)")
				return err
			}
			return encode(w, v.Elem())
		}
	case t.Implements(stringerType):
		return func(w io.Writer, v reflect.Value) error {
			_, err := io.WriteString(w, v.Interface().(fmt.Stringer).String())
			return err
		}
	case t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8:
		encode := encodeFuncOf(t.Elem())
		return func(w io.Writer, v reflect.Value) error {
			items := make([]string, v.Len())
			for i := range items {
				var b strings.Builder
				if err := encode(&b, v.Index(i)); err != nil {
					return err
				}
				items[i] = b.String()
			}
			_, err := io.WriteString(w, strings.Join(items, ", "))
			return err
		}
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(w io.Writer, v reflect.Value) error {
			_, err := fmt.Fprint(w, v.Interface())
			return err
		}
	default:
		panic("cannot encode values of type " + t.String())
	}
}

func encodeFuncOfStructField(t reflect.Type, index []int) encodeFunc {
	encode := encodeFuncOf(t)
	return func(w io.Writer, v reflect.Value) error {
		return encode(w, v.FieldByIndex(index))
	}
}

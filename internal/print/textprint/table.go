package textprint

import (
	"io"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/stealthrocket/unapi/internal/stream"
)

type TableOption[T any] func(*tableWriter[T])

// Header enables the first line naming the columns, on by default.
func Header[T any](enable bool) TableOption[T] {
	return func(t *tableWriter[T]) { t.header = enable }
}

// OrderBy sorts rows before they are written.
func OrderBy[T any](cmp func(T, T) int) TableOption[T] {
	return func(t *tableWriter[T]) { t.orderBy = cmp }
}

// NewTableWriter returns a writer printing values of the struct type T as the
// rows of a table, one column per exported field. Columns are named by the
// "text" field tag, and fields tagged "-" are omitted.
//
// Rows are aligned when the writer is closed.
func NewTableWriter[T any](w io.Writer, opts ...TableOption[T]) stream.WriteCloser[T] {
	t := &tableWriter[T]{
		output: w,
		header: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type tableWriter[T any] struct {
	output  io.Writer
	values  []T
	header  bool
	orderBy func(T, T) int
}

type column struct {
	name   string
	encode encodeFunc
}

func (t *tableWriter[T]) Write(values []T) (int, error) {
	t.values = append(t.values, values...)
	return len(values), nil
}

func (t *tableWriter[T]) Close() error {
	if t.orderBy != nil {
		slices.SortFunc(t.values, t.orderBy)
	}

	columns := columnsOf(reflect.TypeOf(t.values).Elem())
	tw := tabwriter.NewWriter(t.output, 0, 4, 2, ' ', 0)
	b := new(strings.Builder)

	if t.header {
		for i, c := range columns {
			if i != 0 {
				b.WriteByte('\t')
			}
			b.WriteString(c.name)
		}
		b.WriteByte('\n')
	}

	for i := range t.values {
		v := reflect.ValueOf(&t.values[i]).Elem()
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		for i, c := range columns {
			if i != 0 {
				b.WriteByte('\t')
			}
			if err := c.encode(b, v); err != nil {
				return err
			}
		}
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(tw, b.String()); err != nil {
		return err
	}
	return tw.Flush()
}

func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var columns []column
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("text"), ","); tag != "" {
			name = tag
		}
		if name == "-" {
			continue
		}
		columns = append(columns, column{
			name:   name,
			encode: encodeFuncOfStructField(f.Type, f.Index),
		})
	}
	return columns
}

// Package csvutil turns ordered flat records into CSV text.
//
// The header row is taken from the first record's keys. Cells containing a
// comma, a double quote or a line break are quoted with inner quotes doubled.
// Rows are separated by "\n" with no separator after the last row. A row made
// of a single empty cell is written as "" so it is not read as a blank line.
// Non-scalar values are JSON-encoded into a single cell.
package csvutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Field is one named cell
type Field struct {
	Key   string
	Value any
}

// Record is a flat row; its field order is the column order
type Record []Field

// Get returns the value stored under key
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in order
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Write streams records as CSV to w. Records missing a header key get an
// empty cell; keys not in the header are ignored. No records writes nothing.
func Write(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	header := records[0].Keys()

	if err := writeRow(bw, header); err != nil {
		return err
	}

	cells := make([]string, len(header))
	for _, rec := range records {
		values := make(map[string]any, len(rec))
		for _, f := range rec {
			if _, seen := values[f.Key]; !seen {
				values[f.Key] = f.Value
			}
		}
		for i, key := range header {
			v, ok := values[key]
			if !ok {
				cells[i] = ""
				continue
			}
			cells[i] = FormatCell(v)
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
		if err := writeRow(bw, cells); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String is Write into a string
func String(records []Record) string {
	var sb strings.Builder
	_ = Write(&sb, records)
	return sb.String()
}

func writeRow(w *bufio.Writer, cells []string) error {
	if len(cells) == 1 && cells[0] == "" {
		_, err := w.WriteString(`""`)
		return err
	}
	for i, c := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(Quote(c)); err != nil {
			return err
		}
	}
	return nil
}

// Quote wraps s in double quotes when it contains a comma, a quote or a line break
func Quote(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatCell renders a value as cell text. Scalars use their plain form,
// nil and nil containers are empty, everything else is JSON. A value that
// cannot be JSON-encoded falls back to its fmt representation.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return FormatCell(rv.Elem().Interface())
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return ""
		}
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}
	return encodeJSON(v)
}

func encodeJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

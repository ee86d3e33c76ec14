// internal/models/row.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one column of a result row.
type Field struct {
	Name  string
	Value interface{}
}

// Row is an ordered field mapping. Column order follows the SELECT list and
// is preserved through JSON encoding.
type Row []Field

// NewRow builds a row from alternating name, value pairs.
func NewRow(pairs ...interface{}) Row {
	row := make(Row, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		row = append(row, Field{Name: name, Value: pairs[i+1]})
	}
	return row
}

// Get returns the value of the named column.
func (r Row) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(f.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	out := Row{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var val interface{}
		if err := dec.Decode(&val); err != nil {
			return err
		}
		out = append(out, Field{Name: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// PromptJSON renders v as compact JSON without HTML escaping, for embedding
// result rows and parameters in model prompts. Nil row slices render as [].
func PromptJSON(v interface{}) string {
	if rows, ok := v.([]Row); ok && rows == nil {
		return "[]"
	}

	data, err := marshalNoEscape(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

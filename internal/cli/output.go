package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/syssam/recordkit/mapper"
	"github.com/syssam/recordkit/record"
)

// encode writes v in format. Typed values are serialized back through m
// and records keep their column order in every format.
func encode(w io.Writer, format string, v any, m mapper.ValueMapper) error {
	v = plain(v, m)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		node, err := yamlNode(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(v)
	case "table":
		return renderTables(w, v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// plain converts v into scalars, lists and records. Values the mapper
// cannot serialize are formatted with fmt.
func plain(v any, m mapper.ValueMapper) any {
	switch v := v.(type) {
	case *record.Row:
		out := record.NewRow(v.Len())
		v.Range(func(name string, val any) bool {
			out.Set(name, plain(val, m))
			return true
		})
		return orderedRow{out}
	case []*record.Row:
		out := make([]any, len(v))
		for i, r := range v {
			out[i] = plain(r, m)
		}
		return out
	case [][]*record.Row:
		out := make([]any, len(v))
		for i, rows := range v {
			out[i] = plain(rows, m)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plain(e, m)
		}
		return out
	}
	if mapper.IsScalar(v) {
		return v
	}
	if m != nil {
		if raw, ok := m.ValueForObject(v); ok {
			return raw
		}
	}
	return fmt.Sprint(v)
}

// orderedRow encodes a record as a map in column order.
type orderedRow struct {
	*record.Row
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (r orderedRow) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(r.Len()); err != nil {
		return err
	}
	var err error
	r.Range(func(name string, v any) bool {
		if err = enc.EncodeString(name); err != nil {
			return false
		}
		err = enc.Encode(v)
		return err == nil
	})
	return err
}

func yamlNode(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case orderedRow:
		node := &yaml.Node{Kind: yaml.MappingNode}
		var err error
		v.Range(func(name string, val any) bool {
			var child *yaml.Node
			if child, err = yamlNode(val); err != nil {
				return false
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, child)
			return true
		})
		return node, err
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v {
			child, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	}
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return node, nil
}

// renderTables writes one table per result list.
func renderTables(w io.Writer, v any) error {
	list, _ := v.([]any)
	if len(list) > 0 {
		if _, nested := list[0].([]any); nested {
			for _, rows := range list {
				if err := renderTables(w, rows); err != nil {
					return err
				}
			}
			return nil
		}
	}
	rows := make([]orderedRow, 0, len(list))
	for _, e := range list {
		if r, ok := e.(orderedRow); ok {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	// Columns are the union of all record fields in first-seen order.
	var cols []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, name := range r.Keys() {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, r := range rows {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = cell(r.Value(c))
		}
		t.AppendRow(row)
	}
	t.Render()
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case orderedRow:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v.Map())
		}
		return string(b)
	case []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v...)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

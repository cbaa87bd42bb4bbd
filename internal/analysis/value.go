package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoDocument is returned when no analysis result was supplied
var ErrNoDocument = errors.New("no analysis result provided")

// ErrInvalidDocument is returned when the analysis result is not valid JSON
var ErrInvalidDocument = errors.New("invalid analysis result")

// Kind identifies the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSeq
	KindMap
)

// Value is a node of a parsed analysis result
type Value interface {
	Kind() Kind
}

// Map is a JSON object that remembers key order
type Map struct {
	keys   []string
	values map[string]Value
}

// Seq is a JSON array
type Seq []Value

// String is a JSON string
type String string

// Number keeps the literal text of a JSON number
type Number string

// Bool is a JSON boolean
type Bool bool

// Null is the JSON null literal
type Null struct{}

func (*Map) Kind() Kind   { return KindMap }
func (Seq) Kind() Kind    { return KindSeq }
func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Null) Kind() Kind   { return KindNull }

// NewMap returns an empty ordered map
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores v under key. A repeated key keeps its first position.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get looks up key
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in document order
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of keys
func (m *Map) Len() int {
	return len(m.keys)
}

// Int64 reports the value of an integral literal. Literals with a fraction or
// exponent are not integers even when their value is whole.
func (n Number) Int64() (int64, bool) {
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Float64 parses the literal as a float
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Parse decodes a JSON document into a Value tree
func Parse(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	v, err := parseValue(dec, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrInvalidDocument)
	}

	return v, nil
}

func parseValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := parseValue(dec, valTok)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := Seq{}
			for dec.More() {
				elemTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := parseValue(dec, elemTok)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// Load reads an analysis result from a file path, inline JSON text, or
// stdin when arg is empty.
func Load(arg string, stdin io.Reader) (Value, error) {
	if arg != "" {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			data, err := os.ReadFile(arg)
			if err != nil {
				return nil, fmt.Errorf("failed to read analysis result %s: %w", arg, err)
			}
			return Parse(bytes.NewReader(data))
		}
		return Parse(strings.NewReader(arg))
	}

	if stdin == nil {
		return nil, ErrNoDocument
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis result from stdin: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoDocument
	}

	return Parse(bytes.NewReader(data))
}

// lookup walks a chain of object keys and returns the value at the end
func lookup(v Value, path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		m, ok := cur.(*Map)
		if !ok {
			return nil, false
		}
		cur, ok = m.Get(key)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// contents returns result.contents and whether it was a sequence
func contents(doc Value) (Seq, bool) {
	v, ok := lookup(doc, "result", "contents")
	if !ok {
		return nil, false
	}
	seq, ok := v.(Seq)
	return seq, ok
}

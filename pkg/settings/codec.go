package settings

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// The setting table stores values in the serialized text encoding of the
// upstream CMS: s:<len>:"...";, i:<n>;, d:<float>;, b:<0|1>;, N;, and
// a:<len>:{<key><value>...}. Decode turns that into plain Go values
// (string, int64, float64, bool, nil, []interface{},
// map[string]interface{}); Encode is its inverse.

// Decode parses a serialized value.
func Decode(raw string) (interface{}, error) {
	p := &parser{input: raw}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return value, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) next() (byte, error) {
	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("unexpected end of input at %d", p.pos)
	}
	c := p.input[p.pos]
	p.pos++
	return c, nil
}

func (p *parser) expect(want byte) error {
	c, err := p.next()
	if err != nil {
		return err
	}
	if c != want {
		return fmt.Errorf("expected %q at %d, got %q", want, p.pos-1, c)
	}
	return nil
}

// readUntil consumes up to and including the delimiter and returns the
// text before it.
func (p *parser) readUntil(delim byte) (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		if p.input[p.pos] == delim {
			text := p.input[start:p.pos]
			p.pos++
			return text, nil
		}
		p.pos++
	}
	return "", fmt.Errorf("missing %q after %d", delim, start)
}

// expectQuote accepts a quote, optionally preceded by a backslash; dumps
// of the upstream data sometimes escape the quotes.
func (p *parser) expectQuote() error {
	c, err := p.next()
	if err != nil {
		return err
	}
	if c == '\\' {
		c, err = p.next()
		if err != nil {
			return err
		}
	}
	if c != '"' {
		return fmt.Errorf("expected quote at %d, got %q", p.pos-1, c)
	}
	return nil
}

func (p *parser) parseValue() (interface{}, error) {
	tag, err := p.next()
	if err != nil {
		return nil, err
	}

	switch tag {
	case 's':
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		lenText, err := p.readUntil(':')
		if err != nil {
			return nil, err
		}
		length, err := strconv.Atoi(lenText)
		if err != nil {
			return nil, fmt.Errorf("invalid string length %q", lenText)
		}
		if err := p.expectQuote(); err != nil {
			return nil, err
		}
		if p.pos+length > len(p.input) {
			return nil, fmt.Errorf("string of length %d overruns input", length)
		}
		text := p.input[p.pos : p.pos+length]
		p.pos += length
		if err := p.expectQuote(); err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		return text, nil

	case 'i':
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		text, err := p.readUntil(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", text)
		}
		return n, nil

	case 'd':
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		text, err := p.readUntil(';')
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", text)
		}
		return f, nil

	case 'b':
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		c, err := p.next()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		switch c {
		case '0':
			return false, nil
		case '1':
			return true, nil
		default:
			return nil, fmt.Errorf("invalid bool %q", c)
		}

	case 'N':
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		return nil, nil

	case 'a':
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		if _, err := p.readUntil(':'); err != nil {
			return nil, err
		}
		if err := p.expect('{'); err != nil {
			return nil, err
		}
		type entry struct {
			key   interface{}
			value interface{}
		}
		var entries []entry
		for {
			if p.pos < len(p.input) && p.input[p.pos] == '}' {
				p.pos++
				break
			}
			key, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			value, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{key: key, value: value})
		}

		// Sequential integer keys starting at zero mean a list.
		isList := true
		for i, e := range entries {
			if k, ok := e.key.(int64); !ok || k != int64(i) {
				isList = false
				break
			}
		}
		if isList {
			list := make([]interface{}, len(entries))
			for i, e := range entries {
				list[i] = e.value
			}
			return list, nil
		}

		object := make(map[string]interface{}, len(entries))
		for _, e := range entries {
			switch k := e.key.(type) {
			case string:
				object[k] = e.value
			case int64:
				object[strconv.FormatInt(k, 10)] = e.value
			default:
				return nil, fmt.Errorf("unsupported key type %T", e.key)
			}
		}
		return object, nil

	default:
		return nil, fmt.Errorf("unsupported token %q at %d", tag, p.pos-1)
	}
}

// Encode serializes a value back into the legacy encoding. Integral
// float64 values become integers, so values that passed through JSON
// round-trip cleanly. Map keys are emitted in sorted order to keep the
// output deterministic.
func Encode(value interface{}) (string, error) {
	var b strings.Builder
	if err := encodeValue(&b, value); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeValue(b *strings.Builder, value interface{}) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("N;")
	case bool:
		if v {
			b.WriteString("b:1;")
		} else {
			b.WriteString("b:0;")
		}
	case string:
		fmt.Fprintf(b, `s:%d:"%s";`, len(v), v)
	case int:
		fmt.Fprintf(b, "i:%d;", v)
	case int64:
		fmt.Fprintf(b, "i:%d;", v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
			fmt.Fprintf(b, "i:%d;", int64(v))
		} else {
			fmt.Fprintf(b, "d:%s;", strconv.FormatFloat(v, 'g', -1, 64))
		}
	case []interface{}:
		fmt.Fprintf(b, "a:%d:{", len(v))
		for i, item := range v {
			fmt.Fprintf(b, "i:%d;", i)
			if err := encodeValue(b, item); err != nil {
				return err
			}
		}
		b.WriteString("}")
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(b, "a:%d:{", len(v))
		for _, k := range keys {
			if n, err := strconv.ParseInt(k, 10, 64); err == nil {
				fmt.Fprintf(b, "i:%d;", n)
			} else {
				fmt.Fprintf(b, `s:%d:"%s";`, len(k), k)
			}
			if err := encodeValue(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteString("}")
	default:
		return fmt.Errorf("unsupported value type %T", value)
	}
	return nil
}

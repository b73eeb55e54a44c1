package pipewire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SPAToJSON rewrites relaxed SPA-JSON, as found in PipeWire config files and
// in the args string of pw-dump modules, into strict JSON. Keys may be bare,
// "=" or ":" separate keys from values, commas are optional and "#" starts a
// comment. Text without an enclosing object is read as object members.
func SPAToJSON(s string) ([]byte, error) {
	p := &spaParser{s: s}
	var buf bytes.Buffer

	p.skip()
	var err error
	if p.more() && (p.peek() == '{' || p.peek() == '[') {
		err = p.value(&buf)
	} else {
		err = p.members(&buf, 0)
	}
	if err != nil {
		return nil, err
	}

	p.skip()
	if p.more() {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	return buf.Bytes(), nil
}

type spaParser struct {
	s   string
	pos int
}

func (p *spaParser) more() bool { return p.pos < len(p.s) }

func (p *spaParser) peek() byte { return p.s[p.pos] }

func (p *spaParser) errorf(format string, args ...any) error {
	return fmt.Errorf("spa-json offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

// skip steps over whitespace, commas and comments
func (p *spaParser) skip() {
	for p.more() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n', ',':
			p.pos++
		case '#':
			for p.more() && p.peek() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// members reads key/value pairs up to end, or to end of input when end is
// zero, and writes them as a JSON object.
func (p *spaParser) members(buf *bytes.Buffer, end byte) error {
	buf.WriteByte('{')
	first := true
	for {
		p.skip()
		if !p.more() {
			if end != 0 {
				return p.errorf("missing %q", end)
			}
			break
		}
		if p.peek() == end {
			p.pos++
			break
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		if err := p.key(buf); err != nil {
			return err
		}
		buf.WriteByte(':')

		p.skip()
		if p.more() && (p.peek() == '=' || p.peek() == ':') {
			p.pos++
		}
		p.skip()
		if err := p.value(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (p *spaParser) elements(buf *bytes.Buffer) error {
	buf.WriteByte('[')
	first := true
	for {
		p.skip()
		if !p.more() {
			return p.errorf("missing ']'")
		}
		if p.peek() == ']' {
			p.pos++
			break
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		if err := p.value(buf); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func (p *spaParser) key(buf *bytes.Buffer) error {
	if p.peek() == '"' {
		return p.str(buf)
	}
	word := p.bare(true)
	if word == "" {
		return p.errorf("unexpected %q", p.peek())
	}
	return writeString(buf, word)
}

func (p *spaParser) value(buf *bytes.Buffer) error {
	if !p.more() {
		return p.errorf("missing value")
	}

	switch p.peek() {
	case '{':
		p.pos++
		return p.members(buf, '}')
	case '[':
		p.pos++
		return p.elements(buf)
	case '"':
		return p.str(buf)
	}

	word := p.bare(false)
	if word == "" {
		return p.errorf("unexpected %q", p.peek())
	}
	if json.Valid([]byte(word)) {
		buf.WriteString(word)
		return nil
	}
	return writeString(buf, word)
}

// str copies a quoted string, re-encoding it when its escapes are not
// valid JSON.
func (p *spaParser) str(buf *bytes.Buffer) error {
	start := p.pos
	p.pos++
	for p.more() {
		switch p.peek() {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			quoted := p.s[start:p.pos]
			if json.Valid([]byte(quoted)) {
				buf.WriteString(quoted)
				return nil
			}
			return writeString(buf, quoted[1:len(quoted)-1])
		}
		p.pos++
	}
	p.pos = start
	return p.errorf("unterminated string")
}

// bare reads an unquoted word. Keys also stop at "=" and ":" so that
// "key:value" splits; values keep ":" so "100:3:1" stays whole.
func (p *spaParser) bare(isKey bool) string {
	start := p.pos
	for p.more() {
		c := p.peek()
		switch c {
		case ' ', '\t', '\r', '\n', ',', '{', '}', '[', ']', '"', '#':
			return p.s[start:p.pos]
		case '=', ':':
			if isKey {
				return p.s[start:p.pos]
			}
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

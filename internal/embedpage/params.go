package embedpage

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Pair is a single key/value argument.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Params is the Request Parameter Set: string keys to string values in the
// order they were received.
//
// A Params value is not safe for concurrent mutation. Rendering only reads it.
type Params struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{m: orderedmap.New[string, string]()}
}

// ParamsFromPairs builds a parameter set from pairs, applying Set to each
// in turn.
func ParamsFromPairs(pairs ...Pair) *Params {
	p := NewParams()
	for _, pair := range pairs {
		p.Set(pair.Key, pair.Value)
	}
	return p
}

// Set stores value under key. Setting an existing key replaces its value
// but keeps its original position.
func (p *Params) Set(key, value string) {
	p.m.Set(key, value)
}

// Get returns the value for key.
func (p *Params) Get(key string) (string, bool) {
	return p.m.Get(key)
}

// Len returns the number of parameters. A nil Params is empty.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return p.m.Len()
}

// Keys returns the parameter keys in order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, 0, p.m.Len())
	for el := p.m.Oldest(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Pairs returns the parameters in order.
func (p *Params) Pairs() []Pair {
	if p == nil {
		return nil
	}
	pairs := make([]Pair, 0, p.m.Len())
	for el := p.m.Oldest(); el != nil; el = el.Next() {
		pairs = append(pairs, Pair{Key: el.Key, Value: el.Value})
	}
	return pairs
}

// ParseQuery parses a raw URL query string (without the leading '?') into
// an ordered parameter set.
//
// Decoding matches how PHP fills $_GET, which the embed page was first
// written against:
//   - pieces are separated by '&'; empty pieces are skipped
//   - '+' decodes to a space, %XX to its byte; malformed escapes stay literal
//   - a piece without '=' has an empty value
//   - leading spaces are dropped from keys, then ' ' and '.' become '_'
//   - empty keys are dropped
//   - a repeated key keeps its first position and takes the last value
//
// PHP's array syntax is not modelled: "a[]=1&a[]=2" yields the single
// pair a[]=2, where PHP would build an array and the legacy page would
// print it as 'a', 'Array'.
//
// ParseQuery never fails.
func ParseQuery(rawQuery string) *Params {
	p := NewParams()
	for _, piece := range strings.Split(rawQuery, "&") {
		if piece == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(piece, "=")
		key := normaliseKey(unescape(rawKey))
		if key == "" {
			continue
		}
		p.Set(key, unescape(rawValue))
	}
	return p
}

// normaliseKey applies PHP's variable-name mangling for request keys.
func normaliseKey(key string) string {
	key = strings.TrimLeft(key, " ")
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' {
			return '_'
		}
		return r
	}, key)
}

// unescape decodes a query component leniently. Unlike url.QueryUnescape it
// never fails: a '%' not followed by two hex digits is kept as-is.
func unescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

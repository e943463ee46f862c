package query

import (
	"net/url"
	"strings"
)

// Param is one name/value pair of a query's parameter list.
type Param struct {
	Name  string
	Value string
}

// P builds a Param.
func P(name, value string) Param {
	return Param{Name: name, Value: value}
}

// Params is the ordered parameter list of one logical query. Order carries
// meaning: the same pairs in a different order are a different key.
type Params []Param

func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Get returns the value of the first parameter named name, or "".
func (p Params) Get(name string) string {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value
		}
	}
	return ""
}

func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Encode renders the list in query-string form, preserving order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

package jsonvalue

import (
	"strconv"
)

// Kind identifies the shape of a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

type (
	// Value is a decoded document value. Object members keep their source order.
	Value struct {
		kind    Kind
		text    string // string contents or number literal
		boolean bool
		members []Member
		items   []Value
	}
	// Member is one key/value pair of an object
	Member struct {
		Key   string
		Value Value
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func Null() Value {
	return Value{kind: KindNull}
}

func Bool(v bool) Value {
	return Value{kind: KindBool, boolean: v}
}

// Number keeps the literal as written in the source document.
func Number(literal string) Value {
	return Value{kind: KindNumber, text: literal}
}

func String(v string) Value {
	return Value{kind: KindString, text: v}
}

// Object builds an object value. A repeated key replaces the value of its
// first occurrence and keeps that position.
func Object(members ...Member) Value {
	ms := make([]Member, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := index[m.Key]; ok {
			ms[i].Value = m.Value
			continue
		}
		index[m.Key] = len(ms)
		ms = append(ms, m)
	}
	return Value{kind: KindObject, members: ms}
}

func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Pair is a shorthand for creating an object member
func Pair(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsScalar is true for strings, numbers and booleans
func (v Value) IsScalar() bool {
	return v.kind == KindBool || v.kind == KindNumber || v.kind == KindString
}

// Members returns the object members in source order, nil for any other kind.
func (v Value) Members() []Member {
	return v.members
}

// Items returns the list elements, nil for any other kind.
func (v Value) Items() []Value {
	return v.items
}

// Lookup returns the member value stored under key
func (v Value) Lookup(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Null(), false
}

// Has reports whether an object carries key, regardless of its value.
func (v Value) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// Text returns the string form of a scalar. Null and containers yield "".
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return ""
	}
}

// Truthy is false for null, false, zero, "" and empty containers.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil {
			return v.text != ""
		}
		return f != 0
	case KindString:
		return v.text != ""
	case KindObject:
		return len(v.members) > 0
	case KindList:
		return len(v.items) > 0
	default:
		return false
	}
}

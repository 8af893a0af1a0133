package jsonvalue

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	ErrSyntax       = errors.New("invalid document syntax")
	ErrPathNotFound = errors.New("path not found")
	ErrAliasCycle   = errors.New("yaml alias cycle")
)

// DecodeJSON decodes a single JSON document, preserving the order of object keys.
func DecodeJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, fmt.Errorf("%w: not a valid json document", ErrSyntax)
	}

	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	v, err := readValue(iter)
	if err != nil {
		return Value{}, err
	}
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return Value{}, fmt.Errorf("%w: %s", ErrSyntax, iter.Error.Error())
	}
	return v, nil
}

// Select narrows a JSON document down to the sub document found at path.
// An empty path returns data unchanged.
func Select(data []byte, path string) ([]byte, error) {
	if path == "" {
		return data, nil
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	return []byte(res.Raw), nil
}

// DecodeYAML decodes a single YAML document, preserving the order of mapping keys.
// An empty document decodes to null.
func DecodeYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("%w: %s", ErrSyntax, err.Error())
	}
	if doc.Kind == 0 {
		return Null(), nil
	}
	return fromYAML(&doc, map[*yaml.Node]bool{})
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func readValue(iter *jsoniter.Iterator) (Value, error) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null(), nil
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool()), nil
	case jsoniter.NumberValue:
		return Number(string(iter.ReadNumber())), nil
	case jsoniter.StringValue:
		return String(iter.ReadString()), nil
	case jsoniter.ArrayValue:
		var (
			items = []Value{}
			err   error
		)
		iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
			var item Value
			if item, err = readValue(iter); err != nil {
				return false
			}
			items = append(items, item)
			return true
		})
		if err != nil {
			return Value{}, err
		}
		return List(items...), nil
	case jsoniter.ObjectValue:
		var (
			members []Member
			err     error
		)
		iter.ReadObjectCB(func(iter *jsoniter.Iterator, key string) bool {
			var v Value
			if v, err = readValue(iter); err != nil {
				return false
			}
			members = append(members, Pair(key, v))
			return true
		})
		if err != nil {
			return Value{}, err
		}
		return Object(members...), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected token", ErrSyntax)
	}
}

func fromYAML(n *yaml.Node, expanding map[*yaml.Node]bool) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0], expanding)
	case yaml.AliasNode:
		if expanding[n.Alias] {
			return Value{}, fmt.Errorf("%w: %s", ErrAliasCycle, n.Value)
		}
		expanding[n.Alias] = true
		defer delete(expanding, n.Alias)
		return fromYAML(n.Alias, expanding)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromYAML(c, expanding)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAML(n.Content[i+1], expanding)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Pair(n.Content[i].Value, v))
		}
		return Object(members...), nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return Value{}, fmt.Errorf("%w: %s", ErrSyntax, err.Error())
			}
			return Bool(b), nil
		case "!!int", "!!float":
			return Number(n.Value), nil
		default:
			return String(n.Value), nil
		}
	default:
		return Value{}, fmt.Errorf("%w: unsupported yaml node kind %d", ErrSyntax, n.Kind)
	}
}

package outline

import (
	"strings"

	"github.com/foomo/jsonhtml/pkg/jsonvalue"
)

// Build converts a document value into an ordered node forest.
//
// A list yields one node per element. A nested list is attached as children
// of the node built right before it, as long as that node is not a section
// and has no children yet; otherwise it becomes a sibling section. An object
// yields exactly one node, a scalar one content node and null nothing.
func Build(v jsonvalue.Value) []*Node {
	switch v.Kind() {
	case jsonvalue.KindList:
		return buildList(v.Items())
	case jsonvalue.KindObject:
		return []*Node{buildObject(v)}
	case jsonvalue.KindNull:
		return nil
	default:
		return []*Node{{Content: v.Text()}}
	}
}

func buildList(items []jsonvalue.Value) []*Node {
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		if item.Kind() != jsonvalue.KindList {
			nodes = append(nodes, Build(item)...)
			continue
		}
		children := buildList(item.Items())
		if len(nodes) > 0 && nodes[len(nodes)-1].mergeable() {
			nodes[len(nodes)-1].Children = children
			continue
		}
		nodes = append(nodes, &Node{IsSection: true, Children: children})
	}
	return nodes
}

func buildObject(obj jsonvalue.Value) *Node {
	n := &Node{IsItem: obj.Has(KeyItem)}
	if class, ok := obj.Lookup(KeyClass); ok {
		n.Class, _ = Dispatch(class)
	}
	if children, ok := obj.Lookup(KeyChildren); ok {
		n.Children = Build(children)
	}

	var fragments []string
	for _, m := range obj.Members() {
		switch m.Key {
		case KeyClass, KeyChildren:
			continue
		case KeyItem, KeyText:
			if s, ok := Dispatch(m.Value); ok {
				fragments = append(fragments, s)
			}
		case KeyLink:
			fragments = append(fragments, FormatLink(m.Value))
		default:
			// a key without value is a header whose content follows as children
			if s, ok := Dispatch(m.Value); ok && s != "" {
				fragments = append(fragments, m.Key+" : "+s)
			} else {
				fragments = append(fragments, m.Key+" :")
			}
		}
	}
	n.Content = joinFragments(fragments)
	return n
}

func joinFragments(fragments []string) string {
	nonEmpty := fragments[:0]
	for _, f := range fragments {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " ")
}

package outline

import (
	"strings"

	"github.com/foomo/jsonhtml/pkg/jsonvalue"
)

// Dispatch converts v into its inline representation. It reports false when v has
// none, e.g. for null or an object without any truthy member.
func Dispatch(v jsonvalue.Value) (string, bool) {
	switch v.Kind() {
	case jsonvalue.KindNull:
		return "", false
	case jsonvalue.KindObject:
		if link, isLink := v.Lookup(KeyLink); isLink {
			return FormatLink(link), true
		}
		var parts []string
		for _, m := range v.Members() {
			if !m.Value.Truthy() {
				continue
			}
			if s, ok := Dispatch(m.Value); ok {
				parts = append(parts, m.Key+": "+s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	case jsonvalue.KindList:
		var parts []string
		for _, item := range v.Items() {
			if s, ok := Dispatch(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	default:
		return v.Text(), true
	}
}

// FormatLink renders a {name, href} object as an anchor. Anything falsy or not
// shaped like an object yields "".
func FormatLink(l jsonvalue.Value) string {
	if l.Kind() != jsonvalue.KindObject || !l.Truthy() {
		return ""
	}
	name, _ := l.Lookup(KeyName)
	href, _ := l.Lookup(KeyHref)
	return `<a href="` + href.Text() + `">` + name.Text() + `</a>`
}

package convert

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

var ErrUnbalanced = errors.New("unbalanced html")

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// CheckBalance verifies that every opened element is closed in the right order
func CheckBalance(s string) error {
	var (
		z     = html.NewTokenizer(strings.NewReader(s))
		stack []string
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return errors.Wrap(err, "failed to tokenize html")
			}
			if len(stack) > 0 {
				return errors.Wrapf(ErrUnbalanced, "unclosed <%s>", stack[len(stack)-1])
			}
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if !voidElements[string(name)] {
				stack = append(stack, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if voidElements[string(name)] {
				continue
			}
			if len(stack) == 0 {
				return errors.Wrapf(ErrUnbalanced, "unexpected </%s>", name)
			}
			if top := stack[len(stack)-1]; top != string(name) {
				return errors.Wrapf(ErrUnbalanced, "expected </%s>, got </%s>", top, name)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

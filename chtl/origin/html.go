package origin

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

// voidElements never have an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

type openTag struct {
	name   string
	offset int
}

// validateHTML tokenizes src and checks that start and end tags pair up.
func validateHTML(src []byte, start source.Position, diags *diag.List, facts *Facts) {
	z := html.NewTokenizer(bytes.NewReader(src))
	pos := func(off int) source.Position {
		return start.Advance(string(src[:off]))
	}

	var stack []openTag
	offset := 0
	for {
		tt := z.Next()
		tokOffset := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				diags.Warnf(diag.Lexical, pos(tokOffset), "html: %v", err)
			}
			for i := len(stack) - 1; i >= 0; i-- {
				diags.Warnf(diag.Lexical, pos(stack[i].offset), "html: <%s> is never closed", stack[i].name)
			}
			return

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			facts.Tags = append(facts.Tags, tok.Data)
			for _, a := range tok.Attr {
				switch a.Key {
				case "id":
					if id := strings.TrimSpace(a.Val); id != "" {
						facts.IDs = append(facts.IDs, id)
					}
				case "class":
					facts.Classes = append(facts.Classes, strings.Fields(a.Val)...)
				}
			}
			if tt == html.StartTagToken && !voidElements[tok.Data] {
				stack = append(stack, openTag{name: tok.Data, offset: tokOffset})
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			i := len(stack) - 1
			for i >= 0 && stack[i].name != tag {
				i--
			}
			if i < 0 {
				diags.Warnf(diag.Lexical, pos(tokOffset), "html: unexpected </%s>", tag)
				continue
			}
			for j := len(stack) - 1; j > i; j-- {
				diags.Warnf(diag.Lexical, pos(stack[j].offset), "html: <%s> is closed by </%s>", stack[j].name, tag)
			}
			stack = stack[:i]
		}
	}
}

package accel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muktihari/xmltokenizer"

	"github.com/fuabioo/xlcodec/internal/parts"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// Error types
var (
	ErrUnavailable = errors.New("accelerator unavailable")
	ErrUnbalanced  = errors.New("unbalanced end element")
	ErrMismatch    = errors.New("accelerated parse differs from structural parse")
)

// event is one element boundary. Start events expose the token, which is
// only valid for the duration of the callback.
type event struct {
	name        string
	end         bool
	selfClosing bool
	tok         xmltokenizer.Token
}

func (e *event) attrs() parts.Attrs {
	a := make(parts.Attrs, len(e.tok.Attrs))
	for i := range e.tok.Attrs {
		at := &e.tok.Attrs[i]
		key := string(at.Name.Local)
		if len(at.Name.Prefix) > 0 {
			key = string(at.Name.Prefix) + ":" + key
		}
		a[key] = xmlscan.Unescape(string(at.Value))
	}
	return a
}

func (e *event) text() string {
	if e.selfClosing {
		return ""
	}
	return xmlscan.Unescape(string(e.tok.CharData))
}

// walk tokenizes doc and reports every element start and end to fn. A
// self-closing element yields a start immediately followed by its end.
// Declarations, comments and doctype tokens carry no name and are skipped.
func walk(doc string, fn func(ev *event)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: tokenizer panic: %v", ErrUnavailable, r)
		}
	}()

	tok := xmltokenizer.New(strings.NewReader(doc))
	var stack []string
	for {
		token, err := tok.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if token.IsEndElement() {
			if len(stack) == 0 {
				return ErrUnbalanced
			}
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			fn(&event{name: name, end: true})
			continue
		}

		name := string(token.Name.Local)
		if name == "" || name[0] == '?' || name[0] == '!' || len(token.Name.Prefix) > 0 && token.Name.Prefix[0] == '?' {
			continue
		}
		fn(&event{name: name, selfClosing: token.SelfClosing, tok: token})
		if token.SelfClosing {
			fn(&event{name: name, end: true})
			continue
		}
		stack = append(stack, name)
	}
}

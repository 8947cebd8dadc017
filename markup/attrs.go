package markup

import (
	"strings"
	"unicode"
)

type attrState int

const (
	attrIdle attrState = iota
	attrName
	attrEqualSign
	attrValue
)

// extractAttributes parses the substring of a tag's raw content that
// follows the tag name into an ordered list of attributes, via a small
// state machine independent of the tokenizer.
func extractAttributes(text string) []Attribute {
	var (
		attrs      []Attribute
		state      = attrIdle
		name       strings.Builder
		value      strings.Builder
		quote      rune
		runes      = []rune(text)
	)

	flushBoolean := func() {
		if name.Len() > 0 {
			attrs = append(attrs, Attribute{Name: strings.ToLower(name.String()), Value: ""})
			name.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch state {
		case attrIdle:
			switch {
			case unicode.IsSpace(c):
				continue
			case unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-' || c == '_':
				name.WriteRune(c)
				state = attrName
			}
		case attrName:
			switch {
			case c == '=':
				state = attrEqualSign
			case unicode.IsSpace(c):
				flushBoolean()
				state = attrIdle
			default:
				name.WriteRune(c)
			}
		case attrEqualSign:
			if c == '"' || c == '\'' {
				quote = c
				state = attrValue
			}
		case attrValue:
			if c == quote {
				if i > 0 && runes[i-1] == '\\' {
					s := value.String()
					value.Reset()
					value.WriteString(s[:len(s)-1])
					value.WriteRune(c)
					continue
				}
				attrs = append(attrs, Attribute{Name: strings.ToLower(name.String()), Value: value.String()})
				name.Reset()
				value.Reset()
				quote = 0
				state = attrIdle
			} else {
				value.WriteRune(c)
			}
		}
	}

	flushBoolean()
	return attrs
}

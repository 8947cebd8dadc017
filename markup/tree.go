package markup

import (
	"strings"
	"unicode"
)

// voidElements is the set of elements with no content and no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// headTags is the set of elements whose presence forces an implicit
// <head> parent over an implicit <body> one.
var headTags = map[string]bool{
	"base": true, "basefont": true, "bgsound": true, "noscript": true,
	"link": true, "meta": true, "script": true, "style": true, "title": true,
}

// TreeBuilder consumes tokenizer Events and builds a DOM, inserting
// implicit html/head/body tags and recovering from malformed markup: a
// close tag closes the nearest open element it names (see closeTag), and
// one naming no open element pops whatever element is on top of the
// stack.
type TreeBuilder struct {
	tree       *Tree
	matcher    EntityMatcher
	unfinished []handle
}

// EntityMatcher is the subset of entity.Matcher's interface the tree
// builder needs to decode Text nodes, kept narrow so markup doesn't
// import entity's concrete type and risk a dependency cycle if entity
// ever wants to depend on markup's Node type for diagnostics.
type EntityMatcher interface {
	ReplaceAll(string) (string, error)
}

// NewTreeBuilder returns an empty TreeBuilder that will decode Text node
// contents with matcher.
func NewTreeBuilder(matcher EntityMatcher) *TreeBuilder {
	return &TreeBuilder{tree: newTree(), matcher: matcher}
}

// Consume feeds one tokenizer Event into the builder.
func (b *TreeBuilder) Consume(ev *Event) {
	if ev == nil {
		return
	}
	switch ev.Kind {
	case EventText, EventScript:
		b.addText(ev.Value)
	case EventTag:
		b.addTag(ev.Value)
	case EventComment:
		// Comments are not part of the DOM contract; discarded.
	}
}

func isAllWhitespace(s string) bool {
	return len(s) > 0 && strings.TrimSpace(s) == ""
}

func (b *TreeBuilder) addText(text string) {
	if isAllWhitespace(text) {
		return
	}
	decoded, err := b.matcher.ReplaceAll(text)
	if err != nil {
		decoded = text
	}
	if len(b.unfinished) == 0 {
		return
	}
	parent := b.unfinished[len(b.unfinished)-1]
	h := b.tree.alloc(Node{Kind: KindText, Text: decoded, Parent: noHandle})
	b.tree.appendChild(parent, h)
}

func (b *TreeBuilder) addTag(raw string) {
	if strings.HasPrefix(raw, "!") {
		return
	}

	var name, attrsPart string
	if idx := strings.IndexFunc(raw, unicode.IsSpace); idx >= 0 {
		name = raw[:idx]
		attrsPart = strings.TrimSpace(raw[idx:])
	} else {
		name = raw
	}
	name = strings.ToLower(name)

	switch {
	case strings.HasPrefix(name, "/"):
		b.closeTag(strings.TrimPrefix(name, "/"))
	case voidElements[name]:
		attrs := extractAttributes(attrsPart)
		h := b.tree.alloc(Node{Kind: KindElement, Tag: name, Attributes: attrs, Parent: noHandle})
		if len(b.unfinished) > 0 {
			b.tree.appendChild(b.unfinished[len(b.unfinished)-1], h)
		}
	default:
		b.implicitTags(name)
		attrs := extractAttributes(attrsPart)
		h := b.tree.alloc(Node{Kind: KindElement, Tag: name, Attributes: attrs, Parent: noHandle})
		b.unfinished = append(b.unfinished, h)
	}
}

// closeTag closes target, which need not be the top of the stack. When a
// closer doesn't match the top (<b>Bold <i>both</b> italic</i>), every
// tag opened after target closes with it, and those intervening tags are
// then reopened as fresh siblings — otherwise a misnested <i> would
// permanently swallow everything that follows into its outer <b>.
func (b *TreeBuilder) closeTag(target string) {
	if len(b.unfinished) <= 1 {
		return
	}

	idx := -1
	for i := len(b.unfinished) - 1; i >= 1; i-- {
		if b.tree.node(b.unfinished[i]).Tag == target {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.popTopInto()
		return
	}

	reopen := append([]string(nil), tagsAbove(b.tree, b.unfinished, idx)...)
	for len(b.unfinished) > idx {
		b.popTopInto()
	}
	for _, tag := range reopen {
		h := b.tree.alloc(Node{Kind: KindElement, Tag: tag, Parent: noHandle})
		b.unfinished = append(b.unfinished, h)
	}
}

func tagsAbove(tree *Tree, stack []handle, idx int) []string {
	tags := make([]string, 0, len(stack)-1-idx)
	for i := idx + 1; i < len(stack); i++ {
		tags = append(tags, tree.node(stack[i]).Tag)
	}
	return tags
}

func (b *TreeBuilder) popTopInto() {
	top := b.unfinished[len(b.unfinished)-1]
	b.unfinished = b.unfinished[:len(b.unfinished)-1]
	parent := b.unfinished[len(b.unfinished)-1]
	b.tree.appendChild(parent, top)
}

// implicitTags fires the open-tag-insertion loop until no rule applies,
// given the tag about to be opened (or "" for the finish() sentinel).
func (b *TreeBuilder) implicitTags(tag string) {
	for {
		switch {
		case len(b.unfinished) == 0 && tag != "html":
			b.addTag("html")
		case b.stackIs("html") && tag != "head" && tag != "body" && tag != "/html":
			if headTags[tag] {
				b.addTag("head")
			} else {
				b.addTag("body")
			}
		case b.stackIs("html", "head") && tag != "/head" && !headTags[tag]:
			b.addTag("/head")
		case b.topIs("p") && tag == "p":
			b.addTag("/p")
		case b.topIs("li") && tag == "li":
			b.addTag("/li")
		default:
			return
		}
	}
}

func (b *TreeBuilder) stackIs(tags ...string) bool {
	if len(b.unfinished) != len(tags) {
		return false
	}
	for i, want := range tags {
		if b.tree.node(b.unfinished[i]).Tag != want {
			return false
		}
	}
	return true
}

func (b *TreeBuilder) topIs(tag string) bool {
	if len(b.unfinished) == 0 {
		return false
	}
	return b.tree.node(b.unfinished[len(b.unfinished)-1]).Tag == tag
}

// Finish closes out any remaining open elements, attaching each to its
// parent, and returns the resulting Tree rooted at a single Element.
func (b *TreeBuilder) Finish() *Tree {
	if len(b.unfinished) == 0 {
		b.implicitTags("")
	}
	for len(b.unfinished) > 1 {
		b.popTopInto()
	}
	b.tree.root = b.unfinished[0]
	return b.tree
}

// Build tokenizes and builds a complete DOM from html in one call,
// convenient for callers that don't need to stream input incrementally.
func Build(html string, matcher EntityMatcher) *Tree {
	tok := NewTokenizer()
	b := NewTreeBuilder(matcher)
	for _, c := range html {
		b.Consume(tok.Feed(c))
	}
	b.Consume(tok.Finish())
	return b.Finish()
}

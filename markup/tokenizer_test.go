package markup

import "testing"

func feedAll(tk *Tokenizer, s string) []*Event {
	var events []*Event
	for _, c := range s {
		if ev := tk.Feed(c); ev != nil {
			events = append(events, ev)
		}
	}
	if ev := tk.Finish(); ev != nil {
		events = append(events, ev)
	}
	return events
}

func TestTokenizerBasicFormEndsInText(t *testing.T) {
	tk := NewTokenizer()
	feedAll(tk, "<html><!-- Comment --><body></body></html>")
	if tk.State() != StateText {
		t.Errorf("state = %v, want TEXT", tk.State())
	}
}

func TestTokenizerScriptWithNestedLessThan(t *testing.T) {
	tk := NewTokenizer()
	events := feedAll(tk, "<script>if (a < b) { console.log('Hello'); }</script>")

	var scripts []string
	for _, ev := range events {
		if ev.Kind == EventScript {
			scripts = append(scripts, ev.Value)
		}
	}
	if len(scripts) != 1 {
		t.Fatalf("got %d Script events, want 1", len(scripts))
	}
	want := "if (a < b) { console.log('Hello'); }"
	if scripts[0] != want {
		t.Errorf("script body = %q, want %q", scripts[0], want)
	}
}

func TestTokenizerQuotedAttributes(t *testing.T) {
	tk := NewTokenizer()
	events := feedAll(tk, `<div class='container' id="main">`)
	if len(events) != 1 || events[0].Kind != EventTag {
		t.Fatalf("got %d events, want 1 Tag", len(events))
	}
	want := `div class='container' id="main"`
	if events[0].Value != want {
		t.Errorf("tag content = %q, want %q", events[0].Value, want)
	}
}

func TestTokenizerSplitFeedAttributeState(t *testing.T) {
	tk := NewTokenizer()
	for _, c := range `<div class='contai` {
		tk.Feed(c)
	}
	if tk.State() != StateAttributeOpen {
		t.Errorf("state after first slice = %v, want ATTRIBUTE_OPEN", tk.State())
	}
	for _, c := range `ner' id="main">` {
		tk.Feed(c)
	}
	if tk.State() != StateText {
		t.Errorf("state after second slice = %v, want TEXT", tk.State())
	}
}

func TestTokenizerCommentEmitsFullText(t *testing.T) {
	tk := NewTokenizer()
	events := feedAll(tk, "<!-- a comment -->")
	if len(events) != 1 || events[0].Kind != EventComment {
		t.Fatalf("got %d events, want 1 Comment", len(events))
	}
	if events[0].Value != "<!-- a comment -->" {
		t.Errorf("comment = %q", events[0].Value)
	}
}

func TestTokenizerTextFlushesBeforeTag(t *testing.T) {
	tk := NewTokenizer()
	events := feedAll(tk, "hello<br>")
	if len(events) != 2 || events[0].Kind != EventText || events[0].Value != "hello" {
		t.Fatalf("got %+v", events)
	}
	if events[1].Kind != EventTag || events[1].Value != "br" {
		t.Fatalf("got %+v", events[1])
	}
}

func TestTokenizerFinishFlushesTrailingText(t *testing.T) {
	tk := NewTokenizer()
	events := feedAll(tk, "trailing text")
	if len(events) != 1 || events[0].Kind != EventText || events[0].Value != "trailing text" {
		t.Fatalf("got %+v", events)
	}
}

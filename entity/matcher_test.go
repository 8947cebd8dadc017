package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/kojima/gorushi"
)

func TestReplaceAllNoAmpersandIsIdentity(t *testing.T) {
	m := NewDefaultMatcher()
	cases := []string{"", "hello", "the quick brown fox", "12345", "über"}
	for _, s := range cases {
		got, err := m.ReplaceAll(s)
		if err != nil {
			t.Fatal(err)
		}
		if got != s {
			t.Errorf("ReplaceAll(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestReplaceAllDecodesFixedEntities(t *testing.T) {
	m := NewDefaultMatcher()
	got, err := m.ReplaceAll("Special chars: &amp; &quot; &#39; &lt; &gt;")
	if err != nil {
		t.Fatal(err)
	}
	want := `Special chars: & " ' < >`
	if !strings.Contains(got, want) {
		t.Errorf("ReplaceAll result = %q, want containing %q", got, want)
	}
}

func TestReplaceAllSinglePass(t *testing.T) {
	m := NewDefaultMatcher()
	got, err := m.ReplaceAll("&amp;gt;")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "&gt;") || got != "&gt;" {
		t.Errorf("ReplaceAll(%q) = %q, want %q", "&amp;gt;", got, "&gt;")
	}
}

func TestReplaceAllBeforeCompile(t *testing.T) {
	m := NewMatcher()
	m.AddPattern("&amp;", "&")
	_, err := m.ReplaceAll("&amp;")
	if !errors.Is(err, gorushi.ErrNotCompiled) {
		t.Errorf("err = %v, want ErrNotCompiled", err)
	}
}

func TestReplaceAllAdjacentMatches(t *testing.T) {
	m := NewDefaultMatcher()
	got, err := m.ReplaceAll("&amp;&amp;&amp;")
	if err != nil {
		t.Fatal(err)
	}
	if got != "&&&" {
		t.Errorf("got %q, want %q", got, "&&&")
	}
}

func TestReplaceAllLinearInLength(t *testing.T) {
	m := NewDefaultMatcher()
	s := strings.Repeat("x&amp;", 10000)
	got, err := m.ReplaceAll(s)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Repeat("x&", 10000)
	if got != want {
		t.Error("output mismatch on large repeated input")
	}
}

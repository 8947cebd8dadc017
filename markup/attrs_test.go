package markup

import "testing"

func attr(t *testing.T, attrs []Attribute, name string) (string, bool) {
	t.Helper()
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func TestExtractAttributesBasic(t *testing.T) {
	attrs := extractAttributes(`class='container' id="main"`)
	if v, ok := attr(t, attrs, "class"); !ok || v != "container" {
		t.Errorf("class = %q, ok=%v", v, ok)
	}
	if v, ok := attr(t, attrs, "id"); !ok || v != "main" {
		t.Errorf("id = %q, ok=%v", v, ok)
	}
}

func TestExtractAttributesBooleanTrailing(t *testing.T) {
	attrs := extractAttributes("disabled")
	if v, ok := attr(t, attrs, "disabled"); !ok || v != "" {
		t.Errorf("disabled = %q, ok=%v", v, ok)
	}
}

func TestExtractAttributesEscapedQuote(t *testing.T) {
	attrs := extractAttributes(`title="Example \"Site\""`)
	if v, ok := attr(t, attrs, "title"); !ok || v != `Example "Site"` {
		t.Errorf(`title = %q, ok=%v, want %q`, v, ok, `Example "Site"`)
	}
}

func TestExtractAttributesCaseFolded(t *testing.T) {
	attrs := extractAttributes(`ID="x"`)
	if v, ok := attr(t, attrs, "id"); !ok || v != "x" {
		t.Errorf("id = %q, ok=%v", v, ok)
	}
}

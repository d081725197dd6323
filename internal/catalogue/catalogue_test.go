package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveLabel_Ladder(t *testing.T) {
	cases := []struct {
		name  string
		attrs elementAttrs
		want  string
		ok    bool
	}{
		{"aria-label wins", elementAttrs{ariaLabel: "Submit order", text: "ignored"}, "Submit order", true},
		{"falls back to name", elementAttrs{name: "email"}, "email", true},
		{"falls back to placeholder", elementAttrs{placeholder: "Search..."}, "Search...", true},
		{"falls back to text", elementAttrs{text: "  Click   here  "}, "Click here", true},
		{"image alt fallback", elementAttrs{hasImage: true, imageAlt: "company logo"}, "company logo", true},
		{"unlabeled image", elementAttrs{hasImage: true}, "Unlabeled Image", true},
		{"nothing at all", elementAttrs{}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := deriveLabel(tc.attrs)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeLabel_TrimsAndCollapses(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	assert.Len(t, normalizeLabel(long), 100)
	assert.Equal(t, "a b c", normalizeLabel("  a\n b\t c  "))
	assert.Equal(t, "", normalizeLabel("   "))
}

func TestInferRole(t *testing.T) {
	assert.Equal(t, "link", inferRole(elementAttrs{href: "/foo"}))
	assert.Equal(t, "textbox", inferRole(elementAttrs{tagName: "input", inputType: "password"}))
	assert.Equal(t, "checkbox", inferRole(elementAttrs{tagName: "input", inputType: "checkbox"}))
	assert.Equal(t, "radio", inferRole(elementAttrs{tagName: "input", inputType: "radio"}))
	assert.Equal(t, "button", inferRole(elementAttrs{tagName: "button"}))
	assert.Equal(t, "textarea", inferRole(elementAttrs{tagName: "textarea"}))
	assert.Equal(t, "select", inferRole(elementAttrs{tagName: "select"}))
	assert.Equal(t, "link", inferRole(elementAttrs{tagName: "a"}))
	assert.Equal(t, "other", inferRole(elementAttrs{}))
	assert.Equal(t, "other", inferRole(elementAttrs{tagName: "div"}))
}

func TestConfidenceFor(t *testing.T) {
	assert.InDelta(t, 1.0, confidenceFor("button", "Submit"), 0.001)
	assert.InDelta(t, 0.5, confidenceFor("other", ""), 0.001)
}

func TestElementStore_UnknownIDIsStale(t *testing.T) {
	store := NewElementStore()
	_, err := store.Resolve("element-deadbeef")
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

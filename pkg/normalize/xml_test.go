package normalize

import (
	"reflect"
	"testing"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

func TestXML(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Tree
	}{
		{
			name: "repeated siblings become a list",
			raw:  `<routes><route>Red</route><route>Blue</route></routes>`,
			want: map[string]any{"routes": map[string]any{"route": []any{"Red", "Blue"}}},
		},
		{
			name: "single child stays scalar",
			raw:  `<routes><route>Red</route></routes>`,
			want: map[string]any{"routes": map[string]any{"route": "Red"}},
		},
		{
			name: "three siblings",
			raw:  `<r><v>1</v><v>2</v><v>3</v></r>`,
			want: map[string]any{"r": map[string]any{"v": []any{"1", "2", "3"}}},
		},
		{
			name: "nested elements",
			raw: `<?xml version="1.0" encoding="utf-8"?>
<bustime-response>
  <vehicle>
    <vid>1993</vid>
    <rt>22</rt>
  </vehicle>
  <vehicle>
    <vid>1219</vid>
    <rt>X9</rt>
  </vehicle>
</bustime-response>`,
			want: map[string]any{"bustime-response": map[string]any{"vehicle": []any{
				map[string]any{"vid": "1993", "rt": "22"},
				map[string]any{"vid": "1219", "rt": "X9"},
			}}},
		},
		{
			name: "leaf text trimmed",
			raw:  "<tm>\n  20240101 12:00:00 \n</tm>",
			want: map[string]any{"tm": "20240101 12:00:00"},
		},
		{
			name: "cdata is text",
			raw:  `<alert><Headline><![CDATA[Red Line <delays>]]></Headline></alert>`,
			want: map[string]any{"alert": map[string]any{"Headline": "Red Line <delays>"}},
		},
		{
			name: "empty element",
			raw:  `<x></x>`,
			want: map[string]any{"x": ""},
		},
		{
			name: "self-closing element",
			raw:  `<r><error/></r>`,
			want: map[string]any{"r": map[string]any{"error": ""}},
		},
		{
			name: "attributes with text",
			raw:  `<r><stop id="30171">Clark/Lake</stop></r>`,
			want: map[string]any{"r": map[string]any{"stop": map[string]any{
				"@attributes": map[string]any{"id": "30171"},
				"#text":       "Clark/Lake",
			}}},
		},
		{
			name: "attributes with children",
			raw:  `<r v="1"><a>x</a></r>`,
			want: map[string]any{"r": map[string]any{
				"a":           "x",
				"@attributes": map[string]any{"v": "1"},
			}},
		},
		{
			name: "namespace declarations dropped",
			raw:  `<r xmlns="urn:x" xmlns:p="urn:p"><p:a>1</p:a></r>`,
			want: map[string]any{"r": map[string]any{"a": "1"}},
		},
		{
			name: "comments and doctype ignored",
			raw:  `<!DOCTYPE r><!-- c --><r><!-- inner --><a>1</a></r>`,
			want: map[string]any{"r": map[string]any{"a": "1"}},
		},
		{
			name: "latin-1 charset",
			raw:  "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><r>Caf\xe9</r>",
			want: map[string]any{"r": "Café"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := XML([]byte(tt.raw))
			if err != nil {
				t.Fatalf("XML() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("XML() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestXMLParseFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"unclosed", "<routes><route>Red</route>"},
		{"mismatched", "<a><b></a></b>"},
		{"two roots", "<a/><b/>"},
		{"text outside root", "<a/>junk"},
		{"plain text", "not xml"},
		{"bad entity", "<a>&nope;</a>"},
		{"json payload", `{"status":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := XML([]byte(tt.raw))
			if !errors.Is(err, errors.ErrCodeParseFailure) {
				t.Errorf("XML(%q) error = %v, want PARSE_FAILURE", tt.raw, err)
			}
		})
	}
}

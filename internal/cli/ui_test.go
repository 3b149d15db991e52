package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRenderTree(t *testing.T) {
	tree := map[string]any{
		"bustime-response": map[string]any{
			"prd": []any{
				map[string]any{"stpid": "456", "rt": "20"},
				map[string]any{"stpid": "457", "rt": "22"},
			},
		},
	}
	out := renderTree(tree)

	for _, want := range []string{"bustime-response", "prd", "[0]", "[1]", "stpid", "456", "457"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderTree() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "rt") > strings.Index(out, "stpid") {
		t.Errorf("keys should be sorted:\n%s", out)
	}
}

func TestRenderTreeScalars(t *testing.T) {
	tests := []struct {
		tree any
		want string
	}{
		{nil, "null"},
		{json.Number("42"), "42"},
		{true, "true"},
		{"Clark/Lake", "Clark/Lake"},
	}
	for _, tt := range tests {
		got := renderTree(tt.tree)
		if !strings.Contains(got, tt.want) || !strings.HasSuffix(got, "\n") {
			t.Errorf("renderTree(%v) = %q, want %q", tt.tree, got, tt.want)
		}
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	tree := map[string]any{"msg": "<a&b>"}
	if err := writeResult(&buf, tree, formatJSON); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"msg\": \"<a&b>\"\n}\n"
	if buf.String() != want {
		t.Errorf("writeResult() = %q, want %q", buf.String(), want)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Line", "Alerts ID"}, [][]string{{"Red Ln", "Red"}})
	for _, want := range []string{"Line", "Alerts ID", "Red Ln"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderTable() missing %q:\n%s", want, out)
		}
	}
}

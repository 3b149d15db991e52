package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
)

func TestEndpointsCommand(t *testing.T) {
	up := newUpstream(t, xmlBody("<ok/>"))
	cfg := writeConfig(t, up, "")

	out, _, err := execute(t, "--config", cfg, "endpoints")
	if err != nil {
		t.Fatalf("endpoints error: %v", err)
	}
	for _, want := range []string{"Domain", "predictions", up.URL + "/bus/getpredictions", "ttarrivals.aspx", "8mj8-j3c4.json", "required", "optional"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEndpointsCommandDomainFilter(t *testing.T) {
	cfg := writeConfig(t, nil, "")

	out, _, err := execute(t, "--config", cfg, "endpoints", "--domain", "alerts")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !strings.Contains(out, "routes.aspx") {
		t.Errorf("output missing alerts endpoints:\n%s", out)
	}
	if strings.Contains(out, "getpredictions") {
		t.Errorf("output should not list bus endpoints:\n%s", out)
	}

	_, _, err = execute(t, "--config", cfg, "endpoints", "--domain", "metra")
	if !errors.Is(err, errors.ErrCodeUnknownEndpoint) {
		t.Errorf("unknown domain error = %v, want UNKNOWN_ENDPOINT", err)
	}
}

func TestEndpointRows(t *testing.T) {
	reg := endpoint.Default()
	rows := endpointRows(reg, []endpoint.Domain{endpoint.Alerts, endpoint.TrainStops})

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %v", len(rows), rows)
	}
	if rows[0][1] != "alerts" || rows[0][4] != "none" {
		t.Errorf("rows[0] = %v", rows[0])
	}
	if rows[2][0] != "trainStops" || rows[2][3] != "json" || rows[2][4] != "optional" {
		t.Errorf("rows[2] = %v", rows[2])
	}
}

func TestLinesCommand(t *testing.T) {
	out, _, err := execute(t, "lines")
	if err != nil {
		t.Fatalf("lines error: %v", err)
	}
	for _, l := range endpoint.Lines() {
		if !strings.Contains(out, l.NiceName) {
			t.Errorf("output missing %q", l.NiceName)
		}
	}
}

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/breakage"
)

func sampleBreakages() []breakage.Breakage {
	fn := apitree.NewFunction("Do", nil)
	fn.Path = "example.com/m.Do"
	fn.Filepath = "m.go"
	fn.Lineno = 7

	attr := apitree.NewAttribute("Mode", apitree.Literal(`"slow"`))
	attr.Path = "example.com/m.Mode"

	param := apitree.Parameter{Name: "arg1", Kind: apitree.PositionalOnly, Annotation: apitree.Literal("bool")}
	return []breakage.Breakage{
		breakage.New(breakage.KindParameterAddedRequired, fn, nil, param, ""),
		breakage.New(breakage.KindAttributeChangedValue, attr, apitree.Literal(`"fast"`), apitree.Literal(`"slow"`), ""),
		breakage.New(breakage.KindParameterRemoved, fn, param, nil, ""),
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleBreakages(), Options{Format: "text"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := strings.Join([]string{
		"m.go:7: example.com/m.Do: Required parameter was added (high):",
		"  Old value: (none)",
		"  New value: arg1: bool",
		"",
		"example.com/m.Mode: Attribute value was changed (low):",
		`  Old value: "fast"`,
		`  New value: "slow"`,
		"",
		"m.go:7: example.com/m.Do: Parameter was removed (medium):",
		"  Old value: arg1: bool",
		"  New value: (none)",
		"",
		"Found 3 breaking changes: 1 high, 1 medium, 1 low",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("text report =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteText_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleBreakages(), Options{Format: "text", Color: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected ANSI escapes in colored output")
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "No breaking changes found.\n" {
		t.Errorf("empty report = %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleBreakages(), Options{Format: "json"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(doc.Breakages) != 3 || doc.Summary.Total != 3 {
		t.Fatalf("doc = %+v", doc)
	}
	first := doc.Breakages[0]
	if first.Kind != "parameter_added_required" || first.ObjectPath != "example.com/m.Do" || first.Severity != breakage.SeverityHigh {
		t.Errorf("first entry = %+v", first)
	}
	if !strings.Contains(buf.String(), `"severity": "high"`) {
		t.Errorf("severity should be encoded by name:\n%s", buf.String())
	}
	if first.Location != "m.go:7" || first.OldValue != nil || first.NewValue != "arg1: bool" {
		t.Errorf("first entry values = %+v", first)
	}
	if doc.Breakages[1].Location != "" {
		t.Errorf("entry without file should have no location: %+v", doc.Breakages[1])
	}
	if doc.Summary.BySeverity["medium"] != 1 {
		t.Errorf("summary = %+v", doc.Summary)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleBreakages(), Options{Format: "yaml"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(doc.Breakages) != 3 || doc.Breakages[1].Kind != "attribute_changed_value" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Breakages[2].Severity != breakage.SeverityMedium {
		t.Errorf("severity = %s, want medium", doc.Breakages[2].Severity)
	}
	if !strings.Contains(buf.String(), "object_path: example.com/m.Mode") || !strings.Contains(buf.String(), "severity: medium") {
		t.Errorf("yaml output =\n%s", buf.String())
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil, Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCheck(t *testing.T) {
	bs := sampleBreakages()

	tests := []struct {
		threshold breakage.Severity
		wantErr   bool
	}{
		{breakage.SeverityVeryLow, true},
		{breakage.SeverityHigh, true},
		{breakage.SeverityVeryHigh, false},
	}
	for _, tt := range tests {
		err := Check(bs, tt.threshold)
		if tt.wantErr != errors.Is(err, ErrBreakingChanges) {
			t.Errorf("Check(%s) = %v", tt.threshold, err)
		}
	}
	if err := Check(nil, breakage.SeverityVeryLow); err != nil {
		t.Errorf("Check(nil) = %v", err)
	}
}

func TestSummaryLine(t *testing.T) {
	one := Summarize(sampleBreakages()[:1])
	if got := SummaryLine(one); got != "Found 1 breaking change: 1 high" {
		t.Errorf("SummaryLine = %q", got)
	}
}

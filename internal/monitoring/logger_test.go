package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) { got = append(got, format) })
	Logf("run %s", "a")
	if len(got) != 1 || got[0] != "run %s" {
		t.Errorf("custom logger saw %v, want [run %%s]", got)
	}

	SetLogger(nil)
	Logf("muted")
	if len(got) != 1 {
		t.Errorf("no-op logger forwarded a message: %v", got)
	}
}

func TestSetOutput(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var sb strings.Builder
	SetOutput(&sb)
	Logf("processed %d events", 3)
	if !strings.Contains(sb.String(), "[monophoton] ") {
		t.Errorf("missing prefix in %q", sb.String())
	}
	if !strings.Contains(sb.String(), "processed 3 events") {
		t.Errorf("missing message in %q", sb.String())
	}

	SetOutput(nil)
	Logf("dropped")
	if strings.Contains(sb.String(), "dropped") {
		t.Errorf("muted logger wrote %q", sb.String())
	}
}

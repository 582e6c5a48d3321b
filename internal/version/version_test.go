package version

import (
	"strings"
	"testing"
)

func TestCalculateBuildID(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		expected  int
		wantError bool
	}{
		{name: "epoch date", date: "2025-12-04", expected: 0},
		{name: "next day after epoch", date: "2025-12-05", expected: 1},
		{name: "one year later", date: "2026-12-04", expected: 365},
		{name: "date with leap years included", date: "2032-12-04", expected: 2557},
		{name: "invalid format", date: "invalid", wantError: true},
		{name: "empty date", date: "", wantError: true},
		{name: "before epoch", date: "2025-12-03", wantError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CalculateBuildID(tt.date)

			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got nil (id=%d)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("CalculateBuildID() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestInfo_ReportsSaveFormat(t *testing.T) {
	old := BuildDate
	defer func() { BuildDate = old }()

	BuildDate = "2025-12-10"
	info := Info()
	if !info.Calculated || info.BuildID != 6 {
		t.Errorf("info = %+v", info)
	}
	if info.SnapshotMagic != "CDSV" || info.SnapshotFormat != 1 {
		t.Errorf("save format = %s v%d", info.SnapshotMagic, info.SnapshotFormat)
	}
	if s := String(); !strings.Contains(s, "Build 6") || !strings.Contains(s, "CDSV v1") {
		t.Errorf("String() = %q", s)
	}

	BuildDate = ""
	if s := String(); !strings.HasPrefix(s, "Build unknown") {
		t.Errorf("String() without date = %q", s)
	}
}

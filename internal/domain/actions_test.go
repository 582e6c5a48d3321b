package domain

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected CommandType
	}{
		{"TRIGGER", CommandTrigger},
		{"trigger", CommandTrigger},
		{"Save", CommandSave},
		{"LOAD", CommandLoad},
		{"RESPAWN", CommandRespawn},
		{"export", CommandExport},
		{"IMPORT", CommandImport},
		{"STATE", CommandState},
		{"move", CommandMove},
		{"FLY", CommandUnknown},
		{"", CommandUnknown},
	}

	for _, tt := range tests {
		result := ParseCommand(tt.input)
		if result != tt.expected {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestCommandType_String(t *testing.T) {
	tests := []struct {
		cmd      CommandType
		expected string
	}{
		{CommandTrigger, "TRIGGER"},
		{CommandRespawn, "RESPAWN"},
		{CommandMove, "MOVE"},
		{CommandUnknown, "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.expected {
			t.Errorf("CommandType(%d).String() = %q, want %q", tt.cmd, got, tt.expected)
		}
	}
}

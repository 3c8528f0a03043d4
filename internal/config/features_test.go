package config

import "testing"

func TestParseFlags_Empty(t *testing.T) {
	for _, raw := range []string{"", "{}"} {
		flags, err := ParseFlags(raw)
		if err != nil {
			t.Fatalf("ParseFlags(%q) returned error: %v", raw, err)
		}
		if !flags.ModuleEnabled("workflows") {
			t.Error("modules default to enabled")
		}
		if !flags.FeatureEnabled("workflows", "create") {
			t.Error("features default to enabled")
		}
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	if _, err := ParseFlags("{not json"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestFlags_ModuleEnabled(t *testing.T) {
	flags, err := ParseFlags(`{"modules":{"transcriptions":false}}`)
	if err != nil {
		t.Fatal(err)
	}

	if flags.ModuleEnabled("transcriptions") {
		t.Error("transcriptions module should be disabled")
	}
	if !flags.ModuleEnabled("workflows") {
		t.Error("unmentioned modules stay enabled")
	}
}

func TestFlags_FeatureEnabled(t *testing.T) {
	flags, err := ParseFlags(`{"features":{"workflows":{"export":false,"create":true}}}`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		module, feature string
		expected        bool
	}{
		{"workflows", "export", false},
		{"workflows", "create", true},
		{"workflows", "list", true},
		{"transcriptions", "create", true},
	}

	for _, tt := range tests {
		if got := flags.FeatureEnabled(tt.module, tt.feature); got != tt.expected {
			t.Errorf("FeatureEnabled(%s, %s) = %v, want %v", tt.module, tt.feature, got, tt.expected)
		}
	}
}

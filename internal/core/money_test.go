package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"integer", "50", 5000, false},
		{"single fraction digit", "9.5", 950, false},
		{"rounds down", "12.344", 1234, false},
		{"rounds up", "12.346", 1235, false},
		{"leading dot", ".99", 99, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-5", 0, true},
		{"plus sign", "+5", 0, true},
		{"letters", "abc", 0, true},
		{"double dot", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatReais(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{123456, "R$ 1234,56"},
		{100000, "R$ 1000,00"},
		{5, "R$ 0,05"},
		{-950, "-R$ 9,50"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).FormatReais(); got != tt.want {
			t.Errorf("FormatReais(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

package core

import "testing"

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{125, "2h 5m"},
		{-3, "0m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.in); got != tt.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "Zelda", 12, "Zelda"},
		{"exact", "123456789012", 12, "123456789012"},
		{"long", "The Legend of Zelda", 12, "The Legend o..."},
		{"runes", "ポケットモンスター スカーレット", 5, "ポケットモ..."},
		{"zero width", "anything", 0, "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestHoursOneDecimal(t *testing.T) {
	tests := []struct {
		in   int
		want float64
	}{
		{0, 0},
		{60, 1},
		{90, 1.5},
		{100, 1.7},
	}
	for _, tt := range tests {
		if got := HoursOneDecimal(tt.in); got != tt.want {
			t.Errorf("HoursOneDecimal(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

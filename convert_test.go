package conflang

import "testing"

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"-7", -7, false},
		{"0", 0, false},
		{"0xFF0000", 0xFF0000, false},
		{"0X10", 16, false},
		{"true", 1, false},
		{"yes", 1, false},
		{"on", 1, false},
		{"false", 0, false},
		{"no", 0, false},
		{"off", 0, false},
		{"TRUE", 1, false},
		{"3.14", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseInt(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseInt(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"rgba(b3ff1aee)", 0xeeb3ff1a, false},
		{"rgb(ff0000)", 0xffff0000, false},
		{"rgba(255, 255, 26, 1.0)", 0xffffff1a, false},
		{"rgb(255, 0, 0)", 0xffff0000, false},
		{"rgba(0, 0, 0, 0)", 0x00000000, false},
		{"rgb(ff00)", 0, true},
		{"rgba(1,2,3)", 0, true},
		{"rgba(1,2,3,2.0)", 0, true},
		{"rgb(300, 0, 0)", 0, true},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseInt(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseInt(%q) = %#x, want %#x", tt.raw, got, tt.want)
		}
	}
}

func TestParseFloat(t *testing.T) {
	if v, err := parseFloat("3.5"); err != nil || v != 3.5 {
		t.Errorf("parseFloat(3.5) = %v, %v", v, err)
	}
	// Integer literals widen into float slots.
	if v, err := parseFloat("2"); err != nil || v != 2 {
		t.Errorf("parseFloat(2) = %v, %v", v, err)
	}
	if _, err := parseFloat("nope"); err == nil {
		t.Error("expected error for non-numeric float")
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"hello world", "hello world"},
		{`"quoted value"`, "quoted value"},
		{`"with \"escapes\""`, `with "escapes"`},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := parseString(tt.raw)
		if err != nil {
			t.Errorf("parseString(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseString(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseVec2(t *testing.T) {
	tests := []struct {
		raw     string
		want    Vec2
		wantErr bool
	}{
		{"1.5, 2.5", Vec2{1.5, 2.5}, false},
		{"1,2", Vec2{1, 2}, false},
		{"1.5 2.5", Vec2{1.5, 2.5}, false},
		{"-1, -2", Vec2{-1, -2}, false},
		{"1", Vec2{}, true},
		{"1 2 3", Vec2{}, true},
		{"a, b", Vec2{}, true},
	}
	for _, tt := range tests {
		got, err := parseVec2(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVec2(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		// Vec2 equality is exact field-wise comparison.
		if err == nil && got != tt.want {
			t.Errorf("parseVec2(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

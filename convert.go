package conflang

import (
	"fmt"
	"strconv"
	"strings"
)

// boolWords are the word forms an integer slot accepts.
var boolWords = map[string]int64{
	"true": 1, "yes": 1, "on": 1,
	"false": 0, "no": 0, "off": 0,
}

// parseInt converts a raw right-hand side into an int64. Accepted
// forms: decimal, 0x hex, bool words, and rgb()/rgba() color
// literals, which produce ARGB.
func parseInt(raw string) (int64, error) {
	if v, ok := boolWords[strings.ToLower(raw)]; ok {
		return v, nil
	}
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		v, err := strconv.ParseUint(raw[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex literal %q", raw)
		}
		return int64(v), nil
	}
	if strings.HasPrefix(raw, "rgba(") || strings.HasPrefix(raw, "rgb(") {
		return parseColor(raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to int", raw)
	}
	return v, nil
}

// parseColor converts rgb()/rgba() literals into an ARGB int64.
// rgba takes an 8-digit RGBA hex or four comma-separated components
// with a 0-1 alpha; rgb takes a 6-digit hex or three components and
// implies full alpha.
func parseColor(raw string) (int64, error) {
	alpha := strings.HasPrefix(raw, "rgba(")
	open := strings.IndexByte(raw, '(')
	if !strings.HasSuffix(raw, ")") {
		return 0, fmt.Errorf("invalid color %q: missing ')'", raw)
	}
	body := strings.TrimSpace(raw[open+1 : len(raw)-1])

	if !strings.Contains(body, ",") {
		wantDigits := 6
		if alpha {
			wantDigits = 8
		}
		if len(body) != wantDigits {
			return 0, fmt.Errorf("invalid color %q: expected %d hex digits", raw, wantDigits)
		}
		v, err := strconv.ParseUint(body, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q", raw)
		}
		if alpha {
			// RGBA hex to ARGB.
			return int64(v>>8 | (v&0xFF)<<24), nil
		}
		return int64(0xFF000000 | v), nil
	}

	parts := strings.Split(body, ",")
	wantParts := 3
	if alpha {
		wantParts = 4
	}
	if len(parts) != wantParts {
		return 0, fmt.Errorf("invalid color %q: expected %d components", raw, wantParts)
	}
	var rgb [3]uint64
	for i := 0; i < 3; i++ {
		c, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid color component %q in %q", parts[i], raw)
		}
		rgb[i] = c
	}
	a := uint64(0xFF)
	if alpha {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || f < 0 || f > 1 {
			return 0, fmt.Errorf("invalid alpha %q in %q", parts[3], raw)
		}
		a = uint64(f * 255)
	}
	return int64(a<<24 | rgb[0]<<16 | rgb[1]<<8 | rgb[2]), nil
}

// parseFloat converts a raw right-hand side into a float32. Integer
// literals widen.
func parseFloat(raw string) (float32, error) {
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to float", raw)
	}
	return float32(v), nil
}

// parseString decodes a raw right-hand side into a string. Quoted
// text is unquoted with escape handling; anything else is taken
// verbatim.
func parseString(raw string) (string, error) {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return "", fmt.Errorf("invalid string literal %s", raw)
		}
		return s, nil
	}
	return raw, nil
}

// parseVec2 converts "X, Y" (or the space-separated "X Y" form) into
// a Vec2.
func parseVec2(raw string) (Vec2, error) {
	var xs, ys string
	if i := strings.IndexByte(raw, ','); i >= 0 {
		xs, ys = raw[:i], raw[i+1:]
	} else {
		fields := strings.Fields(raw)
		if len(fields) != 2 {
			return Vec2{}, fmt.Errorf("cannot convert %q to vec2", raw)
		}
		xs, ys = fields[0], fields[1]
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 32)
	if err != nil {
		return Vec2{}, fmt.Errorf("invalid vec2 component %q", xs)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 32)
	if err != nil {
		return Vec2{}, fmt.Errorf("invalid vec2 component %q", ys)
	}
	return Vec2{X: float32(x), Y: float32(y)}, nil
}

// convert parses raw into a payload for the value's declared type.
// No silent coercions: a float literal offered to an int slot is an
// error, not a truncation.
func convert(v *Value, raw string) (any, error) {
	switch v.typ {
	case TypeInt:
		return parseInt(raw)
	case TypeFloat:
		return parseFloat(raw)
	case TypeString:
		return parseString(raw)
	case TypeVec2:
		return parseVec2(raw)
	case TypeCustom:
		payload, err := v.custom(raw)
		if err != nil {
			return nil, fmt.Errorf("custom value %q: %w", raw, err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unsupported type %v", v.typ)
	}
}

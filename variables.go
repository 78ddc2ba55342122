package conflang

// variables holds $NAME definitions and the lines that referenced
// them, so a dynamic variable update can re-apply dependents.
type variables struct {
	vals map[string]string

	// uses maps a variable name to the flat "target = raw" lines
	// recorded when the variable was substituted during parsing.
	uses map[string][]string
}

func newVariables() *variables {
	return &variables{
		vals: make(map[string]string),
		uses: make(map[string][]string),
	}
}

// define sets a variable. The name carries no '$'.
func (vs *variables) define(name, value string) {
	vs.vals[name] = value
}

// substitute replaces $NAME occurrences in raw with defined variable
// values, longest name first at each site. Unknown references are
// left verbatim. The names of substituted variables are returned so
// the caller can record the dependency.
func (vs *variables) substitute(raw string) (string, []string) {
	if len(vs.vals) == 0 {
		return raw, nil
	}
	var used []string
	var out []byte
	for i := 0; i < len(raw); {
		if raw[i] != '$' {
			out = append(out, raw[i])
			i++
			continue
		}
		name, ok := vs.longestMatch(raw[i+1:])
		if !ok {
			out = append(out, raw[i])
			i++
			continue
		}
		out = append(out, vs.vals[name]...)
		used = append(used, name)
		i += 1 + len(name)
	}
	return string(out), used
}

// longestMatch finds the longest defined variable name prefixing s.
func (vs *variables) longestMatch(s string) (string, bool) {
	end := 0
	for end < len(s) && isVarNameChar(s[end]) {
		end++
	}
	for n := end; n > 0; n-- {
		if _, ok := vs.vals[s[:n]]; ok {
			return s[:n], true
		}
	}
	return "", false
}

// recordUse remembers a flat dependent line for each variable it
// referenced, deduplicated.
func (vs *variables) recordUse(names []string, line string) {
	for _, name := range names {
		lines := vs.uses[name]
		seen := false
		for _, l := range lines {
			if l == line {
				seen = true
				break
			}
		}
		if !seen {
			vs.uses[name] = append(lines, line)
		}
	}
}

// dependents returns the recorded lines that referenced name.
func (vs *variables) dependents(name string) []string {
	return vs.uses[name]
}

func isVarNameChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

package llm

import "strings"

// ExtractJSON returns the outermost JSON object in an LLM reply, ignoring
// surrounding prose and a ``` fence. Comments and trailing commas, which
// models often emit, are removed outside string literals. It returns "" when
// the reply has no {...} span.
func ExtractJSON(content string) string {
	body := content
	if fenced, ok := fencedBlock(content); ok {
		body = fenced
	}
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return ""
	}
	return dropTrailingCommas(stripComments(body[start : end+1]))
}

// fencedBlock returns the body of the first ``` fence holding an object,
// without its language tag line.
func fencedBlock(s string) (string, bool) {
	open := strings.Index(s, "```")
	if open < 0 {
		return "", false
	}
	rest := s[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.Contains(rest[:nl], "{") {
		rest = rest[nl+1:]
	}
	block, _, closed := strings.Cut(rest, "```")
	if !closed || !strings.Contains(block, "{") {
		return "", false
	}
	return block, true
}

// scanStrings calls visit for every byte outside a string literal and copies
// string literals (quotes included) unchanged. visit returns how many bytes
// it consumed beyond the current one.
func scanStrings(raw string, visit func(b *strings.Builder, raw string, i int) int) string {
	var b strings.Builder
	b.Grow(len(raw))
	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		i += visit(&b, raw, i)
	}
	return b.String()
}

// stripComments removes // line and /* block */ comments. The newline ending
// a line comment is kept.
func stripComments(raw string) string {
	return scanStrings(raw, func(b *strings.Builder, raw string, i int) int {
		rest := raw[i:]
		switch {
		case strings.HasPrefix(rest, "//"):
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
				return nl - 1
			}
			return len(rest) - 1
		case strings.HasPrefix(rest, "/*"):
			if end := strings.Index(rest[2:], "*/"); end >= 0 {
				return end + 3
			}
			return len(rest) - 1
		}
		b.WriteByte(raw[i])
		return 0
	})
}

// dropTrailingCommas removes a comma whose next non-space byte closes an
// object or array.
func dropTrailingCommas(raw string) string {
	return scanStrings(raw, func(b *strings.Builder, raw string, i int) int {
		if raw[i] == ',' {
			next := strings.TrimLeft(raw[i+1:], " \t\r\n")
			if next != "" && (next[0] == '}' || next[0] == ']') {
				return 0
			}
		}
		b.WriteByte(raw[i])
		return 0
	})
}

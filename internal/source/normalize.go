// Package source prepares editor text for evaluation.
//
// Sample code is written as a module ("export default function ComponentDemo...")
// but the evaluator wraps it in a plain function body, where "export" is a
// syntax error. Normalize removes that marker and nothing else. It is a
// line-oriented text edit, not a parse.
package source

import "strings"

const (
	exportWord  = "export"
	defaultWord = "default"
)

// Normalize removes the module-export marker ("export default" or "export")
// from the first non-blank line of src and returns the rest unchanged.
//
// Stacked markers are all removed, and a line left empty by the removal is
// dropped, so Normalize(Normalize(s)) == Normalize(s) for every s.
// Text without a marker is returned as is.
func Normalize(src string) string {
	out := src
	for {
		start, end := firstContentLine(out)
		if start < 0 {
			return out
		}

		line := out[start:end]
		body := strings.TrimLeft(line, " \t")
		rest, stripped := stripMarkers(body)
		if !stripped {
			return out
		}

		if strings.TrimSpace(rest) == "" {
			// The marker stood alone on its line; drop the line with its newline
			// and look at the next one.
			cut := end
			if cut < len(out) {
				cut++
			}
			out = out[:start] + out[cut:]
			continue
		}

		indent := line[:len(line)-len(body)]
		return out[:start] + indent + rest + out[end:]
	}
}

// HasExportMarker reports whether Normalize would change src.
func HasExportMarker(src string) bool {
	return Normalize(src) != src
}

// stripMarkers removes leading export/default keywords from s.
func stripMarkers(s string) (string, bool) {
	stripped := false
	for hasWord(s, exportWord) {
		s = strings.TrimLeft(s[len(exportWord):], " \t")
		if hasWord(s, defaultWord) {
			s = strings.TrimLeft(s[len(defaultWord):], " \t")
		}
		stripped = true
	}
	return s, stripped
}

// hasWord reports whether s starts with word as a whole identifier, so
// "exports.x = 1" or "exported()" are left alone.
func hasWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	return !isIdentByte(s[len(word)])
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c >= 0x80
}

// firstContentLine returns the byte range of the first line that is not
// blank, without its trailing newline. start is -1 when every line is blank.
func firstContentLine(s string) (start, end int) {
	pos := 0
	for pos <= len(s) {
		nl := strings.IndexByte(s[pos:], '\n')
		lineEnd := len(s)
		if nl >= 0 {
			lineEnd = pos + nl
		}
		if strings.TrimSpace(s[pos:lineEnd]) != "" {
			return pos, lineEnd
		}
		if nl < 0 {
			break
		}
		pos = lineEnd + 1
	}
	return -1, -1
}

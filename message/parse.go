package message

import (
	"regexp"
	"strconv"
	"strings"
)

// Locations accepted at the start of a log line:
//
//	shader.wgsl:12:5: error: ...
//	12:5: warning: ...
//	ERROR: 0:12: ...
var (
	fileLinePattern   = regexp.MustCompile(`^([^:\s]+):(\d+):(?:\d+:)?\s*(.*)$`)
	lineColPattern    = regexp.MustCompile(`^(\d+):(?:\d+:)?\s*(.*)$`)
	prefixLinePattern = regexp.MustCompile(`^(?i:error|warning|info):\s*\d+:(\d+):\s*(.*)$`)
)

// ParseLog converts a compiler or driver log into messages. Lines that
// carry a location become file messages for fileName (or the file named in
// the line); other non-empty lines are attached to itemID.
//
// Severity is taken from the text: "error" maps to ShaderError, "warning"
// to ShaderWarning, "info" to ShaderInfo, anything else to ShaderWarning.
func ParseLog(log string, itemID ItemID, fileName string) []Message {
	var result []Message
	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		typ := classify(line)

		if m := prefixLinePattern.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			result = append(result, locate(itemID, fileName, n, typ, m[2]))
			continue
		}
		if m := lineColPattern.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			result = append(result, locate(itemID, fileName, n, typ, m[2]))
			continue
		}
		if m := fileLinePattern.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[2])
			result = append(result, locate(itemID, m[1], n, typ, m[3]))
			continue
		}
		result = append(result, locate(itemID, "", 0, typ, line))
	}
	return result
}

func locate(itemID ItemID, fileName string, line int, t Type, text string) Message {
	text = stripSeverity(text)
	if fileName == "" {
		return ForItem(itemID, t, text)
	}
	return ForFile(fileName, line, t, text)
}

func classify(line string) Type {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return ShaderError
	case strings.Contains(lower, "warning"):
		return ShaderWarning
	case strings.Contains(lower, "info"):
		return ShaderInfo
	}
	return ShaderWarning
}

func stripSeverity(text string) string {
	for _, p := range []string{"error:", "warning:", "info:"} {
		if len(text) >= len(p) && strings.EqualFold(text[:len(p)], p) {
			return strings.TrimSpace(text[len(p):])
		}
	}
	return text
}

package permission

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const maxPreviewBytes = 16 * 1024

// Preview renders a human-readable summary of what a tool call is about
// to do, attached to the request before it is broadcast. It is best
// effort; an empty string means no preview is available.
func Preview(toolName string, toolInput map[string]any) string {
	switch toolName {
	case "Edit":
		path, _ := toolInput["file_path"].(string)
		oldStr, _ := toolInput["old_string"].(string)
		newStr, _ := toolInput["new_string"].(string)
		if oldStr == "" && newStr == "" {
			return ""
		}
		return truncatePreview(diffPreview(path, oldStr, newStr))
	case "Write":
		path, _ := toolInput["file_path"].(string)
		content, _ := toolInput["content"].(string)
		if content == "" {
			return ""
		}
		before := ""
		if path != "" {
			if existing, err := os.ReadFile(path); err == nil {
				before = string(existing)
			}
		}
		return truncatePreview(diffPreview(path, before, content))
	case "Bash":
		command, _ := toolInput["command"].(string)
		return truncatePreview(command)
	}
	return ""
}

// diffPreview calculates a patch-format diff between two text states,
// prefixed with file headers when a path is known.
func diffPreview(path, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(before, diffs)
	diffText := dmp.PatchToText(patches)
	if diffText == "" {
		return ""
	}

	var builder strings.Builder
	if path != "" {
		builder.WriteString(fmt.Sprintf("--- %s\n", path))
		builder.WriteString(fmt.Sprintf("+++ %s\n", path))
	}
	builder.WriteString(diffText)
	return builder.String()
}

func truncatePreview(s string) string {
	if len(s) <= maxPreviewBytes {
		return s
	}
	return s[:maxPreviewBytes] + "\n... (truncated)"
}

package permission

import "strings"

// MatchPattern reports whether a parsed command matches a wildcard
// pattern of the form "command subcommand *", "command *", or "*".
func MatchPattern(pattern string, cmd Command) bool {
	parts := strings.Split(pattern, " ")
	if len(parts) == 0 {
		return false
	}

	if parts[0] == "*" && len(parts) == 1 {
		return true
	}

	if parts[0] != "*" && parts[0] != cmd.Name {
		return false
	}

	// Bare command name requires an argument-free invocation.
	if len(parts) == 1 {
		return cmd.Name == parts[0] && len(cmd.Args) == 0
	}

	if parts[len(parts)-1] == "*" {
		for i := 1; i < len(parts)-1; i++ {
			argIndex := i - 1
			if argIndex >= len(cmd.Args) {
				return false
			}
			if parts[i] != "*" && parts[i] != cmd.Args[argIndex] {
				return false
			}
		}
		return true
	}

	if len(parts)-1 != len(cmd.Args) {
		return false
	}
	for i := 1; i < len(parts); i++ {
		if parts[i] != cmd.Args[i-1] {
			return false
		}
	}
	return true
}

// MatchRule reports whether a settings rule covers a tool call. A bare
// rule like "Write" matches the tool name exactly. A rule of the form
// "Bash(git commit *)" matches Bash calls whose every parsed command
// matches the embedded pattern.
func MatchRule(rule, toolName string, toolInput map[string]any) bool {
	inner, embedded := splitRule(rule)
	if !embedded {
		return rule == toolName
	}

	if toolName != "Bash" || !strings.HasPrefix(rule, "Bash(") {
		return false
	}

	command, _ := toolInput["command"].(string)
	if command == "" {
		return false
	}
	commands, err := ParseCommands(command)
	if err != nil || len(commands) == 0 {
		return false
	}
	for _, cmd := range commands {
		if !MatchPattern(inner, cmd) {
			return false
		}
	}
	return true
}

// splitRule extracts the embedded pattern from "Tool(pattern)" rules.
func splitRule(rule string) (string, bool) {
	open := strings.IndexByte(rule, '(')
	if open < 0 || !strings.HasSuffix(rule, ")") {
		return "", false
	}
	return rule[open+1 : len(rule)-1], true
}

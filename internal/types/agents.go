package types

import "strings"

// defaultAgentAliases maps shorthand agent names to the display names used
// in the board's assignment field and in claim comments. Config can extend
// this set; these cover the runners we ship integrations for.
var defaultAgentAliases = map[string]string{
	"claude":      "Claude Code",
	"claude-code": "Claude Code",
	"claudecode":  "Claude Code",
	"codex":       "Codex",
	"gemini":      "Gemini CLI",
	"gemini-cli":  "Gemini CLI",
}

// NormalizeAgent canonicalizes an agent name so that the shorthand a
// runner passes on the command line ("claude") matches the display name
// stored on the board ("Claude Code"). Unknown names pass through trimmed.
func NormalizeAgent(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := defaultAgentAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

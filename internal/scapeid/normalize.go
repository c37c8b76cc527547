package scapeid

import "strings"

const (
	Wumpus    = "wumpus"
	WorldFile = "world-file"

	AgentRandom   = "random"
	AgentManual   = "manual"
	AgentScripted = "scripted"
	AgentTerminal = "terminal"
	AgentRemote   = "remote"
)

// Normalize canonicalizes scape names and their aliases.
func Normalize(name string) string {
	normalized := clean(name)
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized, "scape") {
		if canonical, ok := canonicalScapeName(candidate); ok {
			return canonical
		}
	}
	return normalized
}

// NormalizeAgent canonicalizes agent kind names and their aliases.
func NormalizeAgent(kind string) string {
	normalized := clean(kind)
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized, "agent") {
		if canonical, ok := canonicalAgentKind(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func clean(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return strings.Trim(normalized, "-")
}

// aliasCandidates yields the name with the kind prefix and suffix stripped,
// e.g. "scape-wumpus-sim" -> "wumpus" and "random-agent" -> "random".
func aliasCandidates(normalized, kind string) []string {
	candidate := strings.TrimPrefix(normalized, kind+"-")
	candidate = strings.TrimSuffix(candidate, "-"+kind)
	candidate = strings.Trim(candidate, "-")

	candidates := []string{normalized}
	if candidate != "" && candidate != normalized {
		candidates = append(candidates, candidate)
	}
	if trimmed := trimSimSuffix(candidate); trimmed != "" && trimmed != candidate {
		candidates = append(candidates, trimmed)
	}
	return candidates
}

func trimSimSuffix(value string) string {
	switch {
	case strings.HasSuffix(value, "-sim"):
		return strings.TrimSuffix(value, "-sim")
	case strings.HasSuffix(value, "sim") && !strings.Contains(value, "-"):
		return strings.TrimSuffix(value, "sim")
	default:
		return value
	}
}

func canonicalScapeName(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "wumpus", "wumpusworld", "random", "randomworld":
		return Wumpus, true
	case "worldfile", "file", "wumpusfile":
		return WorldFile, true
	default:
		return "", false
	}
}

func canonicalAgentKind(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "random", "rand":
		return AgentRandom, true
	case "manual", "human", "stdin":
		return AgentManual, true
	case "scripted", "script", "replay":
		return AgentScripted, true
	case "terminal", "tui", "tcell":
		return AgentTerminal, true
	case "remote", "ws", "websocket":
		return AgentRemote, true
	default:
		return "", false
	}
}

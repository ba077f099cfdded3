package manifest

import (
	"path"
	"strings"
)

// SkillDir normalises a skill path to the slash-separated directory holding
// SKILL.md, relative to the repository root. A path naming the SKILL.md file
// itself resolves to its parent; "", "." and "/" resolve to "" (the root).
func SkillDir(p string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	cleaned = strings.TrimRight(cleaned, "/")
	if cleaned == "" {
		return ""
	}
	cleaned = path.Clean(cleaned)
	if strings.EqualFold(path.Base(cleaned), SkillFile) {
		cleaned = path.Dir(cleaned)
	}
	if cleaned == "." {
		return ""
	}
	return cleaned
}

package llm

import "strings"

// ExtractJSON pulls the first JSON object out of a model reply. Models often
// wrap the object in prose or markdown fences, so we cut from the first "{"
// to the last "}". Returns empty string when no object is present.
func ExtractJSON(text string) string {
	content := strings.TrimSpace(text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		return content[startIdx : endIdx+1]
	}
	return ""
}

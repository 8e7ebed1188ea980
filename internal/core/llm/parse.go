package llm

import "strings"

// maxContentChars bounds how much document text is sent to a model in
// one analysis request. Longer documents are truncated; the chunk set
// still covers the full text.
const maxContentChars = 8000

func truncateContent(text string) string {
	if len(text) <= maxContentChars {
		return text
	}
	return text[:maxContentChars] + "\n...[truncated]"
}

func analysisPrompt(text, title string) string {
	var b strings.Builder
	b.WriteString("Analyze this document efficiently and concisely:\n\n")
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\nContent: ")
	b.WriteString(truncateContent(text))
	b.WriteString("\n\nProvide a brief analysis with:\n")
	b.WriteString("1. Summary (2-3 sentences max)\n")
	b.WriteString("2. Key points (3-5 bullet points max)\n\n")
	b.WriteString("Be concise and direct.")
	return b.String()
}

// parseAnalysis splits a model response into prose (summary) and bullet
// lines (key points). Section headings the models tend to emit are
// dropped.
func parseAnalysis(raw string) (summary string, keyPoints []string) {
	var prose []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if point, ok := stripBullet(line); ok {
			if point != "" {
				keyPoints = append(keyPoints, point)
			}
			continue
		}
		if isHeading(line) {
			continue
		}
		prose = append(prose, line)
	}
	return strings.Join(prose, " "), keyPoints
}

func stripBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	// Numbered list items: "1. point", "2) point".
	if len(line) > 2 && line[0] >= '0' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return strings.TrimSpace(line[2:]), true
	}
	return "", false
}

func isHeading(line string) bool {
	lower := strings.ToLower(strings.Trim(line, "#* "))
	for _, h := range []string{"summary:", "summary", "key points:", "key points", "main topics:", "analysis:"} {
		if lower == h {
			return true
		}
	}
	return false
}

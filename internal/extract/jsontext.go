package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/vibecheck/internal/model"
)

var reasoningBlocks = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think>.*?</think>`),
	regexp.MustCompile(`(?is)<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?is)<reasoning>.*?</reasoning>`),
	regexp.MustCompile(`(?is)<thought>.*?</thought>`),
}

var blankRuns = regexp.MustCompile(`\n\s*\n\s*\n`)

// StripReasoning removes model reasoning blocks from an LLM response
func StripReasoning(text string) string {
	for _, re := range reasoningBlocks {
		text = re.ReplaceAllString(text, "")
	}
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripFences removes a surrounding markdown code fence
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractJSONObject finds and decodes the first JSON object in free text.
// It tries the first balanced object, then the span from the first '{' to the last '}'.
func ExtractJSONObject(text string) (map[string]any, error) {
	text = stripFences(StripReasoning(text))

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object found", model.ErrMalformedResearch)
	}

	if end := balancedEnd(text, start); end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
			return obj, nil
		}
	}

	last := strings.LastIndexByte(text, '}')
	if last > start {
		var obj map[string]any
		err := json.Unmarshal([]byte(text[start:last+1]), &obj)
		if err == nil {
			return obj, nil
		}
		return nil, fmt.Errorf("%w: decode JSON: %v", model.ErrMalformedResearch, err)
	}

	return nil, fmt.Errorf("%w: unterminated JSON object", model.ErrMalformedResearch)
}

// balancedEnd returns the index of the brace closing the object at start, or -1.
// Braces inside string literals are ignored.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
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

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

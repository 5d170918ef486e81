package llm

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sevigo/codesage/internal/core"
)

const (
	codeFence  = "```"
	jsonTag    = "json"
	bugsKey    = "bugs"
	suggestKey = "suggestions"
)

// ExtractFindings pulls the structured bugs and suggestions out of a free-text
// model response. It looks only at the first fenced block opened by ```json.
// A missing, truncated or malformed block yields empty results; it never
// fails, because the prose review stands on its own.
func ExtractFindings(text string) ([]core.BugFinding, []core.Suggestion) {
	block, ok := jsonBlock(text)
	if !ok || !gjson.Valid(block) {
		return []core.BugFinding{}, []core.Suggestion{}
	}

	doc := gjson.Parse(block)
	if !doc.IsObject() {
		return []core.BugFinding{}, []core.Suggestion{}
	}

	return parseBugs(doc.Get(bugsKey)), parseSuggestions(doc.Get(suggestKey))
}

// jsonBlock returns the body of the first ```json fence. The language tag is
// matched case-insensitively; an unclosed fence runs to the end of the text.
func jsonBlock(text string) (string, bool) {
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], codeFence)
		if j < 0 {
			return "", false
		}
		tag := i + j + len(codeFence)
		if tag+len(jsonTag) <= len(text) && strings.EqualFold(text[tag:tag+len(jsonTag)], jsonTag) {
			rest := text[tag+len(jsonTag):]
			if end := strings.Index(rest, codeFence); end >= 0 {
				rest = rest[:end]
			}
			return strings.TrimSpace(rest), true
		}
		i += j + 1
	}
	return "", false
}

func parseBugs(arr gjson.Result) []core.BugFinding {
	bugs := []core.BugFinding{}
	if !arr.IsArray() {
		return bugs
	}
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		line := item.Get("line").Int()
		if line < 0 {
			line = 0
		}
		bugs = append(bugs, core.BugFinding{
			Line:        int(line),
			Description: item.Get("description").String(),
			Severity:    core.ParseSeverity(item.Get("severity").String()),
			Suggestion:  item.Get("suggestion").String(),
		})
		return true
	})
	return bugs
}

func parseSuggestions(arr gjson.Result) []core.Suggestion {
	suggestions := []core.Suggestion{}
	if !arr.IsArray() {
		return suggestions
	}
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		suggestions = append(suggestions, core.Suggestion{
			Description: item.Get("description").String(),
			CodeSnippet: item.Get("code_snippet").String(),
		})
		return true
	})
	return suggestions
}

// Package digest assembles bounded prompts from retrieved content and
// produces weekly learning digests.
package digest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/studyowl/studyowl/internal/store"
)

// snippetLimit caps each content snippet in bytes before the ellipsis.
const snippetLimit = 200

// untitled replaces empty content titles in assembled prompts.
const untitled = "Untitled"

// PromptMessages holds the two-part prompt sent to the language model.
type PromptMessages struct {
	System string
	User   string
}

// QueryText returns the retrieval query used for a week's digest.
func QueryText(week int) string {
	return fmt.Sprintf("learning digest for week %d topics", week)
}

// FallbackText is the digest recorded when no content is available.
func FallbackText(week int) string {
	return fmt.Sprintf("No content found to generate digest for week %d.", week)
}

// Assemble builds the digest prompt from retrieved content. Snippets are
// single-line and capped, so the prompt size is bounded by topK regardless of
// stored content length.
func Assemble(week int, results []store.RetrievalResult, topK int) PromptMessages {
	snippets := make([]string, 0, len(results))
	for _, res := range results {
		snippets = append(snippets, formatSnippet(res.Item))
	}

	var user strings.Builder
	user.WriteString("Here are relevant snippets:\n\n")
	user.WriteString(strings.Join(snippets, "\n\n"))
	fmt.Fprintf(&user, "\n\nCreate exactly %d concise learning insights tailored to week %d.", topK, week)

	return PromptMessages{
		System: fmt.Sprintf("You are an expert AI learning coach. Generate %d short learning insights. "+
			"Each insight should have a title, difficulty level, and 1-2 actionable bullets.", topK),
		User: user.String(),
	}
}

// formatSnippet renders one content item as a single prompt line. Newlines in
// the stored text are folded to spaces and the text is truncated to at most
// snippetLimit bytes on a rune boundary.
func formatSnippet(item store.ContentItem) string {
	title := item.Title
	if title == "" {
		title = untitled
	}

	text := strings.ReplaceAll(item.Text, "\n", " ")
	if len(text) > snippetLimit {
		cut := snippetLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	return fmt.Sprintf("- **%s**: %s...", title, text)
}

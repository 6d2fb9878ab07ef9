package review

import (
	"fmt"
	"strings"

	"github.com/codecritic/codecritic/internal/llm"
)

// languageByExt maps a file extension (without the dot) to the language
// label used in the review prompt. Unknown extensions get no label.
var languageByExt = map[string]string{
	"js":   "JavaScript",
	"ts":   "TypeScript",
	"java": "Java",
	"py":   "Python",
	"sh":   "Bash",
}

// LanguageLabel returns the language name for a filename's extension, or
// an empty string when the extension is unknown or missing. The match is
// case-sensitive on the suffix after the last dot.
func LanguageLabel(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return languageByExt[filename[idx+1:]]
}

// CodeLabel returns the phrase naming the code in the prompt, either
// "<Language> code" or a plain "code" for unrecognized extensions.
func CodeLabel(filename string) string {
	if lang := LanguageLabel(filename); lang != "" {
		return lang + " code"
	}
	return "code"
}

// PromptBuilder renders review prompts for file contents. Custom
// instructions from the repository config are appended to every prompt.
type PromptBuilder struct {
	prompts      *llm.PromptManager
	instructions []string
}

// NewPromptBuilder creates a PromptBuilder on top of the embedded prompt
// templates.
func NewPromptBuilder(prompts *llm.PromptManager, instructions []string) *PromptBuilder {
	return &PromptBuilder{prompts: prompts, instructions: instructions}
}

// BuildReviewPrompt produces the full review request for one file. The file
// content is embedded verbatim; oversized content is passed through as-is
// and any resulting service error is the caller's to handle.
func (b *PromptBuilder) BuildReviewPrompt(filename, content string) (string, error) {
	prompt, err := b.prompts.Render(llm.CodeReviewPrompt, map[string]any{
		"CodeLabel":    CodeLabel(filename),
		"Content":      content,
		"Instructions": b.instructions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build review prompt for %s: %w", filename, err)
	}
	return prompt, nil
}

// BuildReplyPrompt produces the follow-up prompt for answering a human
// reply to one of the bot's review comments.
func (b *PromptBuilder) BuildReplyPrompt(question, commitID, path string, position int, diffHunk string) (string, error) {
	prompt, err := b.prompts.Render(llm.ReplyPrompt, map[string]any{
		"Question": question,
		"CommitID": commitID,
		"Path":     path,
		"Position": position,
		"DiffHunk": diffHunk,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build reply prompt: %w", err)
	}
	return prompt, nil
}

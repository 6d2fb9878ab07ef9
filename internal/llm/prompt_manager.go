package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

// PromptKey identifies one of the embedded prompt templates.
type PromptKey string

const (
	// CodeReviewPrompt asks the model to review a full file.
	CodeReviewPrompt PromptKey = "code_review"
	// ReplyPrompt asks the model to answer a follow-up question on a
	// review comment, with the comment's diff context attached.
	ReplyPrompt PromptKey = "reply"
)

// PromptManager loads and renders the prompt templates embedded in the
// binary. Templates live under prompts/ as <key>.prompt files.
type PromptManager struct {
	prompts map[PromptKey]*template.Template
}

// NewPromptManager parses all embedded prompt files.
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{prompts: make(map[PromptKey]*template.Template)}

	files, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		name := file.Name()
		key := PromptKey(strings.TrimSuffix(name, ".prompt"))

		content, err := promptFiles.ReadFile("prompts/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt file %s: %w", name, err)
		}

		tmpl, err := template.New(string(key)).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("could not parse prompt template %s: %w", name, err)
		}
		pm.prompts[key] = tmpl
	}

	return pm, nil
}

// Render executes the template for key with the given data.
func (pm *PromptManager) Render(key PromptKey, data any) (string, error) {
	tmpl, ok := pm.prompts[key]
	if !ok {
		return "", fmt.Errorf("no prompt template found for key %q", key)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template %q: %w", key, err)
	}
	return buf.String(), nil
}

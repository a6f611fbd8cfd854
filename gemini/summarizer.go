// Package gemini implements section generation using Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/skilldhq/skilld"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// maxPromptDocs bounds how much cached material goes into one prompt.
const maxPromptDocs = 40

// Ensure Summarizer implements skilld.Summarizer at compile time.
var _ skilld.Summarizer = (*Summarizer)(nil)

// Summarizer implements skilld.Summarizer using Google Gemini. It distills
// cached documentation into a sections/overview.md file that agents can read
// without loading the full corpus.
type Summarizer struct {
	client *genai.Client
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(client *genai.Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize generates the overview section for a package from its cached
// documentation.
func (s *Summarizer) Summarize(ctx context.Context, pkg *skilld.ResolvedPackage, docs []skilld.Doc) ([]skilld.Doc, error) {
	if pkg == nil {
		return nil, skilld.Errorf(skilld.EINVALID, "package required")
	}
	if len(docs) == 0 {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "no documents to summarize for %s@%s", pkg.Name, pkg.Version)
	}

	prompt := BuildUserPrompt(pkg, docs)
	config := BuildConfig()

	result, err := s.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, skilld.Errorf(skilld.EINTERNAL, "gemini returned nil result")
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, skilld.Errorf(skilld.EINTERNAL, "gemini returned empty overview")
	}

	return []skilld.Doc{{Path: "sections/overview.md", Content: text}}, nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.3)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You summarize software library documentation for coding agents. Produce a concise markdown overview of the library: what it is for, its core concepts, and the most common usage patterns. Base the summary only on the documentation provided.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing the package identity and
// its documentation.
func BuildUserPrompt(pkg *skilld.ResolvedPackage, docs []skilld.Doc) string {
	if len(docs) > maxPromptDocs {
		docs = docs[:maxPromptDocs]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Package: %s@%s\n", pkg.Name, pkg.Version)
	if pkg.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", pkg.Description)
	}
	sb.WriteString("\n<documents>\n")
	for i, doc := range docs {
		sb.WriteString("<document>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<path>%s</path>\n", doc.Path)
		fmt.Fprintf(&sb, "<content>%s</content>\n", doc.Content)
		sb.WriteString("</document>\n")
	}
	sb.WriteString("</documents>\n\n")
	fmt.Fprintf(&sb, "Write the overview for %s.", pkg.Name)
	return sb.String()
}

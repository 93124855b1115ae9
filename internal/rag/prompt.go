// Package rag assembles prompts, budgets context, and dispatches to one of
// three LLM providers selected by model name.
package rag

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"docrag/internal/models"
	"docrag/internal/retrieval"
)

const systemPreamble = "You are an assistant that answers questions based on provided context chunks.\n" +
	"Use only the information in the context. If unsure, say you don't know.\n" +
	"Keep answers concise and cite relevant chunk indices when helpful."

// Message is one turn in the prompt sent to a provider, role already
// normalized to "system"/"user"/"assistant".
type Message struct {
	Role    string
	Content string
}

// truncateContexts keeps hits in retrieval order, stopping before the
// running character count would exceed maxChars.
func truncateContexts(hits []retrieval.Hit, maxChars int) []retrieval.Hit {
	var out []retrieval.Hit
	total := 0
	for _, h := range hits {
		if total+len(h.Text) > maxChars {
			break
		}
		out = append(out, h)
		total += len(h.Text)
	}
	return out
}

func renderContextBlock(hits []retrieval.Hit) string {
	if len(hits) == 0 {
		return "No context available."
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		docName, _ := h.Payload["document_name"].(string)
		if docName == "" {
			docName, _ = h.Payload["document_original_filename"].(string)
		}
		sourceInfo := ""
		if docName != "" {
			sourceInfo = fmt.Sprintf(", doc=%s", docName)
		}
		lines[i] = fmt.Sprintf("[%d] (score=%.3f%s) %s", i+1, h.Score, sourceInfo, h.Text)
	}
	return strings.Join(lines, "\n")
}

func renderHistoryBlock(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}

// buildPromptMessages assembles the system preamble and a single user turn
// carrying the budgeted context block, history block, and the question.
func buildPromptMessages(question string, hits []retrieval.Hit, history []models.ChatMessage) []Message {
	contextBlock := renderContextBlock(hits)
	historyBlock := renderHistoryBlock(history)

	user := fmt.Sprintf("Context:\n%s\n\nHistory:\n%s\n\nQuestion: %s\nAnswer:",
		contextBlock, historyBlock, question)

	return []Message{
		{Role: "system", Content: systemPreamble},
		{Role: "user", Content: user},
	}
}

// stripAccents applies NFKD decomposition and drops combining marks, the Go
// analogue of Python's unicodedata-based accent stripping.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var documentNameKeywords = []string{
	"ten tai lieu",
	"tai lieu nay la gi",
	"tai lieu nay ten gi",
	"ten file",
	"file name",
	"document name",
	"name of the document",
	"document title",
}

// isDocumentNameQuestion matches a small fixed set of phrases, in English
// and accent-stripped Vietnamese, asking "what is this document called".
func isDocumentNameQuestion(question string) bool {
	q := strings.ToLower(stripAccents(question))
	for _, kw := range documentNameKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// collectDocNames pulls document names out of retrieved context payloads,
// in first-seen order, without duplicates.
func collectDocNames(hits []retrieval.Hit) []string {
	var names []string
	seen := make(map[string]bool)
	for _, h := range hits {
		for _, key := range []string{"document_name", "document_original_filename", "file_name", "filename", "name"} {
			if v, ok := h.Payload[key].(string); ok && v != "" {
				if !seen[v] {
					names = append(names, v)
					seen[v] = true
				}
				break
			}
		}
	}
	return names
}

func formatDocumentNames(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("Document name: %s.", names[0])
	}
	return "Document names: " + strings.Join(names, ", ") + "."
}

// Package markup provides the text transforms applied to prompts and
// responses: entity escaping, input wrapping, code-fence conversion, and
// document-list rendering. All functions are pure.
package markup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
)

// escaper covers exactly the five entities the agent prompt contract
// requires. It is not a general-purpose HTML escaper.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeSpecial replaces & < > " ' with their entity forms.
func EscapeSpecial(text string) string {
	return escaper.Replace(text)
}

// WrapInput serializes v as indented JSON, escapes it, and wraps it in the
// <input> tag the agent expects for structured form submissions. HTML
// escaping is disabled on the encoder so < > & stay literal and pick up
// their entity forms from EscapeSpecial rather than \uXXXX escapes.
func WrapInput(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}
	data := strings.TrimSuffix(buf.String(), "\n")
	return fmt.Sprintf("<input>\n%s\n</input>", EscapeSpecial(data)), nil
}

// FormatResponse converts the first code-fence pair to <pre><code> markup.
// Newlines are preserved verbatim.
func FormatResponse(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	text = strings.Replace(text, "```", "<pre><code>", 1)
	text = strings.Replace(text, "```", "</code></pre>", 1)
	return text
}

// FormatDocumentList renders attached documents as a list block appended
// to the user's message.
func FormatDocumentList(docs []domain.Document) string {
	var b strings.Builder
	b.WriteString("\nAttached Documents:\n")
	for _, doc := range docs {
		b.WriteString(fmt.Sprintf("- 📄 %s\n", doc.Title))
	}
	return b.String()
}

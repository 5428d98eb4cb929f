package export

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// Parser deserializes an exported recording back into structured data.
type Parser interface {
	Parse(data []byte) (*session.Recording, error)
}

// JSONParser parses a recording in the session wire format.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*session.Recording, error) {
	rec, err := session.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON export: %w", err)
	}
	return rec, nil
}

// MarkdownParser parses a Markdown export by extracting the embedded
// base64 JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*session.Recording, error) {
	content := string(data)

	// Require the version sentinel.
	if !strings.Contains(content, "<!-- codewalk-session-version: 1 -->") {
		return nil, fmt.Errorf("not a valid codewalk export: missing version sentinel")
	}

	// Extract the base64 payload from <!-- codewalk-data: <base64> -->.
	const prefix = "<!-- codewalk-data: "
	const suffix = " -->"
	start := strings.Index(content, prefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid codewalk export: missing data payload")
	}
	start += len(prefix)
	end := strings.Index(content[start:], suffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid codewalk export: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid codewalk export: corrupted base64 payload: %w", err)
	}

	rec, err := session.Decode(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("not a valid codewalk export: failed to parse embedded JSON: %w", err)
	}
	return rec, nil
}

// ParserFor picks a parser from the leading bytes of an import: JSON
// documents start with an object, everything else is treated as Markdown.
func ParserFor(data []byte) Parser {
	trimmed := strings.TrimLeft(string(data), " \t\r\n")
	if strings.HasPrefix(trimmed, "{") {
		return &JSONParser{}
	}
	return &MarkdownParser{}
}

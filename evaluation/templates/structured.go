/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package templates

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// Verdict is the structured payload a judge may return instead of free text.
type Verdict struct {
	Score              *float64 `json:"score" jsonschema:"required,minimum=0,maximum=1,description=Score from 0.0 to 1.0"`
	Reasoning          string   `json:"reasoning" jsonschema:"required,description=Explanation of the score"`
	GeneratedQuestion  string   `json:"generated_question,omitempty" jsonschema:"description=Question the answer responds to (answer relevance only)"`
	Noncommittal       *int     `json:"noncommittal,omitempty" jsonschema:"enum=0,enum=1,description=1 when the answer is evasive (answer relevance only)"`
	Statements         []string `json:"statements,omitempty" jsonschema:"description=Atomic statements (faithfulness only)"`
	FaithfulStatements *int     `json:"faithful_statements,omitempty" jsonschema:"minimum=0"`
	TotalStatements    *int     `json:"total_statements,omitempty" jsonschema:"minimum=0"`
}

func (v *Verdict) response(raw string) Response {
	resp := Response{
		Score:       Clamp(*v.Score),
		Reasoning:   strings.TrimSpace(v.Reasoning),
		RawResponse: raw,
	}
	meta := make(map[string]any)
	if v.GeneratedQuestion != "" {
		meta["generated_question"] = v.GeneratedQuestion
	}
	if v.Noncommittal != nil {
		meta["noncommittal"] = *v.Noncommittal
	}
	if len(v.Statements) > 0 {
		meta["statements"] = v.Statements
	}
	if v.FaithfulStatements != nil {
		meta["faithful_statements"] = *v.FaithfulStatements
	}
	if v.TotalStatements != nil {
		meta["total_statements"] = *v.TotalStatements
	}
	if len(meta) > 0 {
		resp.Metadata = meta
	}
	return resp
}

// parseVerdict decodes a structured verdict, possibly wrapped in a ```json fence.
// It reports false when the text is not a JSON object carrying a score.
func parseVerdict(raw string) (*Verdict, bool) {
	content := extractJSON(raw)
	if !strings.HasPrefix(content, "{") {
		return nil, false
	}
	var v Verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, false
	}
	if v.Score == nil {
		return nil, false
	}
	return &v, true
}

// extractJSON returns the first ```json fenced block in text, or the text
// with any surrounding fence stripped.
func extractJSON(text string) string {
	var block []string
	inBlock, found := false, false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && trimmed == "```json":
			inBlock, found = true, true
		case inBlock && trimmed == "```":
			return strings.TrimSpace(strings.Join(block, "\n"))
		case inBlock:
			block = append(block, line)
		}
	}
	if found {
		return strings.TrimSpace(strings.Join(block, "\n"))
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

var (
	suffixOnce sync.Once
	suffix     string
)

// StructuredSuffix is appended to prompts when the judge is asked for a
// structured verdict. It embeds the JSON schema of Verdict.
func StructuredSuffix() string {
	suffixOnce.Do(func() {
		r := jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			DoNotReference:             true,
		}
		schema, err := json.MarshalIndent(r.Reflect(&Verdict{}), "", "  ")
		if err != nil {
			// Reflecting a fixed struct cannot fail in practice.
			schema = []byte(`{"type":"object"}`)
		}
		suffix = "\n\n<output_format>\n" +
			"Return your judgment as a single JSON object matching this schema:\n" +
			string(schema) +
			"\nRespond with only the JSON object, no additional text.\n</output_format>"
	})
	return suffix
}

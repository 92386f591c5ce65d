/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package templates

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// Response is the parsed form of a judge reply.
type Response struct {
	// Score is the judgment from 0.0 to 1.0.
	Score float64 `json:"score"`

	// Reasoning explains the score.
	Reasoning string `json:"reasoning"`

	// RawResponse is the unmodified judge output.
	RawResponse string `json:"raw_response"`

	// Metadata carries template-specific fields (e.g. noncommittal, statements).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Parser turns a free-form judge reply into a Response.
// Parsers must never fail: unparseable input yields a zero score.
type Parser func(ctx context.Context, raw string) Response

// Template is a parameterized judge prompt and the parser for its replies.
// Templates are read-only once registered and safe for concurrent use.
type Template struct {
	Name        string
	Description string
	Text        string
	Variables   []string
	Parser      Parser
}

// Parse runs the template parser, falling back to ParseBasic when none is set.
func (t *Template) Parse(ctx context.Context, raw string) Response {
	if t.Parser == nil {
		return ParseBasic(ctx, raw)
	}
	return t.Parser(ctx, raw)
}

// validate checks that declared variables and placeholders agree.
func (t *Template) validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	found := Placeholders(t.Text)
	for _, v := range t.Variables {
		if !slices.Contains(found, v) {
			return fmt.Errorf("template %q declares variable %q that does not appear in its text", t.Name, v)
		}
	}
	for _, p := range found {
		if !slices.Contains(t.Variables, p) {
			return fmt.Errorf("template %q uses undeclared placeholder %q", t.Name, p)
		}
	}
	return nil
}

// Registry maps a metric key to its template.
// Registration happens at construction; lookups are safe for concurrent use afterwards.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds a template under key after validating it.
func (r *Registry) Register(key string, t *Template) error {
	if key == "" {
		return fmt.Errorf("registry key is required")
	}
	if t == nil {
		return fmt.Errorf("template for %q is nil", key)
	}
	if _, exists := r.templates[key]; exists {
		return fmt.Errorf("template %q already registered", key)
	}
	if err := t.validate(); err != nil {
		return err
	}
	r.templates[key] = t
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(key string, t *Template) *Registry {
	if err := r.Register(key, t); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the template registered under key.
func (r *Registry) Lookup(key string) (*Template, error) {
	t, ok := r.templates[key]
	if !ok {
		return nil, fmt.Errorf("no template registered for %q", key)
	}
	return t, nil
}

// MustLookup is Lookup that panics when key is not registered.
func (r *Registry) MustLookup(key string) *Template {
	t, err := r.Lookup(key)
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the registered keys in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry builds a fresh registry with the four built-in metric templates.
func DefaultRegistry() *Registry {
	return NewRegistry().
		MustRegister(CorrectnessKey, Correctness()).
		MustRegister(ContextPrecisionKey, ContextPrecision()).
		MustRegister(AnswerRelevanceKey, AnswerRelevance()).
		MustRegister(FaithfulnessKey, Faithfulness())
}

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package templates

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Registry keys of the built-in templates.
const (
	CorrectnessKey      = "correctness"
	ContextPrecisionKey = "context_precision"
	AnswerRelevanceKey  = "answer_relevance"
	FaithfulnessKey     = "faithfulness"
)

const correctnessText = `Evaluate the correctness of the generation on a continuous scale from 0 to 1. A generation can be considered correct (Score: 1) if it includes all the key facts from the ground truth and if every fact presented in the generation is factually supported by the ground truth or common sense.

Example:
Query: Can eating carrots improve your vision?
Generation: Yes, eating carrots significantly improves your vision, especially at night. This is why people who eat lots of carrots never need glasses. Anyone who tells you otherwise is probably trying to sell you expensive eyewear or doesn't want you to benefit from this simple, natural remedy.
Ground truth: Well, yes and no. Carrots won't improve your visual acuity if you have less than perfect vision. But the vitamins found in the vegetable can help promote overall eye health. Carrots contain beta-carotene, which the body converts to vitamin A, an important nutrient for eye health. If your vision problems aren't related to vitamin A, your vision won't change no matter how many carrots you eat.
Score: 0.1
Reasoning: While the generation mentions that carrots can improve vision, it fails to outline the reason and the circumstances under which this is the case. The rest of the response contains misinformation and exaggerations, and deviates significantly from the nuanced explanation in the ground truth.

Input:
Query: {{query}}
Generation: {{generation}}
Ground truth: {{ground_truth}}

Think step by step. Provide your evaluation in this format:
Score: [0.0 to 1.0]
Reasoning: [Your detailed explanation]`

const contextPrecisionText = `Given question, answer and context verify if the context was useful in arriving at the given answer.

Evaluate on a scale from 0 to 1:
- Score 1.0: The context was highly useful and directly contributed to the answer
- Score 0.5: The context was partially useful but not essential
- Score 0.0: The context was not useful or irrelevant to the answer

Question: {{question}}
Answer: {{answer}}
Context: {{context}}

Think step by step. Consider:
1. Does the context contain information present in the answer?
2. Would the answer be possible without this context?
3. How much of the context was actually used?

Provide your evaluation in this format:
Score: [0.0 to 1.0]
Reasoning: [Your detailed explanation]`

const answerRelevanceText = `Generate a question for the given answer and identify if answer is noncommittal.

Give noncommittal as 1 if the answer is noncommittal and 0 if the answer is committal. A noncommittal answer is one that is evasive, vague, or ambiguous. For example, 'I don't know' or 'I'm not sure' are noncommittal answers.

Answer: {{answer}}
Answer metadata: {{metadata}}

Think step by step:
1. What question would this answer be responding to?
2. Is the answer direct and specific, or vague and evasive?
3. Does the answer provide concrete information or avoid commitment?

Calculate the relevance score (0 to 1):
- If noncommittal: score should be lower (0.0-0.4)
- If committal and relevant: score should be higher (0.6-1.0)

Provide your evaluation in this format:
Generated Question: [The question this answer would respond to]
Noncommittal: [0 or 1]
Score: [0.0 to 1.0]
Reasoning: [Your detailed explanation]`

const faithfulnessText = `Given a question and an answer, analyze the complexity of each sentence in the answer. Break down each sentence into one or more fully understandable statements. Ensure that no pronouns are used in any statement.

Question: {{question}}
Answer: {{answer}}
Context: {{context}}

Instructions:
1. Break down the answer into atomic statements
2. Replace all pronouns with their referents
3. Verify each statement for faithfulness to the context and the original answer
4. Count total statements and faithful statements

Calculate faithfulness score:
Score = (Number of faithful statements) / (Total number of statements)

Provide your evaluation in this format:
Statements:
1. [First atomic statement]
2. [Second atomic statement]
...

Faithful Statements: [count]
Total Statements: [count]
Score: [0.0 to 1.0]
Reasoning: [Your detailed explanation]`

// Correctness judges whether a generation carries the ground truth's key facts.
func Correctness() *Template {
	return &Template{
		Name:        "Correctness",
		Description: "Evaluate the correctness of the generation on a continuous scale from 0 to 1",
		Text:        correctnessText,
		Variables:   []string{"query", "generation", "ground_truth"},
		Parser:      ParseBasic,
	}
}

// ContextPrecision judges whether the supplied context was useful for the answer.
func ContextPrecision() *Template {
	return &Template{
		Name:        "Context Precision",
		Description: "Verify if the context was useful in arriving at the given answer",
		Text:        contextPrecisionText,
		Variables:   []string{"question", "answer", "context"},
		Parser:      ParseBasic,
	}
}

// AnswerRelevance asks the judge to reverse-engineer the question and flag evasive answers.
func AnswerRelevance() *Template {
	return &Template{
		Name:        "Answer Relevance",
		Description: "Generate a question for the given answer and identify if answer is noncommittal",
		Text:        answerRelevanceText,
		Variables:   []string{"answer", "metadata"},
		Parser:      parseAnswerRelevance,
	}
}

// Faithfulness breaks the answer into atomic statements and scores how many hold.
func Faithfulness() *Template {
	return &Template{
		Name:        "Faithfulness",
		Description: "Analyze complexity and break down answer into verifiable statements",
		Text:        faithfulnessText,
		Variables:   []string{"question", "answer", "context"},
		Parser:      parseFaithfulness,
	}
}

var (
	generatedQuestionPattern = regexp.MustCompile(`(?i)generated question[:\s]+(.+?)(?:\n|$)`)
	noncommittalPattern      = regexp.MustCompile(`(?i)noncommittal[:\s]+([01])`)

	statementsSectionPattern = regexp.MustCompile(`(?is)statements[:\s]+(.+?)(?:faithful|score|reasoning)`)
	numberedLinePattern      = regexp.MustCompile(`(?m)^\s*\d+\.\s*(.+?)\s*$`)
	faithfulCountPattern     = regexp.MustCompile(`(?i)faithful statements[:\s]+(\d+)`)
	totalCountPattern        = regexp.MustCompile(`(?i)total statements[:\s]+(\d+)`)
)

func parseAnswerRelevance(ctx context.Context, raw string) Response {
	if v, ok := parseVerdict(raw); ok {
		return v.response(raw)
	}
	resp := ParseBasic(ctx, raw)

	question := ""
	if m := generatedQuestionPattern.FindStringSubmatch(raw); m != nil {
		question = strings.TrimSpace(m[1])
	}
	noncommittal := 0
	if m := noncommittalPattern.FindStringSubmatch(raw); m != nil {
		noncommittal, _ = strconv.Atoi(m[1])
	}
	resp.Metadata = map[string]any{
		"generated_question": question,
		"noncommittal":       noncommittal,
	}
	return resp
}

func parseFaithfulness(ctx context.Context, raw string) Response {
	if v, ok := parseVerdict(raw); ok {
		return v.response(raw)
	}
	resp := ParseBasic(ctx, raw)

	statements := []string{}
	if m := statementsSectionPattern.FindStringSubmatch(raw); m != nil {
		for _, line := range numberedLinePattern.FindAllStringSubmatch(m[1], -1) {
			statements = append(statements, line[1])
		}
	}
	faithful := 0
	if m := faithfulCountPattern.FindStringSubmatch(raw); m != nil {
		faithful, _ = strconv.Atoi(m[1])
	}
	total := len(statements)
	if m := totalCountPattern.FindStringSubmatch(raw); m != nil {
		total, _ = strconv.Atoi(m[1])
	}
	resp.Metadata = map[string]any{
		"statements":          statements,
		"faithful_statements": faithful,
		"total_statements":    total,
	}
	return resp
}

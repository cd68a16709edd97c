package guardrail

import (
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// BlockedPromptResponse is returned verbatim to callers whose prompt was rejected.
const BlockedPromptResponse = "I cannot process this request because it violates the safety policy."

// BlockKeyword blocks a prompt when it appears anywhere in the raw text, in any case.
const BlockKeyword = "BLOCK"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespace      = regexp.MustCompile(`\s+`)
)

type bannedToken struct {
	token    string
	category genai.HarmCategory
}

var defaultBannedTokens = []bannedToken{
	{token: "child sexual", category: genai.HarmCategorySexuallyExplicit},
	{token: "child abuse", category: genai.HarmCategorySexuallyExplicit},
	{token: "csam", category: genai.HarmCategorySexuallyExplicit},
	{token: "bestiality", category: genai.HarmCategorySexuallyExplicit},
	{token: "extreme gore", category: genai.HarmCategoryDangerousContent},
	{token: "decapitation", category: genai.HarmCategoryDangerousContent},
	{token: "terrorist propaganda", category: genai.HarmCategoryDangerousContent},
	{token: "self harm", category: genai.HarmCategoryDangerousContent},
	{token: "suicide tutorial", category: genai.HarmCategoryDangerousContent},
}

// Verdict is the outcome of a policy check.
type Verdict struct {
	Blocked bool
	Token   string
	// Category is empty when the prompt was blocked by the keyword alone.
	Category genai.HarmCategory
}

// Policy is a banned-term filter evaluated before any model call.
type Policy struct {
	tokens []bannedToken
}

// NewPolicy returns the default banned-term policy.
func NewPolicy() *Policy {
	tokens := make([]bannedToken, len(defaultBannedTokens))
	for i, t := range defaultBannedTokens {
		tokens[i] = bannedToken{token: Normalize(t.token), category: t.category}
	}
	return &Policy{tokens: tokens}
}

// Normalize lowercases text, replaces punctuation with spaces and collapses whitespace.
func Normalize(text string) string {
	text = nonAlphanumeric.ReplaceAllString(strings.ToLower(text), " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// Check scans the given texts joined together. Empty input never blocks.
func (p *Policy) Check(texts ...string) Verdict {
	raw := strings.Join(texts, " ")
	if strings.TrimSpace(raw) == "" {
		return Verdict{}
	}

	sanitized := Normalize(raw)
	for _, t := range p.tokens {
		if strings.Contains(sanitized, t.token) {
			return Verdict{Blocked: true, Token: t.token, Category: t.category}
		}
	}
	if strings.Contains(strings.ToUpper(raw), BlockKeyword) {
		return Verdict{Blocked: true, Token: BlockKeyword}
	}
	return Verdict{}
}

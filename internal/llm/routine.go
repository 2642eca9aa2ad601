package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item type labels used inside a routine.
const (
	TypeProduct = "Product"
	TypeRemedy  = "Remedy"
)

// Expected list sizes. Answers outside these ranges are accepted but
// reported by Routine.CountWarnings.
const (
	minProducts = 3
	maxProducts = 4
	minRemedies = 2
	maxRemedies = 3
)

// SystemPrompt frames the model as a dermatologist assistant.
const SystemPrompt = "You are a professional dermatologist assistant. " +
	"You answer with a single JSON object and nothing else."

// RoutineItem is one suggested product or remedy.
type RoutineItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Routine is the validated answer of the generation service.
type Routine struct {
	RoutineSummary string        `json:"routine_summary"`
	Products       []RoutineItem `json:"products"`
	Remedies       []RoutineItem `json:"remedies"`
}

// BuildRoutinePrompt returns the user prompt asking for a routine for issue.
func BuildRoutinePrompt(issue string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide a skincare routine for: %s.\n", strings.TrimSpace(issue))
	b.WriteString("Return strictly this JSON structure:\n")
	b.WriteString(`{"routine_summary": "<short overview>", ` +
		`"products": [{"title": "<name>", "description": "<how to use>", "type": "Product"}], ` +
		`"remedies": [{"title": "<name>", "description": "<how to apply>", "type": "Remedy"}]}`)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Include %d to %d clinical skincare products with active ingredients ", minProducts, maxProducts)
	fmt.Fprintf(&b, "and %d to %d natural home remedies or lifestyle habits. ", minRemedies, maxRemedies)
	b.WriteString("Keep every description professional and under 40 words.")
	return b.String()
}

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// StripCodeFences removes markdown code fence markers from s.
func StripCodeFences(s string) string {
	return strings.TrimSpace(fenceReplacer.Replace(s))
}

type rawRoutine struct {
	RoutineSummary *string       `json:"routine_summary"`
	Products       []RoutineItem `json:"products"`
	Remedies       []RoutineItem `json:"remedies"`
}

// ParseRoutine decodes and validates a routine answer. The text is decoded
// as-is first and again after stripping code fences; every failure is a
// KindMalformed *Error.
func ParseRoutine(text string) (Routine, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Routine{}, ErrEmptyResponse
	}
	if !json.Valid([]byte(raw)) {
		raw = StripCodeFences(raw)
		if !json.Valid([]byte(raw)) {
			return Routine{}, NewError(KindMalformed, "generation service returned invalid JSON", false, nil)
		}
	}

	var decoded rawRoutine
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return Routine{}, NewError(KindMalformed, "generation service returned an unexpected structure", false, err)
	}
	if decoded.RoutineSummary == nil {
		return Routine{}, NewError(KindMalformed, "generation service omitted routine_summary", false, nil)
	}

	products, err := normalizeItems(decoded.Products, TypeProduct)
	if err != nil {
		return Routine{}, err
	}
	remedies, err := normalizeItems(decoded.Remedies, TypeRemedy)
	if err != nil {
		return Routine{}, err
	}

	return Routine{
		RoutineSummary: strings.TrimSpace(*decoded.RoutineSummary),
		Products:       products,
		Remedies:       remedies,
	}, nil
}

// normalizeItems trims fields, requires a title and forces Type to the list
// the item came from. A nil slice becomes empty.
func normalizeItems(items []RoutineItem, itemType string) ([]RoutineItem, error) {
	out := make([]RoutineItem, 0, len(items))
	for i, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			return nil, NewError(KindMalformed,
				fmt.Sprintf("generation service returned a %s without a title (index %d)", strings.ToLower(itemType), i),
				false, nil)
		}
		it.Description = strings.TrimSpace(it.Description)
		it.Type = itemType
		out = append(out, it)
	}
	return out, nil
}

// CountWarnings lists the lists whose length is outside the requested range.
func (r Routine) CountWarnings() []string {
	var warnings []string
	if n := len(r.Products); n < minProducts || n > maxProducts {
		warnings = append(warnings, fmt.Sprintf("products: got %d, want %d-%d", n, minProducts, maxProducts))
	}
	if n := len(r.Remedies); n < minRemedies || n > maxRemedies {
		warnings = append(warnings, fmt.Sprintf("remedies: got %d, want %d-%d", n, minRemedies, maxRemedies))
	}
	return warnings
}

package llmgateway

import "fmt"

// PromptSpec describes one named prompt: its template and the JSON
// schema its response must satisfy (spec §4.M: "validate the response
// against a JSON schema and optionally enforce order-by a field").
type PromptSpec struct {
	Key         string
	Template    string
	Schema      Schema
	OrderByField string // optional ordering field stored with the prompt; neither Validate nor Gateway.Run checks array order against it
}

// Schema is a minimal JSON-shape validator sufficient for the four
// prompts this pipeline issues; it intentionally does not implement
// the full JSON Schema spec; the pipeline's prompts are small, fixed
// shapes known at compile time.
type Schema struct {
	Kind      string // "array" | "object"
	Required  []string
	ItemKind  string // when Kind=="array", the element kind ("object")
	ItemRequired []string
}

// Registry holds every prompt this pipeline knows how to issue.
type Registry struct {
	prompts map[string]PromptSpec
}

// NewRegistry builds the fixed prompt registry for the taxonomy
// pipeline (spec §4.E extractor, §4.G arbiter, §4.I disambiguator,
// §4.J entailment).
func NewRegistry() *Registry {
	r := &Registry{prompts: map[string]PromptSpec{}}
	r.register(PromptSpec{
		Key:      "taxonomy.extract",
		Template: "Extract academic-unit candidates at level {level} for institution {institution} from the following text. Return a JSON array of objects with fields label, normalized, aliases, parents.\n\n{source_text}",
		Schema: Schema{
			Kind:         "array",
			ItemKind:     "object",
			ItemRequired: []string{"label", "normalized"},
		},
	})
	r.register(PromptSpec{
		Key:      "taxonomy.verify_single_token",
		Template: "Does the following single-token academic-unit label make sense on its own: {label}? Return a JSON object with fields pass and reason.",
		Schema: Schema{
			Kind:     "object",
			Required: []string{"reason"},
		},
	})
	r.register(PromptSpec{
		Key:      "taxonomy.disambiguate",
		Template: "The label {label} appears across distinct contexts. Determine whether these are genuinely separable concepts. Return a JSON object with fields senses, separable, confidence, reason.",
		Schema: Schema{
			Kind:     "object",
			Required: []string{"senses", "separable", "confidence", "reason"},
		},
	})
	r.register(PromptSpec{
		Key:      "validation.entailment",
		Template: "Given the evidence snippets below, does the institution genuinely have a unit named {label}? Return a JSON object with fields passed, confidence, reason.\n\n{evidence}",
		Schema: Schema{
			Kind:     "object",
			Required: []string{"passed", "confidence"},
		},
	})
	return r
}

func (r *Registry) register(p PromptSpec) { r.prompts[p.Key] = p }

// Lookup returns the named prompt spec.
func (r *Registry) Lookup(key string) (PromptSpec, error) {
	p, ok := r.prompts[key]
	if !ok {
		return PromptSpec{}, fmt.Errorf("llmgateway: unknown prompt key %q", key)
	}
	return p, nil
}

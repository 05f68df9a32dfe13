package language

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// Prompt identifies a registered prompt template.
type Prompt string

const (
	// PromptSegment splits a compound statement into canonical one-fact
	// sentences, keeping only the final location per item.
	PromptSegment Prompt = "segment"

	// PromptExtract pulls a single location/item pair out of one sentence.
	PromptExtract Prompt = "extract"

	// PromptClassify maps an utterance onto one of the declared memory
	// operations plus its raw parameters.
	PromptClassify Prompt = "classify"

	// PromptRewriteLocation rewrites a stored sentence to reference a new
	// location while keeping it grammatical.
	PromptRewriteLocation Prompt = "rewrite_location"

	// PromptPolish restates a saved statement as a short confirmation
	// sentence for the user.
	PromptPolish Prompt = "polish"

	// PromptComposeItemRetrieval and friends turn per-target query reports
	// into one natural-language answer.
	PromptComposeItemRetrieval     Prompt = "compose_item_retrieval"
	PromptComposeLocationRetrieval Prompt = "compose_location_retrieval"
	PromptComposeItemDeletion      Prompt = "compose_item_deletion"
	PromptComposeLocationDeletion  Prompt = "compose_location_deletion"
)

// promptDef is a system instruction plus a user-message template. Templates
// get the Infer vars map as dot and may embed values as JSON via the "json"
// helper.
type promptDef struct {
	system string
	user   *template.Template
}

func mustUser(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(template.FuncMap{
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
	}).Parse(text))
}

var prompts = map[Prompt]promptDef{
	PromptSegment: {
		system: `You split statements about where physical items were put into independent facts.
Rules:
- One output sentence per distinct item, phrased exactly as "I have kept [item] in/on/at the [location]."
- If the same item is mentioned with several locations, keep only the final location.
- Drop transitional words like "then" or "later".
- Keep item and location names lowercase unless they are proper nouns.
Respond only with JSON: {"sentences": ["...", ...]}.
If the text contains no item placement at all, respond with {"error": "short reason"}.`,
		user: mustUser("segment", `The statement is: {{json .text}}`),
	},
	PromptExtract: {
		system: `You extract exactly one place/item pair from a sentence.
Respond only with JSON of the form {"<place>": "<item>"} with exactly one key.
Both the item and its place must be explicit in the sentence; if either is
missing or unclear, respond with {"error": "short reason"} instead. Never
guess or default either side.`,
		user: mustUser("extract", `Sentence: {{json .sentence}}`),
	},
	PromptClassify: {
		system: `You classify a user's memory utterance into exactly one operation and
extract its parameters. Operations:
- "insert": the user states where one or more items are or were put. No parameters.
- "delete_items": the user asks to delete/forget specific items. Parameters: "items", an array of item names.
- "delete_locations": the user asks to delete/forget everything at specific locations. Parameters: "locations", an array of location names.
- "retrieve_items": the user asks where specific items are. Parameters: "items".
- "retrieve_locations": the user asks what is stored at specific locations. Parameters: "locations".
- "rename_location": the user asks to rename a location. Parameters: "original_location" and "modified_location".
Preserve the user's spelling, pluralization, and casing in every parameter
exactly as typed — never correct them.
Respond only with JSON: {"operation": "...", "items": [...], "locations": [...], "original_location": "...", "modified_location": "..."}
including only the fields the operation uses. If no operation fits, respond
with {"operation": "unknown"}.`,
		user: mustUser("classify", `Utterance: {{json .text}}`),
	},
	PromptRewriteLocation: {
		system: `You rewrite a remembered sentence so that it refers to a renamed
location. Replace references to the original location with the new name,
keeping the sentence grammatical and otherwise unchanged.
Respond only with JSON: {"answer": "rewritten sentence"}.`,
		user: mustUser("rewrite_location", `Sentence: {{json .input_text}}
Original location: {{json .original_location}}
New location: {{json .modified_location}}`),
	},
	PromptPolish: {
		system: `You restate a user's statement about stored items as one short,
natural confirmation sentence in the second person (e.g. "You kept your keys
in the drawer."). Respond only with JSON: {"sentence": "..."}.`,
		user: mustUser("polish", `Statement: {{json .text}}`),
	},
	PromptComposeItemRetrieval: {
		system: `You answer a user asking where their items are, given one report per
item. A report has "item", optionally "exact_location" (the known place), and
"similar_items" (names of similar stored items when the exact one is unknown).
Write one natural second-person paragraph: state found locations, suggest
similar items for misses ("Did you mean ...?"), and apologize for items with
neither. Respond only with JSON: {"answer": "..."}.`,
		user: mustUser("compose_item_retrieval", `Reports: {{json .reports}}`),
	},
	PromptComposeLocationRetrieval: {
		system: `You answer a user asking what they stored at locations, given one
report per location. A report has "location", "exact_items" (items found
there), and "similar_locations" (similar stored location names when the exact
one is unknown). Write one natural second-person paragraph covering every
report. Respond only with JSON: {"answer": "..."}.`,
		user: mustUser("compose_location_retrieval", `Reports: {{json .reports}}`),
	},
	PromptComposeItemDeletion: {
		system: `You confirm deletions of remembered items, given one report per item.
A report has "item", optionally "exact_item" (the stored name that was
deleted), and "similar_items" (similar stored items when nothing matched
exactly). Write one natural paragraph confirming what was forgotten and
suggesting similar items for misses. Respond only with JSON: {"answer": "..."}.`,
		user: mustUser("compose_item_deletion", `Reports: {{json .reports}}`),
	},
	PromptComposeLocationDeletion: {
		system: `You confirm deletions of everything remembered at locations, given one
report per location. A report has "location", "exact_items" (items that were
forgotten there), and "similar_locations" (similar stored locations when
nothing matched exactly). Write one natural paragraph. Respond only with
JSON: {"answer": "..."}.`,
		user: mustUser("compose_location_deletion", `Reports: {{json .reports}}`),
	},
}

// Render produces the system instruction and user message for a prompt.
func Render(prompt Prompt, vars map[string]any) (system string, user string, err error) {
	def, ok := prompts[prompt]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPrompt, prompt)
	}

	var buf bytes.Buffer
	if err := def.user.Execute(&buf, vars); err != nil {
		return "", "", fmt.Errorf("rendering prompt %q: %w", prompt, err)
	}

	return def.system, buf.String(), nil
}

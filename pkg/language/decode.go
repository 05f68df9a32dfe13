package language

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Classification is the raw result of PromptClassify before static
// validation. Parameters are passed through verbatim; the intent router is
// responsible for rejecting shapes that don't fit the declared operation.
type Classification struct {
	Operation        string   `json:"operation"`
	Items            []string `json:"items"`
	Locations        []string `json:"locations"`
	OriginalLocation string   `json:"original_location"`
	ModifiedLocation string   `json:"modified_location"`
}

// ItemReport is the per-item input to retrieval/deletion response composition.
type ItemReport struct {
	Item          string   `json:"item"`
	ExactLocation string   `json:"exact_location,omitempty"`
	ExactItem     string   `json:"exact_item,omitempty"`
	SimilarItems  []string `json:"similar_items"`
}

// LocationReport is the per-location input to response composition.
type LocationReport struct {
	Location         string   `json:"location"`
	ExactItems       []string `json:"exact_items"`
	SimilarLocations []string `json:"similar_locations"`
}

// modelError mirrors the {"error": "..."} escape hatch every extraction
// prompt declares.
type modelError struct {
	Error string `json:"error"`
}

// SplitFacts runs PromptSegment and returns the canonical one-fact sentences.
// A model-reported error or an empty list means the utterance held no
// extractable facts.
func SplitFacts(ctx context.Context, s Service, text string) ([]string, error) {
	raw, err := s.Infer(ctx, PromptSegment, map[string]any{"text": text})
	if err != nil {
		return nil, err
	}

	if msg := decodeModelError(raw); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, msg)
	}

	var out struct {
		Sentences []string `json:"sentences"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(out.Sentences) == 0 {
		return nil, fmt.Errorf("%w: no sentences produced", ErrMalformed)
	}

	return out.Sentences, nil
}

// ExtractPair runs PromptExtract on one sentence and returns its
// (location, item) pair. Missing either side is an error, never an empty
// string.
func ExtractPair(ctx context.Context, s Service, sentence string) (location, item string, err error) {
	raw, err := s.Infer(ctx, PromptExtract, map[string]any{"sentence": sentence})
	if err != nil {
		return "", "", err
	}

	if msg := decodeModelError(raw); msg != "" {
		return "", "", fmt.Errorf("%w: %s", ErrMalformed, msg)
	}

	var pair map[string]string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(pair) != 1 {
		return "", "", fmt.Errorf("%w: expected one place/item pair, got %d", ErrMalformed, len(pair))
	}

	for place, object := range pair {
		if strings.TrimSpace(place) == "" || strings.TrimSpace(object) == "" {
			return "", "", fmt.Errorf("%w: empty place or item", ErrMalformed)
		}
		return place, object, nil
	}
	return "", "", fmt.Errorf("%w: empty pair", ErrMalformed)
}

// Classify runs PromptClassify and returns the raw classification.
func Classify(ctx context.Context, s Service, text string) (*Classification, error) {
	raw, err := s.Infer(ctx, PromptClassify, map[string]any{"text": text})
	if err != nil {
		return nil, err
	}

	var c Classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &c, nil
}

// RewriteLocation rewrites a stored sentence to reference modifiedLocation
// instead of originalLocation.
func RewriteLocation(ctx context.Context, s Service, inputText, originalLocation, modifiedLocation string) (string, error) {
	raw, err := s.Infer(ctx, PromptRewriteLocation, map[string]any{
		"input_text":        inputText,
		"original_location": originalLocation,
		"modified_location": modifiedLocation,
	})
	if err != nil {
		return "", err
	}
	return decodeStringField(raw, "answer")
}

// Polish restates the saved statement as a confirmation sentence.
func Polish(ctx context.Context, s Service, text string) (string, error) {
	raw, err := s.Infer(ctx, PromptPolish, map[string]any{"text": text})
	if err != nil {
		return "", err
	}
	return decodeStringField(raw, "sentence")
}

// ComposeItemReports produces one answer paragraph from per-item reports.
// The deletion flag selects the deletion prompt over the retrieval one.
func ComposeItemReports(ctx context.Context, s Service, reports []ItemReport, deletion bool) (string, error) {
	prompt := PromptComposeItemRetrieval
	if deletion {
		prompt = PromptComposeItemDeletion
	}

	raw, err := s.Infer(ctx, prompt, map[string]any{"reports": reports})
	if err != nil {
		return "", err
	}
	return decodeStringField(raw, "answer")
}

// ComposeLocationReports produces one answer paragraph from per-location reports.
func ComposeLocationReports(ctx context.Context, s Service, reports []LocationReport, deletion bool) (string, error) {
	prompt := PromptComposeLocationRetrieval
	if deletion {
		prompt = PromptComposeLocationDeletion
	}

	raw, err := s.Infer(ctx, prompt, map[string]any{"reports": reports})
	if err != nil {
		return "", err
	}
	return decodeStringField(raw, "answer")
}

func decodeStringField(raw json.RawMessage, field string) (string, error) {
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	value := strings.TrimSpace(out[field])
	if value == "" {
		return "", fmt.Errorf("%w: missing %q field", ErrMalformed, field)
	}
	return value, nil
}

// decodeModelError returns the message of a {"error": "..."} payload, or ""
// when the payload is not a model-reported error.
func decodeModelError(raw json.RawMessage) string {
	var me modelError
	if err := json.Unmarshal(raw, &me); err != nil {
		return ""
	}
	return me.Error
}

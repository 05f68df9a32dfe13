package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/packratco/packrat/pkg/language"
)

// Operation is one of the declared memory operations. The set is closed:
// anything the classifier produces outside it is rejected, never guessed at.
type Operation int

const (
	OpUnknown Operation = iota
	OpInsert
	OpDeleteItems
	OpDeleteLocations
	OpRetrieveItems
	OpRetrieveLocations
	OpRenameLocation
)

var operationNames = map[string]Operation{
	"insert":             OpInsert,
	"delete_items":       OpDeleteItems,
	"delete_locations":   OpDeleteLocations,
	"retrieve_items":     OpRetrieveItems,
	"retrieve_locations": OpRetrieveLocations,
	"rename_location":    OpRenameLocation,
}

func (op Operation) String() string {
	for name, candidate := range operationNames {
		if candidate == op {
			return name
		}
	}
	return "unknown"
}

// Intent is a validated classification: an operation plus the parameters it
// declares, carried verbatim from the user's utterance.
type Intent struct {
	Op               Operation
	Items            []string
	Locations        []string
	OriginalLocation string
	ModifiedLocation string
}

// Router turns utterances into validated intents.
type Router struct {
	lang language.Service
}

func NewRouter(lang language.Service) *Router {
	return &Router{lang: lang}
}

// Route classifies text and statically validates the parameters against the
// operation's declared shape. The allowed set scopes which operations this
// endpoint accepts; a classification outside it is an unrecognized intent,
// not an error of the classifier.
func (r *Router) Route(ctx context.Context, text string, allowed ...Operation) (*Intent, error) {
	c, err := language.Classify(ctx, r.lang, text)
	if err != nil {
		return nil, fmt.Errorf("%w: classifying intent: %v", ErrExternalService, err)
	}

	op, ok := operationNames[c.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedIntent, c.Operation)
	}

	permitted := false
	for _, a := range allowed {
		if a == op {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, fmt.Errorf("%w: %s is not handled here", ErrUnrecognizedIntent, op)
	}

	intent := &Intent{
		Op:               op,
		Items:            cleanList(c.Items),
		Locations:        cleanList(c.Locations),
		OriginalLocation: strings.TrimSpace(c.OriginalLocation),
		ModifiedLocation: strings.TrimSpace(c.ModifiedLocation),
	}

	if err := intent.validate(); err != nil {
		return nil, err
	}
	return intent, nil
}

// validate checks the parameter shape each operation declares. Parameters are
// never repaired or defaulted, only rejected.
func (i *Intent) validate() error {
	switch i.Op {
	case OpDeleteItems, OpRetrieveItems:
		if len(i.Items) == 0 {
			return fmt.Errorf("%w: %s named no items", ErrUnrecognizedIntent, i.Op)
		}
	case OpDeleteLocations, OpRetrieveLocations:
		if len(i.Locations) == 0 {
			return fmt.Errorf("%w: %s named no locations", ErrUnrecognizedIntent, i.Op)
		}
	case OpRenameLocation:
		if i.OriginalLocation == "" || i.ModifiedLocation == "" {
			return fmt.Errorf("%w: rename needs both location names", ErrUnrecognizedIntent)
		}
	}
	return nil
}

// cleanList trims entries and drops empty ones, preserving order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

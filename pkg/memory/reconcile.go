package memory

import (
	"context"
	"fmt"

	"github.com/packratco/packrat/pkg/vector"
)

// Outcome classifies how a new statement relates to the owner's stored facts.
type Outcome int

const (
	// OutcomeCreate: the item was absent; store a new fact.
	OutcomeCreate Outcome = iota

	// OutcomeDuplicate: the item is already stored at the same location;
	// nothing is written.
	OutcomeDuplicate

	// OutcomeSupersede: the item is stored at a different location; the old
	// fact is deleted and the new one stored.
	OutcomeSupersede
)

// Resolution is the reconciliation verdict for one statement.
type Resolution struct {
	Outcome Outcome

	// Fact is the fact to store (Create and Supersede).
	Fact Fact

	// Existing is the stored fact the statement collided with (Duplicate and
	// Supersede).
	Existing *vector.Match
}

// Reconciler enforces the one-active-fact-per-item rule.
type Reconciler struct {
	matcher *Matcher
}

func NewReconciler(matcher *Matcher) *Reconciler {
	return &Reconciler{matcher: matcher}
}

// Resolve decides the outcome for one extracted statement. Identity is
// equality of normalized item names; location equality then separates
// duplicate from supersede.
func (r *Reconciler) Resolve(ctx context.Context, ownerID int64, sentence, location, item string, embedding []float32) (*Resolution, error) {
	normItem := Normalize(item)
	normLocation := Normalize(location)
	if normItem == "" || normLocation == "" {
		return nil, statusErr(ErrAmbiguousFact,
			fmt.Sprintf("I couldn't tell what was put where in %q.", sentence))
	}

	current, err := r.matcher.CurrentForItem(ctx, ownerID, normItem, embedding)
	if err != nil {
		return nil, err
	}

	if current == nil {
		return &Resolution{
			Outcome: OutcomeCreate,
			Fact:    NewFact(ownerID, normItem, normLocation, sentence, embedding),
		}, nil
	}

	if current.Attrs.Location == normLocation {
		return &Resolution{Outcome: OutcomeDuplicate, Existing: current}, nil
	}

	return &Resolution{
		Outcome:  OutcomeSupersede,
		Fact:     NewFact(ownerID, normItem, normLocation, sentence, embedding),
		Existing: current,
	}, nil
}

// Plan accumulates resolutions into one deferred write set, so a batch either
// commits every change or none.
type Plan struct {
	Deletes    []string
	Upserts    []vector.Record
	Created    []Fact
	Duplicates []vector.Match
}

// Add folds one resolution into the plan.
func (p *Plan) Add(res *Resolution) {
	switch res.Outcome {
	case OutcomeCreate:
		p.Created = append(p.Created, res.Fact)
		p.Upserts = append(p.Upserts, res.Fact.Record())
	case OutcomeDuplicate:
		p.Duplicates = append(p.Duplicates, *res.Existing)
	case OutcomeSupersede:
		p.Deletes = append(p.Deletes, res.Existing.ID)
		p.Created = append(p.Created, res.Fact)
		p.Upserts = append(p.Upserts, res.Fact.Record())
	}
}

// Apply commits the plan: superseded facts are deleted first, then the new
// records stored in one upsert.
func (p *Plan) Apply(ctx context.Context, driver vector.Driver) error {
	if len(p.Deletes) > 0 {
		if err := driver.Delete(ctx, p.Deletes); err != nil {
			return fmt.Errorf("%w: deleting superseded facts: %v", ErrExternalService, err)
		}
	}
	if len(p.Upserts) > 0 {
		if err := driver.Upsert(ctx, p.Upserts); err != nil {
			return fmt.Errorf("%w: storing facts: %v", ErrExternalService, err)
		}
	}
	return nil
}

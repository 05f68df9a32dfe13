package memory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/embeddings"
	"github.com/packratco/packrat/pkg/eventstream"
	"github.com/packratco/packrat/pkg/language"
	"github.com/packratco/packrat/pkg/vector"
)

// Service orchestrates the memory pipelines: saving statements, answering
// retrievals, renaming locations, and deleting facts.
type Service struct {
	vec    vector.Driver
	lang   language.Service
	emb    embeddings.Embedder
	events eventstream.Publisher

	router     *Router
	segmenter  *Segmenter
	extractor  *Extractor
	matcher    *Matcher
	reconciler *Reconciler

	policy ErrorPolicy
	logger *zap.Logger
}

// Config holds the collaborators a Service needs.
type Config struct {
	Vector   vector.Driver
	Language language.Service
	Embedder embeddings.Embedder

	// Events may be nil; mutations then go unannounced.
	Events eventstream.Publisher

	// Policy shapes batch error reporting. Defaults to FailFast.
	Policy ErrorPolicy

	Logger *zap.Logger
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Vector == nil || cfg.Language == nil || cfg.Embedder == nil {
		return nil, fmt.Errorf("memory service needs vector, language, and embedding collaborators")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	matcher := NewMatcher(cfg.Vector, cfg.Embedder)
	return &Service{
		vec:        cfg.Vector,
		lang:       cfg.Language,
		emb:        cfg.Embedder,
		events:     cfg.Events,
		router:     NewRouter(cfg.Language),
		segmenter:  NewSegmenter(cfg.Language),
		extractor:  NewExtractor(cfg.Language),
		matcher:    matcher,
		reconciler: NewReconciler(matcher),
		policy:     cfg.Policy,
		logger:     cfg.Logger,
	}, nil
}

// SavedItem is one stored fact in a save response.
type SavedItem struct {
	FactID   string `json:"fact_id"`
	Item     string `json:"item"`
	Location string `json:"location"`
}

// SaveResult is the outcome of a save-side operation (insert or delete).
type SaveResult struct {
	Message        string      `json:"message"`
	Items          []SavedItem `json:"items,omitempty"`
	DeletedFactIDs []string    `json:"deleted_fact_ids,omitempty"`
}

// RetrieveResult is the outcome of a retrieval.
type RetrieveResult struct {
	Answer string `json:"answer"`

	// Resolved reports whether at least one requested target matched
	// exactly; false means the answer is fallback suggestions only.
	Resolved bool `json:"resolved"`
}

// Save classifies a statement and runs the matching write-side pipeline:
// inserting new facts, or deleting by item or by location.
func (s *Service) Save(ctx context.Context, ownerID int64, text string) (*SaveResult, error) {
	text = StripWakePrefix(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrValidation)
	}

	intent, err := s.router.Route(ctx, text, OpInsert, OpDeleteItems, OpDeleteLocations)
	if err != nil {
		return nil, err
	}

	switch intent.Op {
	case OpInsert:
		return s.insert(ctx, ownerID, text)
	case OpDeleteItems:
		return s.deleteItems(ctx, ownerID, intent.Items)
	default:
		return s.deleteLocations(ctx, ownerID, intent.Locations)
	}
}

// insert decomposes the statement into atomic facts, reconciles each against
// the store, and commits all changes at once. A single duplicate aborts the
// whole statement before anything is written.
func (s *Service) insert(ctx context.Context, ownerID int64, text string) (*SaveResult, error) {
	sentences, err := s.segmenter.Split(ctx, text)
	if err != nil {
		return nil, err
	}

	vectors, err := s.emb.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding statements: %v", ErrExternalService, err)
	}

	resolutions, err := fanOut(ctx, len(sentences), s.policy, func(ctx context.Context, i int) (*Resolution, error) {
		location, item, err := s.extractor.Extract(ctx, sentences[i])
		if err != nil {
			return nil, err
		}
		return s.reconciler.Resolve(ctx, ownerID, sentences[i], location, item, vectors[i])
	})
	if err != nil {
		return nil, err
	}

	var plan Plan
	for _, res := range resolutions {
		plan.Add(res)
	}

	if len(plan.Duplicates) > 0 {
		statements := make([]string, 0, len(plan.Duplicates))
		for _, dup := range plan.Duplicates {
			statements = append(statements, dup.Attrs.OriginalText)
		}

		polished, err := language.Polish(ctx, s.lang, strings.Join(statements, " "))
		if err != nil {
			s.logger.Warn("polishing duplicate notice failed", zap.Error(err))
			polished = strings.Join(statements, " ")
		}
		return nil, statusErr(ErrDuplicateFact,
			fmt.Sprintf("Similar memory already exists: '%s'", polished))
	}

	if len(plan.Upserts) == 0 {
		return nil, statusErr(ErrAmbiguousFact,
			"I couldn't find any item placements in that. Try something like 'I put my keys in the drawer'.")
	}

	if err := plan.Apply(ctx, s.vec); err != nil {
		return nil, err
	}

	s.publish(ownerID, eventstream.EventFactDeleted, plan.Deletes)
	s.publish(ownerID, eventstream.EventFactCreated, factIDs(plan.Created))

	message, err := language.Polish(ctx, s.lang, text)
	if err != nil {
		s.logger.Warn("polishing confirmation failed", zap.Error(err))
		message = "Memory saved."
	}

	result := &SaveResult{Message: message, DeletedFactIDs: plan.Deletes}
	for _, fact := range plan.Created {
		result.Items = append(result.Items, SavedItem{
			FactID:   fact.ID,
			Item:     fact.Item,
			Location: fact.Location,
		})
	}
	return result, nil
}

// deleteItems removes the active fact of each named item. Items with no
// exact match contribute similar-item suggestions instead; if nothing at all
// was deleted the whole request is a not-found.
func (s *Service) deleteItems(ctx context.Context, ownerID int64, items []string) (*SaveResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items named", ErrInvalidQuery)
	}

	type itemOutcome struct {
		report  language.ItemReport
		deleted []string
	}

	outcomes, err := fanOut(ctx, len(items), s.policy, func(ctx context.Context, i int) (itemOutcome, error) {
		lookup, err := s.matcher.LookupItem(ctx, ownerID, items[i], ItemScoreFloor)
		if err != nil {
			return itemOutcome{}, err
		}

		out := itemOutcome{report: language.ItemReport{Item: items[i], SimilarItems: lookup.Similar}}
		if len(lookup.Matches) > 0 {
			top := lookup.Matches[0]
			out.report.ExactItem = top.Attrs.Item
			out.report.SimilarItems = nil
			out.deleted = []string{top.ID}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	reports := make([]language.ItemReport, 0, len(outcomes))
	var deleted []string
	for _, out := range outcomes {
		reports = append(reports, out.report)
		deleted = append(deleted, out.deleted...)
	}

	message, err := language.ComposeItemReports(ctx, s.lang, reports, true)
	if err != nil {
		return nil, fmt.Errorf("%w: composing answer: %v", ErrExternalService, err)
	}

	if len(deleted) == 0 {
		return nil, statusErr(ErrNotFound, message)
	}

	if err := s.vec.Delete(ctx, deleted); err != nil {
		return nil, fmt.Errorf("%w: deleting facts: %v", ErrExternalService, err)
	}
	s.publish(ownerID, eventstream.EventFactDeleted, deleted)

	return &SaveResult{Message: message, DeletedFactIDs: deleted}, nil
}

// deleteLocations removes every fact stored at each named location, with a
// stricter fallback floor than retrieval since a wrong suggestion here costs
// stored data.
func (s *Service) deleteLocations(ctx context.Context, ownerID int64, locations []string) (*SaveResult, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no locations named", ErrInvalidQuery)
	}

	type locationOutcome struct {
		report  language.LocationReport
		deleted []string
	}

	outcomes, err := fanOut(ctx, len(locations), s.policy, func(ctx context.Context, i int) (locationOutcome, error) {
		lookup, err := s.matcher.LookupLocation(ctx, ownerID, locations[i], DeleteLocationScoreFloor)
		if err != nil {
			return locationOutcome{}, err
		}

		out := locationOutcome{report: language.LocationReport{
			Location:         locations[i],
			SimilarLocations: lookup.Similar,
		}}
		for _, match := range lookup.Matches {
			out.report.ExactItems = append(out.report.ExactItems, match.Attrs.Item)
			out.deleted = append(out.deleted, match.ID)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	reports := make([]language.LocationReport, 0, len(outcomes))
	var deleted []string
	for _, out := range outcomes {
		reports = append(reports, out.report)
		deleted = append(deleted, out.deleted...)
	}

	message, err := language.ComposeLocationReports(ctx, s.lang, reports, true)
	if err != nil {
		return nil, fmt.Errorf("%w: composing answer: %v", ErrExternalService, err)
	}

	if len(deleted) == 0 {
		return nil, statusErr(ErrNotFound, message)
	}

	if err := s.vec.Delete(ctx, deleted); err != nil {
		return nil, fmt.Errorf("%w: deleting facts: %v", ErrExternalService, err)
	}
	s.publish(ownerID, eventstream.EventFactDeleted, deleted)

	return &SaveResult{Message: message, DeletedFactIDs: deleted}, nil
}

// Retrieve classifies a question and answers it from the stored facts. A
// question resolving no target exactly still gets an answer, flagged
// unresolved so the transport can report it as a miss.
func (s *Service) Retrieve(ctx context.Context, ownerID int64, text string) (*RetrieveResult, error) {
	text = StripWakePrefix(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrValidation)
	}

	intent, err := s.router.Route(ctx, text, OpRetrieveItems, OpRetrieveLocations)
	if err != nil {
		return nil, err
	}

	if intent.Op == OpRetrieveItems {
		return s.retrieveItems(ctx, ownerID, intent.Items)
	}
	return s.retrieveLocations(ctx, ownerID, intent.Locations)
}

func (s *Service) retrieveItems(ctx context.Context, ownerID int64, items []string) (*RetrieveResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items named", ErrInvalidQuery)
	}

	reports, err := fanOut(ctx, len(items), s.policy, func(ctx context.Context, i int) (language.ItemReport, error) {
		lookup, err := s.matcher.LookupItem(ctx, ownerID, items[i], ItemScoreFloor)
		if err != nil {
			return language.ItemReport{}, err
		}

		report := language.ItemReport{Item: items[i], SimilarItems: lookup.Similar}
		if len(lookup.Matches) > 0 {
			report.ExactLocation = lookup.Matches[0].Attrs.Location
			report.SimilarItems = nil
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}

	answer, err := language.ComposeItemReports(ctx, s.lang, reports, false)
	if err != nil {
		return nil, fmt.Errorf("%w: composing answer: %v", ErrExternalService, err)
	}

	resolved := false
	for _, report := range reports {
		if report.ExactLocation != "" {
			resolved = true
			break
		}
	}
	return &RetrieveResult{Answer: answer, Resolved: resolved}, nil
}

func (s *Service) retrieveLocations(ctx context.Context, ownerID int64, locations []string) (*RetrieveResult, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no locations named", ErrInvalidQuery)
	}

	reports, err := fanOut(ctx, len(locations), s.policy, func(ctx context.Context, i int) (language.LocationReport, error) {
		lookup, err := s.matcher.LookupLocation(ctx, ownerID, locations[i], RetrieveLocationScoreFloor)
		if err != nil {
			return language.LocationReport{}, err
		}

		report := language.LocationReport{
			Location:         locations[i],
			SimilarLocations: lookup.Similar,
		}
		for _, match := range lookup.Matches {
			report.ExactItems = append(report.ExactItems, match.Attrs.Item)
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}

	answer, err := language.ComposeLocationReports(ctx, s.lang, reports, false)
	if err != nil {
		return nil, fmt.Errorf("%w: composing answer: %v", ErrExternalService, err)
	}

	resolved := false
	for _, report := range reports {
		if len(report.ExactItems) > 0 {
			resolved = true
			break
		}
	}
	return &RetrieveResult{Answer: answer, Resolved: resolved}, nil
}

// RenameLocation rewrites the named facts to reference the new location,
// preserving each fact's ID and embedding. Any rewrite failure aborts the
// whole batch before a single record is written.
func (s *Service) RenameLocation(ctx context.Context, ownerID int64, factIDs []string, originalLocation, modifiedLocation string) error {
	if len(factIDs) == 0 {
		return fmt.Errorf("%w: no fact ids named", ErrValidation)
	}
	if strings.TrimSpace(originalLocation) == "" || strings.TrimSpace(modifiedLocation) == "" {
		return fmt.Errorf("%w: both location names are required", ErrValidation)
	}

	owned, err := s.fetchOwned(ctx, ownerID, factIDs)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return statusErr(ErrNotFound, "No memories found.")
	}

	newLocation := Normalize(modifiedLocation)
	updated, err := fanOut(ctx, len(owned), FailFast, func(ctx context.Context, i int) (vector.Record, error) {
		rewritten, err := language.RewriteLocation(ctx, s.lang, owned[i].Attrs.OriginalText, originalLocation, modifiedLocation)
		if err != nil {
			return vector.Record{}, fmt.Errorf("%w: rewriting statement: %v", ErrExternalService, err)
		}

		record := owned[i]
		record.Attrs.Location = newLocation
		record.Attrs.OriginalText = rewritten
		return record, nil
	})
	if err != nil {
		return err
	}

	if err := s.vec.Upsert(ctx, updated); err != nil {
		return fmt.Errorf("%w: storing renamed facts: %v", ErrExternalService, err)
	}

	s.publish(ownerID, eventstream.EventFactRenamed, recordIDs(updated))
	return nil
}

// DeleteFacts removes facts by ID, silently excluding IDs the owner doesn't
// hold.
func (s *Service) DeleteFacts(ctx context.Context, ownerID int64, factIDs []string) error {
	if len(factIDs) == 0 {
		return fmt.Errorf("%w: no fact ids named", ErrValidation)
	}

	owned, err := s.fetchOwned(ctx, ownerID, factIDs)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return statusErr(ErrNotFound, "No matching memories found.")
	}

	ids := recordIDs(owned)
	if err := s.vec.Delete(ctx, ids); err != nil {
		return fmt.Errorf("%w: deleting facts: %v", ErrExternalService, err)
	}

	s.publish(ownerID, eventstream.EventFactDeleted, ids)
	return nil
}

// fetchOwned fetches records by ID and keeps only the owner's. Foreign IDs
// are excluded without comment; their existence is not the caller's to learn.
func (s *Service) fetchOwned(ctx context.Context, ownerID int64, ids []string) ([]vector.Record, error) {
	records, err := s.vec.Fetch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching facts: %v", ErrExternalService, err)
	}

	owned := records[:0]
	for _, record := range records {
		if record.Attrs.OwnerID == ownerID {
			owned = append(owned, record)
		}
	}
	return owned, nil
}

func (s *Service) publish(ownerID int64, eventType string, ids []string) {
	if s.events == nil || len(ids) == 0 {
		return
	}

	event := eventstream.NewFactEvent(eventType, ownerID, ids)
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn("publishing fact event failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func factIDs(facts []Fact) []string {
	ids := make([]string, 0, len(facts))
	for _, f := range facts {
		ids = append(ids, f.ID)
	}
	return ids
}

func recordIDs(records []vector.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

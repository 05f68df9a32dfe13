package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/packratco/packrat/pkg/language"
)

// Segmenter decomposes compound statements into canonical one-fact sentences.
type Segmenter struct {
	lang language.Service
}

func NewSegmenter(lang language.Service) *Segmenter {
	return &Segmenter{lang: lang}
}

// Split returns one sentence per atomic item/location fact. A statement the
// model cannot decompose is an ambiguous fact, not a service failure.
func (s *Segmenter) Split(ctx context.Context, text string) ([]string, error) {
	sentences, err := language.SplitFacts(ctx, s.lang, text)
	if err != nil {
		if errors.Is(err, language.ErrMalformed) {
			return nil, statusErr(ErrAmbiguousFact,
				"I couldn't find any item placements in that. Try something like 'I put my keys in the drawer'.")
		}
		return nil, fmt.Errorf("%w: splitting facts: %v", ErrExternalService, err)
	}
	return sentences, nil
}

// Extractor pulls the single location/item pair out of one sentence.
type Extractor struct {
	lang language.Service
}

func NewExtractor(lang language.Service) *Extractor {
	return &Extractor{lang: lang}
}

// Extract returns the raw (location, item) pair of one sentence. Both sides
// must be explicit; a sentence missing either is ambiguous.
func (e *Extractor) Extract(ctx context.Context, sentence string) (location, item string, err error) {
	location, item, err = language.ExtractPair(ctx, e.lang, sentence)
	if err != nil {
		if errors.Is(err, language.ErrMalformed) {
			return "", "", statusErr(ErrAmbiguousFact,
				fmt.Sprintf("I couldn't tell what was put where in %q.", sentence))
		}
		return "", "", fmt.Errorf("%w: extracting pair: %v", ErrExternalService, err)
	}
	return location, item, nil
}

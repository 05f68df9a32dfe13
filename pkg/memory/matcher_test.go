package memory

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/packratco/packrat/pkg/utils/test"
	"github.com/packratco/packrat/pkg/vector"
)

// scriptedDriver returns canned matches per filter shape, giving tests exact
// control over similarity scores.
type scriptedDriver struct {
	testutils.MockVectorDriver

	exact    []vector.Match
	fallback []vector.Match
}

func (d *scriptedDriver) Query(_ context.Context, _ []float32, _ int, f vector.Filter) ([]vector.Match, error) {
	if f.Item == "" && f.Location == "" {
		return d.fallback, nil
	}
	return d.exact, nil
}

func scoredMatch(id, item, location string, score float32) vector.Match {
	return vector.Match{
		Record: vector.Record{
			ID: id,
			Attrs: vector.Attributes{
				OwnerID:  1,
				Item:     item,
				Location: location,
			},
		},
		Score: score,
	}
}

var _ = Describe("Matcher", func() {
	var (
		driver  *scriptedDriver
		matcher *Matcher
		ctx     context.Context
	)

	BeforeEach(func() {
		driver = &scriptedDriver{}
		matcher = NewMatcher(driver, testutils.NewMockEmbedder())
		ctx = context.Background()
	})

	Describe("LookupItem", func() {
		Context("when the item matches exactly", func() {
			BeforeEach(func() {
				driver.exact = []vector.Match{scoredMatch("f1", "keys", "drawer", 0.2)}
				driver.fallback = []vector.Match{scoredMatch("f2", "cables", "garage", 0.99)}
			})

			It("returns the matches and skips the fallback", func() {
				lookup, err := matcher.LookupItem(ctx, 1, "keys", ItemScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Matches).To(HaveLen(1))
				Expect(lookup.Matches[0].ID).To(Equal("f1"))
				Expect(lookup.Similar).To(BeEmpty())
			})

			It("keeps exact matches regardless of score", func() {
				// exact-filtered matches have no floor; identity, not
				// similarity, qualified them
				lookup, err := matcher.LookupItem(ctx, 1, "keys", ItemScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Matches).NotTo(BeEmpty())
			})
		})

		Context("when nothing matches exactly", func() {
			BeforeEach(func() {
				driver.exact = nil
				driver.fallback = []vector.Match{
					scoredMatch("f1", "car keys", "hook", 0.9),
					scoredMatch("f2", "key fob", "bowl", 0.65),
					scoredMatch("f3", "charger", "desk", 0.6499),
				}
			})

			It("keeps candidates at or above the floor, boundary inclusive", func() {
				lookup, err := matcher.LookupItem(ctx, 1, "keys", ItemScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Similar).To(Equal([]string{"car keys", "key fob"}))
			})

			It("drops everything when the floor is higher", func() {
				lookup, err := matcher.LookupItem(ctx, 1, "keys", 0.95)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Similar).To(BeEmpty())
			})
		})

		Context("with duplicate candidate names", func() {
			BeforeEach(func() {
				driver.fallback = []vector.Match{
					scoredMatch("f1", "car keys", "hook", 0.9),
					scoredMatch("f2", "car keys", "bowl", 0.8),
					scoredMatch("f3", "key fob", "desk", 0.7),
				}
			})

			It("deduplicates by name, keeping descending score order", func() {
				lookup, err := matcher.LookupItem(ctx, 1, "keys", ItemScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Similar).To(Equal([]string{"car keys", "key fob"}))
			})
		})
	})

	Describe("LookupLocation", func() {
		Context("when the location matches exactly", func() {
			BeforeEach(func() {
				driver.exact = []vector.Match{
					scoredMatch("f1", "keys", "garage", 0.3),
					scoredMatch("f2", "bike pump", "garage", 0.1),
				}
			})

			It("returns every item stored there", func() {
				lookup, err := matcher.LookupLocation(ctx, 1, "garage", DeleteLocationScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Matches).To(HaveLen(2))
			})
		})

		Context("when nothing matches exactly", func() {
			BeforeEach(func() {
				driver.fallback = []vector.Match{
					scoredMatch("f1", "keys", "garage shelf", 0.75),
					scoredMatch("f2", "pump", "garden shed", 0.74),
				}
			})

			It("applies the deletion floor inclusively", func() {
				lookup, err := matcher.LookupLocation(ctx, 1, "garage", DeleteLocationScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Similar).To(Equal([]string{"garage shelf"}))
			})

			It("admits more candidates under the retrieval floor", func() {
				lookup, err := matcher.LookupLocation(ctx, 1, "garage", RetrieveLocationScoreFloor)
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Similar).To(Equal([]string{"garage shelf", "garden shed"}))
			})
		})
	})

	Describe("CurrentForItem", func() {
		It("returns nil when the item is absent", func() {
			match, err := matcher.CurrentForItem(ctx, 1, "keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(match).To(BeNil())
		})

		It("returns the top match when present", func() {
			driver.exact = []vector.Match{
				scoredMatch("f1", "keys", "drawer", 0.9),
				scoredMatch("f2", "keys", "stale", 0.1),
			}
			match, err := matcher.CurrentForItem(ctx, 1, "keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(match).NotTo(BeNil())
			Expect(match.ID).To(Equal("f1"))
		})
	})

	Describe("filtered queries against a real in-memory store", func() {
		var store *testutils.MockVectorDriver

		BeforeEach(func() {
			store = testutils.NewMockVectorDriver()
			matcher = NewMatcher(store, testutils.NewMockEmbedder())

			records := []vector.Record{
				{ID: "a", Embedding: []float32{1, 0, 0}, Attrs: vector.Attributes{OwnerID: 1, Item: "keys", Location: "drawer"}},
				{ID: "b", Embedding: []float32{1, 0, 0}, Attrs: vector.Attributes{OwnerID: 2, Item: "keys", Location: "hook"}},
			}
			Expect(store.Upsert(ctx, records)).To(Succeed())
		})

		It("never crosses owner boundaries", func() {
			lookup, err := matcher.LookupItem(ctx, 1, "keys", ItemScoreFloor)
			Expect(err).NotTo(HaveOccurred())
			Expect(lookup.Matches).To(HaveLen(1))
			Expect(lookup.Matches[0].ID).To(Equal("a"))
		})

		It("matches on the normalized item name", func() {
			lookup, err := matcher.LookupItem(ctx, 1, "  KEYS ", ItemScoreFloor)
			Expect(err).NotTo(HaveOccurred())
			Expect(lookup.Matches).To(HaveLen(1))
		})
	})
})

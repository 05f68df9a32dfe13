package memory

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/packratco/packrat/pkg/utils/test"
	"github.com/packratco/packrat/pkg/vector"
)

var _ = Describe("Reconciler", func() {
	var (
		store      *testutils.MockVectorDriver
		reconciler *Reconciler
		ctx        context.Context
	)

	stored := func(id string, owner int64, item, location string) vector.Record {
		return vector.Record{
			ID:        id,
			Embedding: []float32{1, 0, 0},
			Attrs: vector.Attributes{
				OwnerID:      owner,
				Item:         item,
				Location:     location,
				OriginalText: "I have kept " + item + " in the " + location + ".",
			},
		}
	}

	BeforeEach(func() {
		store = testutils.NewMockVectorDriver()
		reconciler = NewReconciler(NewMatcher(store, testutils.NewMockEmbedder()))
		ctx = context.Background()
	})

	Context("when the item is absent", func() {
		It("creates a new fact", func() {
			res, err := reconciler.Resolve(ctx, 1, "I put my keys in the drawer", "drawer", "keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeCreate))
			Expect(res.Fact.Item).To(Equal("keys"))
			Expect(res.Fact.Location).To(Equal("drawer"))
			Expect(res.Existing).To(BeNil())
		})
	})

	Context("when the item is stored at the same location", func() {
		BeforeEach(func() {
			Expect(store.Upsert(ctx, []vector.Record{stored("f1", 1, "keys", "drawer")})).To(Succeed())
		})

		It("reports a duplicate and writes nothing", func() {
			res, err := reconciler.Resolve(ctx, 1, "keys are in the drawer", "drawer", "keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeDuplicate))
			Expect(res.Existing.ID).To(Equal("f1"))
		})

		It("treats differently-cased names as the same fact", func() {
			res, err := reconciler.Resolve(ctx, 1, "Keys are in The Drawer", "The Drawer", "Keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeDuplicate))
		})
	})

	Context("when the item is stored at a different location", func() {
		BeforeEach(func() {
			Expect(store.Upsert(ctx, []vector.Record{stored("f1", 1, "keys", "garage")})).To(Succeed())
		})

		It("supersedes the old fact", func() {
			res, err := reconciler.Resolve(ctx, 1, "keys are in the drawer", "drawer", "keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeSupersede))
			Expect(res.Existing.ID).To(Equal("f1"))
			Expect(res.Fact.Location).To(Equal("drawer"))
		})
	})

	Context("when another owner holds the same item", func() {
		BeforeEach(func() {
			Expect(store.Upsert(ctx, []vector.Record{stored("f1", 2, "keys", "drawer")})).To(Succeed())
		})

		It("still creates a fresh fact", func() {
			res, err := reconciler.Resolve(ctx, 1, "keys are in the drawer", "drawer", "keys", []float32{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeCreate))
		})
	})

	It("rejects empty item or location", func() {
		_, err := reconciler.Resolve(ctx, 1, "something vague", "  ", "keys", nil)
		Expect(errors.Is(err, ErrAmbiguousFact)).To(BeTrue())
	})
})

var _ = Describe("Plan", func() {
	var (
		store *testutils.MockVectorDriver
		ctx   context.Context
	)

	BeforeEach(func() {
		store = testutils.NewMockVectorDriver()
		ctx = context.Background()
	})

	It("deletes superseded facts and stores new ones in one apply", func() {
		old := vector.Record{ID: "old", Embedding: []float32{1, 0, 0}, Attrs: vector.Attributes{OwnerID: 1, Item: "keys", Location: "garage"}}
		Expect(store.Upsert(ctx, []vector.Record{old})).To(Succeed())

		replacement := NewFact(1, "keys", "drawer", "keys in drawer", []float32{0, 1, 0})
		fresh := NewFact(1, "wallet", "desk", "wallet on desk", []float32{0, 0, 1})

		var plan Plan
		plan.Add(&Resolution{Outcome: OutcomeSupersede, Fact: replacement, Existing: &vector.Match{Record: old}})
		plan.Add(&Resolution{Outcome: OutcomeCreate, Fact: fresh})

		Expect(plan.Apply(ctx, store)).To(Succeed())
		Expect(store.Len()).To(Equal(2))
		_, ok := store.Get("old")
		Expect(ok).To(BeFalse())
		_, ok = store.Get(replacement.ID)
		Expect(ok).To(BeTrue())
	})

	It("collects duplicates without staging writes", func() {
		existing := vector.Match{Record: vector.Record{ID: "f1", Attrs: vector.Attributes{OriginalText: "keys in drawer"}}}

		var plan Plan
		plan.Add(&Resolution{Outcome: OutcomeDuplicate, Existing: &existing})

		Expect(plan.Duplicates).To(HaveLen(1))
		Expect(plan.Upserts).To(BeEmpty())
		Expect(plan.Deletes).To(BeEmpty())
	})
})

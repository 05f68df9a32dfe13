package language_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/packratco/packrat/pkg/language"
	testutils "github.com/packratco/packrat/pkg/utils/test"
)

var _ = Describe("SplitFacts", func() {
	var (
		svc *testutils.MockLanguage
		ctx context.Context
	)

	BeforeEach(func() {
		svc = testutils.NewMockLanguage()
		ctx = context.Background()
	})

	It("returns the sentences", func() {
		svc.Respond(language.PromptSegment, `{"sentences":["a","b"]}`)

		sentences, err := language.SplitFacts(ctx, svc, "a and b")
		Expect(err).NotTo(HaveOccurred())
		Expect(sentences).To(Equal([]string{"a", "b"}))
	})

	It("treats a model-reported error as malformed input", func() {
		svc.Respond(language.PromptSegment, `{"error":"no placements found"}`)

		_, err := language.SplitFacts(ctx, svc, "sing me a song")
		Expect(errors.Is(err, language.ErrMalformed)).To(BeTrue())
	})

	It("rejects an empty sentence list", func() {
		svc.Respond(language.PromptSegment, `{"sentences":[]}`)

		_, err := language.SplitFacts(ctx, svc, "hmm")
		Expect(errors.Is(err, language.ErrMalformed)).To(BeTrue())
	})
})

var _ = Describe("ExtractPair", func() {
	var (
		svc *testutils.MockLanguage
		ctx context.Context
	)

	BeforeEach(func() {
		svc = testutils.NewMockLanguage()
		ctx = context.Background()
	})

	It("returns the place and item", func() {
		svc.Respond(language.PromptExtract, `{"the drawer":"keys"}`)

		place, item, err := language.ExtractPair(ctx, svc, "keys in the drawer")
		Expect(err).NotTo(HaveOccurred())
		Expect(place).To(Equal("the drawer"))
		Expect(item).To(Equal("keys"))
	})

	It("rejects more than one pair", func() {
		svc.Respond(language.PromptExtract, `{"drawer":"keys","desk":"wallet"}`)

		_, _, err := language.ExtractPair(ctx, svc, "two facts")
		Expect(errors.Is(err, language.ErrMalformed)).To(BeTrue())
	})

	It("rejects an empty side", func() {
		svc.Respond(language.PromptExtract, `{"drawer":"  "}`)

		_, _, err := language.ExtractPair(ctx, svc, "vague")
		Expect(errors.Is(err, language.ErrMalformed)).To(BeTrue())
	})

	It("passes the model's error through as malformed", func() {
		svc.Respond(language.PromptExtract, `{"error":"item missing"}`)

		_, _, err := language.ExtractPair(ctx, svc, "somewhere")
		Expect(errors.Is(err, language.ErrMalformed)).To(BeTrue())
	})
})

var _ = Describe("Classify", func() {
	It("decodes the operation and parameters", func() {
		svc := testutils.NewMockLanguage()
		svc.Respond(language.PromptClassify,
			`{"operation":"rename_location","original_location":"garage","modified_location":"workshop"}`)

		c, err := language.Classify(context.Background(), svc, "rename the garage to workshop")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Operation).To(Equal("rename_location"))
		Expect(c.OriginalLocation).To(Equal("garage"))
		Expect(c.ModifiedLocation).To(Equal("workshop"))
	})
})

var _ = Describe("string-field decoders", func() {
	var (
		svc *testutils.MockLanguage
		ctx context.Context
	)

	BeforeEach(func() {
		svc = testutils.NewMockLanguage()
		ctx = context.Background()
	})

	It("Polish returns the sentence", func() {
		svc.Respond(language.PromptPolish, `{"sentence":"You kept your keys in the drawer."}`)

		out, err := language.Polish(ctx, svc, "keys drawer")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("You kept your keys in the drawer."))
	})

	It("RewriteLocation returns the answer", func() {
		svc.Respond(language.PromptRewriteLocation, `{"answer":"Keys are in the workshop."}`)

		out, err := language.RewriteLocation(ctx, svc, "Keys are in the garage.", "garage", "workshop")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Keys are in the workshop."))
	})

	It("rejects a missing field", func() {
		svc.Respond(language.PromptPolish, `{"wrong":"x"}`)

		_, err := language.Polish(ctx, svc, "keys")
		Expect(errors.Is(err, language.ErrMalformed)).To(BeTrue())
	})
})

var _ = Describe("report composition", func() {
	It("selects the deletion prompt when asked", func() {
		svc := testutils.NewMockLanguage()
		svc.Respond(language.PromptComposeItemDeletion, `{"answer":"Forgotten."}`)

		out, err := language.ComposeItemReports(context.Background(), svc,
			[]language.ItemReport{{Item: "keys", ExactItem: "keys"}}, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Forgotten."))
		Expect(svc.Calls(language.PromptComposeItemRetrieval)).To(Equal(0))
	})

	It("hands the reports to the prompt", func() {
		svc := testutils.NewMockLanguage()
		var got any
		svc.Handle(language.PromptComposeLocationRetrieval, func(vars map[string]any) (json.RawMessage, error) {
			got = vars["reports"]
			return json.RawMessage(`{"answer":"ok"}`), nil
		})

		_, err := language.ComposeLocationReports(context.Background(), svc,
			[]language.LocationReport{{Location: "garage", ExactItems: []string{"keys"}}}, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).NotTo(BeNil())
	})
})

var _ = Describe("Render", func() {
	It("renders the user template with JSON-quoted values", func() {
		system, user, err := language.Render(language.PromptExtract, map[string]any{"sentence": `keys "inside" drawer`})
		Expect(err).NotTo(HaveOccurred())
		Expect(system).NotTo(BeEmpty())
		Expect(user).To(ContainSubstring(`"keys \"inside\" drawer"`))
	})

	It("rejects unknown prompts", func() {
		_, _, err := language.Render(language.Prompt("nope"), nil)
		Expect(errors.Is(err, language.ErrUnknownPrompt)).To(BeTrue())
	})
})

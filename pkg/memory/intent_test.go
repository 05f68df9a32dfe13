package memory

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/packratco/packrat/pkg/language"
	testutils "github.com/packratco/packrat/pkg/utils/test"
)

var _ = Describe("Router", func() {
	var (
		lang   *testutils.MockLanguage
		router *Router
		ctx    context.Context
	)

	BeforeEach(func() {
		lang = testutils.NewMockLanguage()
		router = NewRouter(lang)
		ctx = context.Background()
	})

	It("routes an insert", func() {
		lang.Respond(language.PromptClassify, `{"operation":"insert"}`)

		intent, err := router.Route(ctx, "I put my keys in the drawer", OpInsert, OpDeleteItems, OpDeleteLocations)
		Expect(err).NotTo(HaveOccurred())
		Expect(intent.Op).To(Equal(OpInsert))
	})

	It("carries parameters through verbatim", func() {
		lang.Respond(language.PromptClassify, `{"operation":"retrieve_items","items":["Keyz","my Charger"]}`)

		intent, err := router.Route(ctx, "where are my keyz and my charger", OpRetrieveItems, OpRetrieveLocations)
		Expect(err).NotTo(HaveOccurred())
		Expect(intent.Items).To(Equal([]string{"Keyz", "my Charger"}))
	})

	It("rejects unknown operations", func() {
		lang.Respond(language.PromptClassify, `{"operation":"unknown"}`)

		_, err := router.Route(ctx, "sing me a song", OpInsert)
		Expect(errors.Is(err, ErrUnrecognizedIntent)).To(BeTrue())
	})

	It("rejects operations outside the allowed set", func() {
		lang.Respond(language.PromptClassify, `{"operation":"rename_location","original_location":"garage","modified_location":"workshop"}`)

		_, err := router.Route(ctx, "rename the garage to workshop", OpInsert, OpDeleteItems)
		Expect(errors.Is(err, ErrUnrecognizedIntent)).To(BeTrue())
	})

	It("rejects a delete_items classification with no items", func() {
		lang.Respond(language.PromptClassify, `{"operation":"delete_items","items":["  "]}`)

		_, err := router.Route(ctx, "forget ... something", OpDeleteItems)
		Expect(errors.Is(err, ErrUnrecognizedIntent)).To(BeTrue())
	})

	It("rejects a rename missing a side", func() {
		lang.Respond(language.PromptClassify, `{"operation":"rename_location","original_location":"garage"}`)

		_, err := router.Route(ctx, "rename the garage", OpRenameLocation)
		Expect(errors.Is(err, ErrUnrecognizedIntent)).To(BeTrue())
	})

	It("surfaces classifier failures as external errors", func() {
		// no handler registered: Infer fails
		_, err := router.Route(ctx, "anything", OpInsert)
		Expect(errors.Is(err, ErrExternalService)).To(BeTrue())
	})

	It("drops empty entries from parameter lists", func() {
		lang.Respond(language.PromptClassify, `{"operation":"delete_locations","locations":["garage","","  shed "]}`)

		intent, err := router.Route(ctx, "forget the garage and shed", OpDeleteLocations)
		Expect(err).NotTo(HaveOccurred())
		Expect(intent.Locations).To(Equal([]string{"garage", "shed"}))
	})
})

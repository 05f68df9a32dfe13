package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InitViper", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("applies defaults when no config file exists", func() {
		v, err := InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := Load(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":8080"))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		Expect(cfg.Memory.ErrorPolicy).To(Equal("fail_fast"))
	})

	It("reads values from config.toml", func() {
		toml := `
[api]
listen = ":9090"

[vector_store]
provider = "qdrant"
target = "localhost:6334"
`
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644)).To(Succeed())

		v, err := InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := Load(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":9090"))
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))

		// unset keys keep their defaults
		Expect(cfg.Language.Model).To(Equal("llama3.1"))
	})

	It("lets the environment override the file", func() {
		GinkgoT().Setenv("PACKRAT_API_LISTEN", ":7070")

		v, err := InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := Load(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":7070"))
	})

	It("rejects an unparseable config file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0o644)).To(Succeed())

		_, err := InitViper(dir)
		Expect(err).To(HaveOccurred())
	})
})

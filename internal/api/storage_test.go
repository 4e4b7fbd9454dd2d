package api

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		basePath string
		storage  *LocalStorage
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "files")
		var err error
		storage, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory", func() {
		info, err := os.Stat(basePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save", func() {
		It("should write the file under its key", func() {
			key, err := storage.Save("abc_test.png", []byte("data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("abc_test.png"))

			data, err := os.ReadFile(filepath.Join(basePath, "abc_test.png"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("data"))
		})

		It("should refuse keys leaving the base directory", func() {
			_, err := storage.Save("../escape.png", []byte("data"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("abc_test.png", []byte("data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return its content", func() {
				data, err := storage.Get("abc_test.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("data"))
			})
		})

		When("the file does not exist", func() {
			It("returns not found", func() {
				_, err := storage.Get("missing.png")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("abc_test.png", []byte("data"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("abc_test.png")).To(Succeed())
			_, err = storage.Get("abc_test.png")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns an error for a missing file", func() {
			Expect(storage.Delete("missing.png")).NotTo(Succeed())
		})
	})
})

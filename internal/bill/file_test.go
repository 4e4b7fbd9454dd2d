package bill

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ContentType", func() {
	DescribeTable("resolving the media type",
		func(filename, declared, expected string) {
			Expect(ContentType(filename, declared)).To(Equal(expected))
		},
		Entry("declared type wins", "scan.png", "image/jpeg", "image/jpeg"),
		Entry("declared type is normalized", "scan.png", " IMAGE/PNG ", "image/png"),
		Entry("parameters are dropped", "scan.png", "image/png; charset=binary", "image/png"),
		Entry("missing type uses extension", "scan.JPG", "", "image/jpeg"),
		Entry("octet-stream uses extension", "scan.png", "application/octet-stream", "image/png"),
		Entry("unknown extension", "scan.gif", "", "application/octet-stream"),
	)
})

var _ = Describe("ValidateFile", func() {
	var (
		filename string
		declared string
		err      error
	)

	JustBeforeEach(func() {
		err = ValidateFile(filename, declared)
	})

	When("the file is a png", func() {
		BeforeEach(func() {
			filename = "test.png"
			declared = "image/png"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the file is a jpeg", func() {
		BeforeEach(func() {
			filename = "test.jpeg"
			declared = "image/jpeg"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the file is a video", func() {
		BeforeEach(func() {
			filename = "test.mp4"
			declared = "video/mp4"
		})

		It("returns the invalid file type error", func() {
			Expect(err).To(MatchError(ErrInvalidFileType))
		})

		It("should carry the message shown to the employee", func() {
			var validationErr *ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
			Expect(validationErr.Message()).To(Equal("Seuls les justificatifs au format JPEG, JPG ou PNG sont acceptés."))
		})
	})

	When("a video is named like an image", func() {
		BeforeEach(func() {
			filename = "test.png"
			declared = "media/mp4"
		})

		It("should trust the declared type", func() {
			Expect(err).To(MatchError(ErrInvalidFileType))
		})
	})
})

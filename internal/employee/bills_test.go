package employee

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/store"
)

var _ = Describe("Bills", func() {
	var (
		client *mockClient
		logs   *observer.ObservedLogs
		bills  *Bills
		result []bill.DisplayBill
		err    error
	)

	BeforeEach(func() {
		client = newMockClient()
		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		bills = NewBills(client, nil, zap.New(core))
	})

	JustBeforeEach(func() {
		result, err = bills.GetBills(context.Background())
	})

	fallbacks := func() int {
		return logs.FilterMessage("bill field formatting fallback").Len()
	}

	When("the store returns the employee bills", func() {
		BeforeEach(func() {
			client.bills.bills = fixtureBills()
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return every bill", func() {
			Expect(result).To(HaveLen(4))
			ids := make([]string, 0, len(result))
			for _, b := range result {
				ids = append(ids, b.ID)
			}
			Expect(ids).To(ConsistOf(
				"47qAXb6fIm2zOKkLzMro",
				"BeKy5Mo4jkmdfPGYpTxZ",
				"UIUZtnPQvnbFnB0ozvJh",
				"qcCK3SzECmaZAGRrHjaC",
			))
		})

		It("should order the bills from latest to earliest", func() {
			for i := 1; i < len(result); i++ {
				Expect(result[i-1].Bill.Date >= result[i].Bill.Date).To(BeTrue())
			}
			Expect(result[0].ID).To(Equal("47qAXb6fIm2zOKkLzMro"))
			Expect(result[3].ID).To(Equal("BeKy5Mo4jkmdfPGYpTxZ"))
		})

		It("should format the dates", func() {
			Expect(result[0].Date).To(Equal("04/04/2004"))
		})

		It("should label the statuses", func() {
			Expect(result[0].Status).To(Equal("En attente"))
			Expect(result[1].Status).To(Equal("Accepté"))
			Expect(result[2].Status).To(Equal("Refused"))
		})

		It("should keep the raw values on the embedded bill", func() {
			Expect(result[0].Bill.Date).To(Equal("2004-04-04"))
			Expect(result[0].Bill.Status).To(Equal(bill.StatusPending))
		})

		It("should not log any fallback", func() {
			Expect(fallbacks()).To(Equal(0))
		})

		It("should not reorder the store result", func() {
			Expect(client.bills.bills[0].ID).To(Equal("47qAXb6fIm2zOKkLzMro"))
			Expect(client.bills.bills[1].ID).To(Equal("BeKy5Mo4jkmdfPGYpTxZ"))
		})
	})

	When("the store has no bills", func() {
		BeforeEach(func() {
			client.bills.bills = []bill.Bill{}
		})

		It("should return an empty list without error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).NotTo(BeNil())
			Expect(result).To(BeEmpty())
		})
	})

	When("a bill has a malformed date", func() {
		BeforeEach(func() {
			client.bills.bills = []bill.Bill{
				{ID: "good", Date: "2020-05-01", Status: bill.StatusPending},
				{ID: "bad", Date: "not a date", Status: bill.StatusAccepted},
			}
		})

		It("should still return the bill", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(2))
		})

		It("should keep the raw date", func() {
			Expect(result[1].ID).To(Equal("bad"))
			Expect(result[1].Date).To(Equal("not a date"))
		})

		It("should still label the status", func() {
			Expect(result[1].Status).To(Equal("Accepté"))
		})

		It("should log exactly one fallback naming the bill", func() {
			Expect(fallbacks()).To(Equal(1))
			entry := logs.FilterMessage("bill field formatting fallback").All()[0]
			Expect(entry.ContextMap()).To(HaveKeyWithValue("bill_id", "bad"))
			Expect(entry.ContextMap()).To(HaveKeyWithValue("field", "date"))
			Expect(entry.ContextMap()).To(HaveKeyWithValue("value", "not a date"))
		})
	})

	When("a bill has a malformed date and an unknown status", func() {
		BeforeEach(func() {
			client.bills.bills = []bill.Bill{
				{ID: "staged", Status: bill.Status("draft")},
			}
		})

		It("should log one fallback per field", func() {
			Expect(fallbacks()).To(Equal(2))
		})

		It("should pass both raw values through", func() {
			Expect(result).To(HaveLen(1))
			Expect(result[0].Date).To(BeEmpty())
			Expect(result[0].Status).To(Equal("draft"))
		})
	})

	When("bills share a date or have none", func() {
		BeforeEach(func() {
			client.bills.bills = []bill.Bill{
				{ID: "undated-1", Status: bill.StatusPending},
				{ID: "same-a", Date: "2021-06-01", Status: bill.StatusPending},
				{ID: "older", Date: "2019-06-01", Status: bill.StatusPending},
				{ID: "undated-2", Date: "31/12/2020", Status: bill.StatusPending},
				{ID: "same-b", Date: "2021-06-01", Status: bill.StatusPending},
			}
		})

		It("should keep the store order for ties and put undated bills last", func() {
			ids := make([]string, 0, len(result))
			for _, b := range result {
				ids = append(ids, b.ID)
			}
			Expect(ids).To(Equal([]string{"same-a", "same-b", "older", "undated-1", "undated-2"}))
		})
	})

	When("the store answers 404", func() {
		BeforeEach(func() {
			client.bills.listErr = store.StatusError("listing bills", http.StatusNotFound, "Erreur 404")
		})

		It("returns the not found classification", func() {
			Expect(store.KindOf(err)).To(Equal(store.NotFound))
		})

		It("should return no bills", func() {
			Expect(result).To(BeNil())
		})
	})

	When("the store answers 500", func() {
		BeforeEach(func() {
			client.bills.listErr = store.StatusError("listing bills", http.StatusInternalServerError, "Erreur 500")
		})

		It("returns the server error classification", func() {
			Expect(store.KindOf(err)).To(Equal(store.ServerError))
			Expect(err).To(BeIdenticalTo(client.bills.listErr))
		})
	})

	When("a locale is given", func() {
		BeforeEach(func() {
			client.bills.bills = []bill.Bill{{ID: "b1", Date: "2021-11-22", Status: bill.StatusPending}}
			bills = NewBills(client, bill.NewFormatter("en-US"), nil)
		})

		It("should format the dates for that locale", func() {
			Expect(result[0].Date).To(Equal("11/22/2021"))
		})
	})
})

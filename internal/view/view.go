// Package view renders the employee pages as plain text.
package view

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/store"
)

const (
	BillsTitle   = "Mes notes de frais"
	NewBillTitle = "Envoyer une note de frais"
	LoadingText  = "Loading..."
	NoBillsText  = "Aucune note de frais"
)

// BillsPageData is everything the bills page shows
type BillsPageData struct {
	Bills   []bill.DisplayBill
	Loading bool
	Err     error
}

// BillsPage writes the bills page. Loading wins over an error, an error wins over the list.
func BillsPage(w io.Writer, data BillsPageData) error {
	if data.Loading {
		_, err := fmt.Fprintln(w, LoadingText)
		return err
	}
	if data.Err != nil {
		_, err := fmt.Fprintln(w, ErrorText(data.Err))
		return err
	}

	if _, err := fmt.Fprintln(w, BillsTitle); err != nil {
		return err
	}
	if len(data.Bills) == 0 {
		_, err := fmt.Fprintln(w, NoBillsText)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Type\tNom\tDate\tMontant\tStatut\tJustificatif")
	for _, b := range data.Bills {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.Type,
			b.Name,
			b.Date,
			Amount(b.Amount),
			b.Status,
			b.FileName,
		)
	}
	return tw.Flush()
}

// ErrorText is the message shown for a failed bills load
func ErrorText(err error) string {
	switch store.KindOf(err) {
	case store.NotFound:
		return "Erreur 404"
	case store.ServerError:
		return "Erreur 500"
	default:
		return "Erreur : " + err.Error()
	}
}

// Amount formats an amount in euros the way the bills table shows it
func Amount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " €"
}

// NewBillPageData is the state of the new bill form
type NewBillPageData struct {
	State             string
	FileName          string
	ValidationMessage string
	Err               error
}

// NewBillPage writes the new bill form status
func NewBillPage(w io.Writer, data NewBillPageData) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, NewBillTitle)
	fmt.Fprintf(tw, "État :\t%s\n", data.State)
	if data.FileName != "" {
		fmt.Fprintf(tw, "Justificatif :\t%s\n", data.FileName)
	}
	if data.ValidationMessage != "" {
		fmt.Fprintf(tw, "Erreur :\t%s\n", data.ValidationMessage)
	} else if data.Err != nil {
		fmt.Fprintf(tw, "Erreur :\t%s\n", data.Err)
	}
	return tw.Flush()
}

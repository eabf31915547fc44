package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Show prints a coverage summary of the loaded dataset.
func (a *App) Show(ctx context.Context) error {
	data, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "reporting currency: %s\n", data.BaseCurrency())
	fmt.Fprintf(os.Stdout, "categories: %s\n\n", strings.Join(data.Categories(), ", "))

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Period\tRecords\tCash\tCurrency")

	for _, p := range data.Periods() {
		cashValue := "-"
		cashCurrency := "-"
		if bal, ok := data.Cash(p); ok {
			cashValue = bal.Balance.StringFixed(2)
			cashCurrency = bal.Currency
		}
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\n", p, len(data.RecordsFor(p)), cashValue, cashCurrency)
	}

	return writer.Flush()
}

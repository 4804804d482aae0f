package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/pkg/money"
)

var membershipsCmd = &cobra.Command{
	Use:   "memberships",
	Short: "List memberships priced against a price base",
	RunE:  runMemberships,
}

var membershipsPriceBase string

func init() {
	membershipsCmd.Flags().StringVar(&membershipsPriceBase, "price-base", "", "price base id [REQUIRED]")
	_ = membershipsCmd.MarkFlagRequired("price-base")
}

func runMemberships(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	calc := newCalculator(db)
	items, err := calc.GetAvailableMemberships(ctx, membershipsPriceBase)
	if err != nil {
		return err
	}
	return renderMemberships(cmd.OutOrStdout(), items, calc.Formatter())
}

func renderMemberships(w io.Writer, items []models.MembershipInfo, formatter money.Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMONTHS PAID\tMONTHS SAVED\tTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", item.ID, item.Name, item.MonthsPaid, item.MonthsSaved.String(), formatter.Format(item.TotalPrice))
	}
	return tw.Flush()
}

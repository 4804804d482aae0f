package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/internal/service"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Calculate a payment and print its breakdown",
	Long: `Calculate a payment against a price base without recording it.

Pick exactly one selection:
  --disciplines N [--siblings M]   N disciplines for each of M siblings
  --membership ID                  a membership bundle
  --mixed 2,1,3                    disciplines per sibling`,
	RunE: runQuote,
}

var (
	quotePriceBase     string
	quoteDisciplines   int
	quoteSiblings      int
	quoteMembership    string
	quoteMixed         []int
	quoteTiming        string
	quoteEnrollment    bool
	quoteEnrollmentFee string
	quoteJSON          bool
)

func init() {
	quoteCmd.Flags().StringVar(&quotePriceBase, "price-base", "", "price base id [REQUIRED]")
	quoteCmd.Flags().IntVar(&quoteDisciplines, "disciplines", 0, "disciplines per sibling")
	quoteCmd.Flags().IntVar(&quoteSiblings, "siblings", 1, "number of siblings sharing the discipline count")
	quoteCmd.Flags().StringVar(&quoteMembership, "membership", "", "membership id")
	quoteCmd.Flags().IntSliceVar(&quoteMixed, "mixed", nil, "disciplines for each sibling, comma separated")
	quoteCmd.Flags().StringVar(&quoteTiming, "timing", string(models.TimingNormal), "NORMAL, LATE_ACTIVE, PROPORTIONAL_NEW or MONTH_END")
	quoteCmd.Flags().BoolVar(&quoteEnrollment, "enrollment", false, "add the enrollment fee")
	quoteCmd.Flags().StringVar(&quoteEnrollmentFee, "enrollment-fee", "", "override the configured enrollment fee")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the full result as JSON")

	_ = quoteCmd.MarkFlagRequired("price-base")
}

func runQuote(cmd *cobra.Command, args []string) error {
	selection, err := buildSelection(quoteDisciplines, quoteSiblings, quoteMembership, quoteMixed)
	if err != nil {
		return err
	}
	opts, err := buildOptions(quoteTiming, quoteEnrollment, quoteEnrollmentFee)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	result, err := newCalculator(db).CalculatePayment(ctx, selection, quotePriceBase, opts)
	if err != nil {
		return err
	}
	return renderQuote(cmd.OutOrStdout(), result, quoteJSON)
}

func buildSelection(disciplines, siblings int, membershipID string, mixed []int) (models.PaymentSelection, error) {
	chosen := 0
	if disciplines != 0 {
		chosen++
	}
	if membershipID != "" {
		chosen++
	}
	if len(mixed) > 0 {
		chosen++
	}
	if chosen != 1 {
		return nil, errors.New("choose exactly one of --disciplines, --membership or --mixed")
	}
	if siblings != 1 && disciplines == 0 {
		return nil, errors.New("--siblings only applies to --disciplines")
	}

	switch {
	case membershipID != "":
		return models.MembershipSelection{MembershipID: membershipID}, nil
	case len(mixed) > 0:
		counts := make([]int, len(mixed))
		copy(counts, mixed)
		return models.MixedSiblingsSelection{DisciplinesPerSibling: counts}, nil
	default:
		return models.DisciplinesSelection{Count: disciplines, Siblings: siblings}, nil
	}
}

func buildOptions(timing string, enrollment bool, fee string) (service.CalculateOptions, error) {
	opts := service.CalculateOptions{
		Timing:            models.PaymentTiming(strings.ToUpper(strings.TrimSpace(timing))),
		IncludeEnrollment: enrollment,
	}
	if strings.TrimSpace(fee) != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(fee))
		if err != nil {
			return opts, fmt.Errorf("invalid --enrollment-fee %q", fee)
		}
		opts.EnrollmentFee = decimal.NewNullDecimal(amount)
	}
	return opts, nil
}

func renderQuote(w io.Writer, result *models.PaymentResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if _, err := fmt.Fprintln(w, result.Description); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, result.Breakdown)
	return err
}

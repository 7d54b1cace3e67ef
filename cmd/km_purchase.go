package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sodachi/mangetsu/internal/chapters"
	"github.com/sodachi/mangetsu/internal/source"
)

var (
	flagKMPurchaseChapter string
	flagKMPurchaseRange   string
	flagKMPurchaseList    string
)

var kmPurchaseCmd = &cobra.Command{
	Use:   "purchase <title-id>",
	Short: "Purchase chapters with tickets and points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid title id %q", args[0])
		}

		_, log, store, err := setup()
		if err != nil {
			return err
		}

		cfg, err := pickKMAccount(store, flagKMAccount)
		if err != nil {
			return err
		}
		client, err := newKMClient(store, cfg, log)
		if err != nil {
			return err
		}

		src := source.NewKM(client, log)
		report, err := purchaseChapters(cmd, src, titleID,
			flagKMPurchaseChapter, flagKMPurchaseRange, flagKMPurchaseList)
		if err != nil {
			return err
		}

		printPurchaseReport(report)
		return nil
	},
}

// purchaseChapters runs the shared select-then-purchase flow for either
// backend.
func purchaseChapters(cmd *cobra.Command, src source.Source, titleID int64, one, rng, list string) (*source.PurchaseReport, error) {
	title, err := src.FetchTitle(cmd.Context(), titleID)
	if err != nil {
		return nil, err
	}

	selected := chapters.Filter(chapters.Wrap(title.Chapters), one, rng, list)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no chapters selected")
	}

	ids := make([]int64, 0, len(selected))
	for _, ch := range selected {
		ids = append(ids, ch.ID)
	}

	return src.Purchase(cmd.Context(), titleID, ids)
}

func printPurchaseReport(report *source.PurchaseReport) {
	fmt.Printf("Purchased %d chapters.\n", len(report.Purchased))
	if len(report.Skipped) > 0 {
		fmt.Printf("Skipped %d already owned.\n", len(report.Skipped))
	}
	if report.FailureCount() > 0 {
		fmt.Printf("Failed %d:\n", report.FailureCount())
		for _, failure := range report.Failures {
			fmt.Printf("  %d: %s\n", failure.ChapterID, failure.Reason)
		}
	}
}

func init() {
	kmPurchaseCmd.Flags().StringVar(&flagKMPurchaseChapter, "chapter", "", "single chapter by id or position")
	kmPurchaseCmd.Flags().StringVar(&flagKMPurchaseRange, "range", "", "chapter range by position (e.g. 5-12)")
	kmPurchaseCmd.Flags().StringVar(&flagKMPurchaseList, "list", "", "chapter positions (e.g. 1,3,5)")

	kmCmd.AddCommand(kmPurchaseCmd)
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sodachi/mangetsu/internal/source"
)

var (
	flagMUPurchaseChapter string
	flagMUPurchaseRange   string
	flagMUPurchaseList    string
)

var muPurchaseCmd = &cobra.Command{
	Use:   "purchase <title-id>",
	Short: "Purchase chapters with coins",
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

		sess, err := pickMUAccount(store, flagMUAccount)
		if err != nil {
			return err
		}
		client, err := newMUClient(sess, log)
		if err != nil {
			return err
		}

		src := source.NewMU(client, log)
		report, err := purchaseChapters(cmd, src, titleID,
			flagMUPurchaseChapter, flagMUPurchaseRange, flagMUPurchaseList)
		if err != nil {
			return err
		}

		printPurchaseReport(report)
		return nil
	},
}

func init() {
	muPurchaseCmd.Flags().StringVar(&flagMUPurchaseChapter, "chapter", "", "single chapter by id or position")
	muPurchaseCmd.Flags().StringVar(&flagMUPurchaseRange, "range", "", "chapter range by position (e.g. 5-12)")
	muPurchaseCmd.Flags().StringVar(&flagMUPurchaseList, "list", "", "chapter positions (e.g. 1,3,5)")

	muCmd.AddCommand(muPurchaseCmd)
}

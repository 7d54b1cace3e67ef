package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sodachi/mangetsu/internal/mu"
	"github.com/sodachi/mangetsu/internal/session"
	"github.com/sodachi/mangetsu/internal/source"
)

var (
	flagMUAccount  string
	flagMUPlatform string
)

var muCmd = &cobra.Command{
	Use:   "mu",
	Short: "Commands for the protobuf storefront",
}

var muAuthCmd = &cobra.Command{
	Use:   "auth <secret>",
	Short: "Save a session secret as a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, store, err := setup()
		if err != nil {
			return err
		}

		platform := mu.PlatformAndroid
		switch flagMUPlatform {
		case "android":
		case "ios":
			platform = mu.PlatformApple
		default:
			return fmt.Errorf("unknown platform %q, expected android or ios", flagMUPlatform)
		}

		sess := &session.MUSession{
			ID:      session.NewID(),
			Session: args[0],
			Device:  platform,
		}

		client, err := newMUClient(sess, log)
		if err != nil {
			return err
		}

		// A bad secret still answers, just with an empty account page.
		account, err := client.GetAccount(cmd.Context())
		if err != nil {
			return fmt.Errorf("secret rejected: %w", err)
		}

		if err := store.SaveMU(sess); err != nil {
			return err
		}

		fmt.Printf("Authenticated (%d registered devices).\n", len(account.Devices))
		fmt.Printf("Saved account %s [%s]\n", sess.ID, platformName(platform))
		return nil
	},
}

var muAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List saved accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, store, err := setup()
		if err != nil {
			return err
		}

		all, err := store.LoadAllMU()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No accounts saved.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPLATFORM")
		for _, sess := range all {
			fmt.Fprintf(w, "%s\t%s\n", sess.ID, platformName(sess.Device))
		}
		return w.Flush()
	},
}

var muRevokeCmd = &cobra.Command{
	Use:   "revoke <account-id>",
	Short: "Delete a saved account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, store, err := setup()
		if err != nil {
			return err
		}

		if err := store.DeleteMU(args[0]); err != nil {
			return err
		}
		fmt.Printf("Revoked account %s\n", args[0])
		return nil
	},
}

var muBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account's coin balance",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		balance, err := source.NewMU(client, log).Balance(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Coin balance:")
		fmt.Printf("  Free:    %d\n", balance.Free)
		fmt.Printf("  Event:   %d\n", balance.Event)
		fmt.Printf("  Paid:    %d\n", balance.Paid)
		fmt.Printf("  Total:   %d\n", balance.Total())
		return nil
	},
}

func init() {
	muAuthCmd.Flags().StringVar(&flagMUPlatform, "platform", "android", "session type: android or ios")

	muCmd.PersistentFlags().StringVar(&flagMUAccount, "account", "", "saved account id to use")

	muCmd.AddCommand(muAuthCmd)
	muCmd.AddCommand(muAccountsCmd)
	muCmd.AddCommand(muRevokeCmd)
	muCmd.AddCommand(muBalanceCmd)
	rootCmd.AddCommand(muCmd)
}

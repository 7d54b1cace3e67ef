package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sodachi/mangetsu/internal/km"
	"github.com/sodachi/mangetsu/internal/session"
	"github.com/sodachi/mangetsu/internal/source"
)

var kmCmd = &cobra.Command{
	Use:   "km",
	Short: "Commands for the KM storefront",
}

var (
	flagKMAccount  string
	flagKMEmail    string
	flagKMPassword string
	flagKMPlatform string
	flagKMCookies  string
)

var kmAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in with email and password and save the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, store, err := setup()
		if err != nil {
			return err
		}

		if flagKMCookies != "" {
			if flagKMPlatform != "web" {
				return fmt.Errorf("--cookies only builds a web session")
			}

			data, err := os.ReadFile(flagKMCookies)
			if err != nil {
				return err
			}

			result, err := km.LoginWithCookies(cmd.Context(), string(data), km.LoginOptions{Logger: log})
			if err != nil {
				return err
			}

			id := session.NewID()
			result.Config.(*km.ConfigWeb).ID = id
			if err := store.SaveKM(result.Config); err != nil {
				return err
			}

			fmt.Printf("Authenticated as %s (%s)\n", result.Account.Name, result.Account.Email)
			fmt.Println("Saved account:", id)
			return nil
		}

		email := flagKMEmail
		if email == "" {
			prompt := promptui.Prompt{Label: "Email"}
			if email, err = prompt.Run(); err != nil {
				return fmt.Errorf("cancelled")
			}
		}

		password := flagKMPassword
		if password == "" {
			prompt := promptui.Prompt{Label: "Password", Mask: '*'}
			if password, err = prompt.Run(); err != nil {
				return fmt.Errorf("cancelled")
			}
		}

		var platform km.MobilePlatform
		switch flagKMPlatform {
		case "web":
		case "android":
			platform = km.PlatformAndroid
		case "ios":
			platform = km.PlatformApple
		default:
			return fmt.Errorf("unknown platform %q (web, android, ios)", flagKMPlatform)
		}

		result, err := km.Login(cmd.Context(), km.LoginOptions{
			Email:          email,
			Password:       password,
			MobilePlatform: platform,
			Logger:         log,
		})
		if err != nil {
			return err
		}

		id := session.NewID()
		switch cfg := result.Config.(type) {
		case *km.ConfigWeb:
			cfg.ID = id
		case *km.ConfigMobile:
			cfg.ID = id
		}

		if err := store.SaveKM(result.Config); err != nil {
			return err
		}

		fmt.Printf("Authenticated as %s (%s)\n", result.Account.Name, result.Account.Email)
		fmt.Println("Saved account:", id)
		return nil
	},
}

var kmAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List saved KM accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, store, err := setup()
		if err != nil {
			return err
		}

		all, err := store.LoadAllKM()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No KM accounts saved.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tEMAIL\tUSERNAME")
		for _, cfg := range all {
			switch c := cfg.(type) {
			case *km.ConfigWeb:
				fmt.Fprintf(w, "%s\tweb\t%s\t%s\n", c.ID, c.Email, c.Username)
			case *km.ConfigMobile:
				fmt.Fprintf(w, "%s\tmobile\t%s\t%s\n", c.ID, c.Email, c.Username)
			}
		}
		return w.Flush()
	},
}

var kmRevokeCmd = &cobra.Command{
	Use:   "revoke <account-id>",
	Short: "Delete a saved KM account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, store, err := setup()
		if err != nil {
			return err
		}

		if err := store.DeleteKM(args[0]); err != nil {
			return err
		}

		fmt.Println("Removed account:", args[0])
		return nil
	},
}

var kmBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account's point balance",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		balance, err := source.NewKM(client, log).Balance(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Point balance:")
		fmt.Printf("  Free:    %d\n", balance.Free)
		fmt.Printf("  Paid:    %d\n", balance.Paid)
		fmt.Printf("  Total:   %d\n", balance.Total())
		fmt.Printf("  Premium tickets: %d\n", balance.PremiumTickets)
		return nil
	},
}

func init() {
	kmAuthCmd.Flags().StringVar(&flagKMEmail, "email", "", "account email (prompted when omitted)")
	kmAuthCmd.Flags().StringVar(&flagKMPassword, "password", "", "account password (prompted when omitted)")
	kmAuthCmd.Flags().StringVar(&flagKMPlatform, "platform", "web", "session type: web, android or ios")
	kmAuthCmd.Flags().StringVar(&flagKMCookies, "cookies", "", "path to a Netscape cookies.txt export to log in with")

	kmCmd.PersistentFlags().StringVar(&flagKMAccount, "account", "", "saved account id to use")

	kmCmd.AddCommand(kmAuthCmd)
	kmCmd.AddCommand(kmAccountsCmd)
	kmCmd.AddCommand(kmRevokeCmd)
	kmCmd.AddCommand(kmBalanceCmd)
	rootCmd.AddCommand(kmCmd)
}

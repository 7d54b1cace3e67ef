package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sodachi/mangetsu/internal/mu"
	"github.com/sodachi/mangetsu/internal/source"
)

var flagMUSearchTag uint64

var muSearchCmd = &cobra.Command{
	Use:   "search [word]",
	Short: "Search titles by keyword or tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && flagMUSearchTag == 0 {
			return fmt.Errorf("give a keyword or --tag")
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

		var results *mu.MangaResults
		if flagMUSearchTag != 0 {
			results, err = client.SearchByTag(cmd.Context(), flagMUSearchTag)
		} else {
			results, err = client.Search(cmd.Context(), strings.Join(args, " "))
		}
		if err != nil {
			return err
		}

		printMangaResults(results.Titles)
		return nil
	},
}

var muInfoCmd = &cobra.Command{
	Use:   "info <title-id>",
	Short: "Show a title and its chapters",
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

		title, err := source.NewMU(client, log).FetchTitle(cmd.Context(), titleID)
		if err != nil {
			return err
		}

		printTitle(title)
		return nil
	},
}

var muWeeklyCmd = &cobra.Command{
	Use:   "weekly [day]",
	Short: "Show titles updating on a weekday",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day := mu.WeeklyCodes[(int(time.Now().Weekday())+6)%7]
		if len(args) == 1 {
			day = mu.WeeklyCode(strings.ToLower(args[0])[:min(3, len(args[0]))])
			found := false
			for _, code := range mu.WeeklyCodes {
				if code == day {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("unknown weekday %q", args[0])
			}
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

		results, err := client.GetWeeklyTitles(cmd.Context(), day)
		if err != nil {
			return err
		}

		fmt.Printf("Updating on %s:\n", day)
		printMangaResults(results.Titles)
		return nil
	},
}

var muHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the coin acquisition history",
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

		history, err := client.GetPointHistory(cmd.Context())
		if err != nil {
			return err
		}

		if len(history.Logs) == 0 {
			fmt.Println("No history.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tFREE\tEVENT\tPAID\tNOTE")
		for _, entry := range history.Logs {
			date := time.Unix(int64(entry.CreatedAt), 0).Format("2006-01-02")
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
				date, entry.FreePoint, entry.EventPoint, entry.PaidPoint, entry.DisplayedText)
		}
		return w.Flush()
	},
}

var muMyCmd = &cobra.Command{
	Use:   "my",
	Short: "Show favorites and reading history",
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

		page, err := client.GetMyManga(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Favorites:")
		printMangaResults(page.Favorites)
		fmt.Println("\nRecently read:")
		printMangaResults(page.History)
		return nil
	},
}

var muHomeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the home feed",
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

		home, err := client.GetMyHome(cmd.Context())
		if err != nil {
			return err
		}

		if home.Featured != nil {
			fmt.Printf("Featured: %s (%d)\n\n", home.Featured.Title, home.Featured.ID)
		}
		if len(home.UpdatedTitles) > 0 {
			fmt.Printf("%s:\n", home.UpdatedSectionName)
			printMangaResults(home.UpdatedTitles)
		}
		for _, group := range home.Rankings {
			fmt.Printf("\n%s:\n", group.Name)
			printMangaResults(group.Titles)
		}
		return nil
	},
}

func printMangaResults(titles []mu.MangaResultNode) {
	if len(titles) == 0 {
		fmt.Println("  (none)")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tFAVORITES")
	for _, title := range titles {
		fmt.Fprintf(w, "%d\t%s\t%d\n", title.ID, title.Title, title.Favorites)
	}
	w.Flush()
}

func init() {
	muSearchCmd.Flags().Uint64Var(&flagMUSearchTag, "tag", 0, "search by tag id instead of keyword")

	muCmd.AddCommand(muSearchCmd)
	muCmd.AddCommand(muInfoCmd)
	muCmd.AddCommand(muWeeklyCmd)
	muCmd.AddCommand(muHistoryCmd)
	muCmd.AddCommand(muMyCmd)
	muCmd.AddCommand(muHomeCmd)
}

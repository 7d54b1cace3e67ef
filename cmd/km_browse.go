package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sodachi/mangetsu/internal/km"
	"github.com/sodachi/mangetsu/internal/source"
)

var flagKMSearchLimit uint32

var kmSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search titles by keyword",
	Args:  cobra.MinimumNArgs(1),
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

		titles, err := client.Search(cmd.Context(), strings.Join(args, " "), flagKMSearchLimit)
		if err != nil {
			return err
		}

		if len(titles) == 0 {
			fmt.Println("No results.")
			return nil
		}
		printTitleTable(titles)
		return nil
	},
}

var kmInfoCmd = &cobra.Command{
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

		cfg, err := pickKMAccount(store, flagKMAccount)
		if err != nil {
			return err
		}
		client, err := newKMClient(store, cfg, log)
		if err != nil {
			return err
		}

		title, err := source.NewKM(client, log).FetchTitle(cmd.Context(), titleID)
		if err != nil {
			return err
		}

		printTitle(title)
		return nil
	},
}

var kmRankingsCmd = &cobra.Command{
	Use:   "rankings [tab]",
	Short: "Show a ranking tab (lists tabs when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Println("Available tabs:")
			for _, tab := range km.RankingTabs {
				fmt.Printf("  %s\n", tab.Name)
			}
			return nil
		}

		var tab *km.RankingTab
		for i := range km.RankingTabs {
			if strings.EqualFold(km.RankingTabs[i].Name, args[0]) {
				tab = &km.RankingTabs[i]
				break
			}
		}
		if tab == nil {
			return fmt.Errorf("unknown ranking tab %q", args[0])
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

		ranking, err := client.GetAllRankings(cmd.Context(), tab.ID, 25, 0)
		if err != nil {
			return err
		}

		ids := make([]int32, 0, len(ranking.Titles))
		for _, entry := range ranking.Titles {
			ids = append(ids, entry.ID)
		}

		titles, err := client.GetTitles(cmd.Context(), ids)
		if err != nil {
			return err
		}

		fmt.Printf("%s ranking:\n", tab.Name)
		for i, title := range titles {
			fmt.Printf("%3d) %s (%d)\n", i+1, title.Title, title.ID)
		}
		return nil
	},
}

var kmFavoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List the account's favorited titles",
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

		favorites, err := client.GetFavorites(cmd.Context())
		if err != nil {
			return err
		}

		if len(favorites.Titles) == 0 {
			fmt.Println("No favorites.")
			return nil
		}
		printTitleTable(favorites.Titles)
		return nil
	},
}

var kmPurchasedCmd = &cobra.Command{
	Use:   "purchased",
	Short: "List titles with purchased episodes",
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

		purchased, err := client.GetPurchased(cmd.Context())
		if err != nil {
			return err
		}

		if len(purchased) == 0 {
			fmt.Println("No purchases yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE")
		for _, title := range purchased {
			fmt.Fprintf(w, "%d\t%s\n", title.ID, title.Title)
		}
		return w.Flush()
	},
}

var kmWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Show the weekly release schedule",
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

		weekly, err := client.GetWeekly(cmd.Context())
		if err != nil {
			return err
		}

		byID := make(map[int32]string, len(weekly.Titles))
		for _, title := range weekly.Titles {
			byID[title.ID] = title.Title
		}

		days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
		for _, content := range weekly.Contents {
			day := "?"
			if idx := int(content.Weekday) - 1; idx >= 0 && idx < len(days) {
				day = days[idx]
			}
			fmt.Printf("%s:\n", day)
			for _, id := range content.Titles {
				if name, ok := byID[id]; ok {
					fmt.Printf("  %s (%d)\n", name, id)
				}
			}
		}
		return nil
	},
}

var kmMagazinesCmd = &cobra.Command{
	Use:   "magazines",
	Short: "List magazine imprints",
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

		magazines, err := client.GetMagazines(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSUBSCRIBED")
		for _, m := range magazines.Categories {
			subscribed := ""
			if m.Purchased == km.IntBoolTrue {
				subscribed = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Name, subscribed)
		}
		return w.Flush()
	},
}

var kmGenresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List searchable genres",
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

		genres, err := client.GetGenres(cmd.Context())
		if err != nil {
			return err
		}

		for _, genre := range genres.Genres {
			fmt.Printf("%4d  %s\n", genre.ID, genre.Name)
		}
		return nil
	},
}

func printTitleTable(titles []km.TitleNode) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR")
	for _, title := range titles {
		fmt.Fprintf(w, "%d\t%s\t%s\n", title.ID, title.Title, title.Author)
	}
	_ = w.Flush()
}

func printTitle(title *source.Title) {
	fmt.Printf("%s (%d)\n", title.Name, title.ID)
	if title.Authors != "" {
		fmt.Printf("by %s\n", title.Authors)
	}
	if title.Description != "" {
		fmt.Printf("\n%s\n", title.Description)
	}

	fmt.Printf("\nChapters (%d):\n", len(title.Chapters))
	for _, ch := range title.Chapters {
		mark := " "
		if ch.Owned {
			mark = "*"
		}
		price := ""
		if ch.Price > 0 {
			price = fmt.Sprintf("  [%d pts]", ch.Price)
		}
		fmt.Printf(" %s %d  %s%s\n", mark, ch.ID, ch.Title, price)
	}
}

func init() {
	kmSearchCmd.Flags().Uint32Var(&flagKMSearchLimit, "limit", 0, "maximum results (0 means no limit)")

	kmCmd.AddCommand(kmSearchCmd)
	kmCmd.AddCommand(kmInfoCmd)
	kmCmd.AddCommand(kmRankingsCmd)
	kmCmd.AddCommand(kmFavoritesCmd)
	kmCmd.AddCommand(kmPurchasedCmd)
	kmCmd.AddCommand(kmWeeklyCmd)
	kmCmd.AddCommand(kmMagazinesCmd)
	kmCmd.AddCommand(kmGenresCmd)
}

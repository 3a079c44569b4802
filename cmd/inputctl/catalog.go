package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type descriptorView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Indicator string `json:"indicator,omitempty"`
	IME       bool   `json:"ime,omitempty"`
}

var localesCmd = &cobra.Command{
	Use:   "locales [query]",
	Short: "List known locales, fuzzy matched against query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		var views []descriptorView
		for _, l := range a.Catalog.SearchLocales(strings.Join(args, " ")) {
			views = append(views, descriptorView{ID: l.Key(), Name: l.Name, Indicator: l.Indicator()})
		}
		return printDescriptors(cmd, views)
	},
}

var layoutsCmd = &cobra.Command{
	Use:   "layouts [query]",
	Short: "List known keyboard layouts and IMEs, fuzzy matched against query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		var views []descriptorView
		for _, l := range a.Catalog.SearchLayouts(strings.Join(args, " ")) {
			views = append(views, descriptorView{ID: l.Key(), Name: l.Name, IME: l.IsIME()})
		}
		return printDescriptors(cmd, views)
	},
}

func init() {
	rootCmd.AddCommand(localesCmd, layoutsCmd)
}

func printDescriptors(cmd *cobra.Command, views []descriptorView) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(w, views)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range views {
		extra := v.Indicator
		if v.IME {
			extra = "IME"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", v.ID, v.Name, extra)
	}
	return tw.Flush()
}

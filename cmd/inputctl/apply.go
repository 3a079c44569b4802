package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inputprefs/internal/inputlist"
	"inputprefs/internal/profile"
)

var applyWatch bool

var applyCmd = &cobra.Command{
	Use:   "apply [profile]",
	Short: "Apply a declarative input method profile",
	Long: `Apply a profile listing the desired input methods in preference order.
Input methods the profile does not name are removed. Profiles may be TOML, JSON
or YAML and are validated before use.

With --watch, inputctl keeps running and re-applies the profile whenever it
changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		path := a.Config.Profile.Path
		if len(args) == 1 {
			path = args[0]
		}

		p, err := profile.Load(path)
		if err != nil {
			return err
		}
		res, report, err := a.ApplyProfile(p)
		if err := printApplied(cmd, res, report, err); err != nil && !(applyWatch || a.Config.Profile.Watch) {
			return err
		}

		if !applyWatch && !a.Config.Profile.Watch {
			return nil
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", path)
		return a.WatchProfile(ctx, path, func(res profile.Result, report *inputlist.CommitReport, err error) {
			if err := printApplied(cmd, res, report, err); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		})
	},
}

func init() {
	applyCmd.Flags().BoolVarP(&applyWatch, "watch", "w", false, "re-apply the profile whenever it changes")
	rootCmd.AddCommand(applyCmd)
}

func printApplied(cmd *cobra.Command, res profile.Result, report *inputlist.CommitReport, err error) error {
	for _, m := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped unknown input method %s/%s\n", m.Locale, m.Layout)
	}
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "already up to date")
		return nil
	}
	return printReport(cmd.OutOrStdout(), report)
}

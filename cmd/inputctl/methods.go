package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inputprefs/internal/app"
	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/inputlist"
)

var addDefault bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active input methods",
	Long:  `List the active input methods. The default is marked with an asterisk.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		l := a.List()
		defer l.Destroy()
		return printEntries(cmd.OutOrStdout(), l)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <locale> <layout>",
	Short: "Add an input method",
	Long: `Add an input method for a locale and keyboard layout, given as hexadecimal
ids (see "inputctl locales" and "inputctl layouts").

Examples:
  inputctl add 0407 0407            # German with the German layout
  inputctl add 0409 00010409        # English (US) with the Dvorak layout
  inputctl add 0411 E0010411 -d     # Japanese IME, made the default`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(a *app.App, l *inputlist.List) error {
			locale, layout, err := resolve(a.Catalog, args[0], args[1])
			if err != nil {
				return err
			}
			if !l.Add(locale, layout) {
				return fmt.Errorf("%s with %s is already installed", locale.Name, layout.Name)
			}
			if addDefault {
				l.SetDefault(l.Find(locale, layout))
			}
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <index> <locale> <layout>",
	Short: "Change the locale and layout of an input method",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(a *app.App, l *inputlist.List) error {
			e, err := entryAt(l, args[0])
			if err != nil {
				return err
			}
			locale, layout, err := resolve(a.Catalog, args[1], args[2])
			if err != nil {
				return err
			}
			if !l.Edit(e, locale, layout) {
				return fmt.Errorf("%s with %s is already installed", locale.Name, layout.Name)
			}
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <index>",
	Aliases: []string{"rm"},
	Short:   "Remove an input method",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(_ *app.App, l *inputlist.List) error {
			e, err := entryAt(l, args[0])
			if err != nil {
				return err
			}
			l.Remove(e)
			return nil
		})
	},
}

var defaultCmd = &cobra.Command{
	Use:   "default <index>",
	Short: "Make an input method the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(_ *app.App, l *inputlist.List) error {
			e, err := entryAt(l, args[0])
			if err != nil {
				return err
			}
			l.SetDefault(e)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted preference list and substitutes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		preload, err := a.Store.Preload()
		if err != nil {
			return fmt.Errorf("read preload: %w", err)
		}
		subs, err := a.Store.Substitutes()
		if err != nil {
			return fmt.Errorf("read substitutes: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(w, map[string]any{"preload": preload, "substitutes": subs})
		}
		for i, key := range preload {
			fmt.Fprintf(w, "%d  %s\n", i+1, key)
		}
		fmt.Fprintf(w, "substitutes: %s\n", formatSubstitutes(subs))
		return nil
	},
}

func init() {
	addCmd.Flags().BoolVarP(&addDefault, "default", "d", false, "make the new input method the default")
	rootCmd.AddCommand(listCmd, addCmd, editCmd, removeCmd, defaultCmd, showCmd)
}

// mutate runs change against the live list and commits it.
func mutate(cmd *cobra.Command, change func(*app.App, *inputlist.List) error) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	l := a.List()
	defer l.Destroy()

	if err := change(a, l); err != nil {
		return err
	}
	report, err := a.Commit(l)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report)
}

func resolve(cat *catalog.Catalog, localeArg, layoutArg string) (*catalog.Locale, *catalog.Layout, error) {
	localeID, err := hkl.ParseKey(localeArg)
	if err != nil {
		return nil, nil, fmt.Errorf("locale: %w", err)
	}
	layoutID, err := hkl.ParseKey(layoutArg)
	if err != nil {
		return nil, nil, fmt.Errorf("layout: %w", err)
	}
	locale := cat.FindLocale(localeID)
	if locale == nil {
		return nil, nil, fmt.Errorf("unknown locale %s", hkl.Key(localeID))
	}
	layout := cat.FindLayout(layoutID)
	if layout == nil {
		return nil, nil, fmt.Errorf("unknown layout %s", hkl.Key(layoutID))
	}
	return locale, layout, nil
}

// entryAt resolves a 1-based index as printed by "inputctl list".
func entryAt(l *inputlist.List, arg string) (*inputlist.Entry, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid index %q", arg)
	}
	entries := l.Entries()
	if i < 1 || i > len(entries) {
		return nil, fmt.Errorf("index %d out of range 1-%d", i, len(entries))
	}
	return entries[i-1], nil
}

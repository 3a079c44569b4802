package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"inputprefs/internal/inputlist"
)

type entryView struct {
	Index     int    `json:"index"`
	Indicator string `json:"indicator"`
	Locale    string `json:"locale"`
	Layout    string `json:"layout"`
	Key       string `json:"key"`
	Handle    string `json:"handle,omitempty"`
	State     string `json:"state"`
	Default   bool   `json:"default"`
}

func viewEntries(l *inputlist.List) []entryView {
	var out []entryView
	for i, e := range l.Entries() {
		v := entryView{
			Index:     i + 1,
			Indicator: e.Indicator(),
			Locale:    e.Locale().Name,
			Layout:    e.Layout().Name,
			Key:       e.Key(),
			State:     e.State().String(),
			Default:   e.IsDefault(),
		}
		if e.Handle().Valid() {
			v.Handle = e.Handle().String()
		}
		out = append(out, v)
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, l *inputlist.List) error {
	views := viewEntries(l)
	if jsonOutput {
		return printJSON(w, views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLANG\tLOCALE\tLAYOUT\tKEY\tHANDLE\t")
	for _, v := range views {
		mark := " "
		if v.Default {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s\t%s\t\n", v.Index, mark, v.Indicator, v.Locale, v.Layout, v.Key, v.Handle)
	}
	return tw.Flush()
}

type reportView struct {
	ID          string            `json:"id"`
	Preload     []string          `json:"preload"`
	Substitutes map[string]string `json:"substitutes"`
	Loaded      []string          `json:"loaded"`
	Unloaded    []string          `json:"unloaded"`
	Default     string            `json:"default,omitempty"`
	Failures    []string          `json:"failures,omitempty"`
}

// printReport prints what a commit applied and returns an error when part of it
// did not apply.
func printReport(w io.Writer, r *inputlist.CommitReport) error {
	v := reportView{ID: r.ID, Preload: r.Preload, Substitutes: r.Substitutes}
	for _, h := range r.Loaded {
		v.Loaded = append(v.Loaded, h.String())
	}
	for _, h := range r.Unloaded {
		v.Unloaded = append(v.Unloaded, h.String())
	}
	if r.Default.Valid() {
		v.Default = r.Default.String()
	}
	for _, f := range r.Failures {
		v.Failures = append(v.Failures, fmt.Sprintf("%s %s: %v", f.Step, f.Key, f.Err))
	}

	if jsonOutput {
		if err := printJSON(w, v); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "preload:     %v\n", v.Preload)
		fmt.Fprintf(w, "substitutes: %s\n", formatSubstitutes(v.Substitutes))
		if len(v.Loaded) > 0 {
			fmt.Fprintf(w, "loaded:      %v\n", v.Loaded)
		}
		if len(v.Unloaded) > 0 {
			fmt.Fprintf(w, "unloaded:    %v\n", v.Unloaded)
		}
		if v.Default != "" {
			fmt.Fprintf(w, "default:     %s\n", v.Default)
		}
		for _, f := range v.Failures {
			fmt.Fprintf(w, "failed:      %s\n", f)
		}
	}

	if !r.OK() {
		return fmt.Errorf("commit %s partially applied: %d step(s) failed", r.ID, len(r.Failures))
	}
	return nil
}

func formatSubstitutes(subs map[string]string) string {
	if len(subs) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += k + "=" + subs[k]
	}
	return s
}

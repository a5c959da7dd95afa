package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/config"
	"github.com/Digital-Shane/vod2strm/internal/export"
	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/Digital-Shane/vod2strm/internal/report"
	"github.com/spf13/cobra"
)

var inspectSample int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the exported trees without changing them",
	Long: `Walk the movie and series output directories of every account matching
XC_NAMES, count .strm, .nfo and artwork files and print a few sample folders
with the URL each .strm points at. No credentials are needed.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectSample, "sample", 3, "Number of folders to sample per tree")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	roots, err := accountRoots(cfg)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No exported accounts found.")
		return nil
	}

	th := report.NewTheme()
	out := cmd.OutOrStdout()
	for _, r := range roots {
		movies, err := library.Inspect(r.movies, inspectSample, cfg.CategoryDirs)
		if err != nil {
			return err
		}
		shows, err := library.Inspect(r.series, inspectSample, cfg.CategoryDirs)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, report.Inspection(th, label(r.account, "Movies"), "movie", movies))
		fmt.Fprintln(out, report.Inspection(th, label(r.account, "Series"), "show", shows))
	}
	return nil
}

func label(account, kind string) string {
	if account == "" {
		return kind
	}
	return account + " / " + kind
}

type roots struct {
	account string
	movies  string
	series  string
}

// accountRoots finds the output roots of every account directory on disk
// whose name matches XC_NAMES. Without the account placeholder in the
// templates there is a single unnamed root pair.
func accountRoots(cfg *config.Config) ([]roots, error) {
	if !strings.Contains(cfg.MoviesDir, config.AccountPlaceholder) && !strings.Contains(cfg.SeriesDir, config.AccountPlaceholder) {
		return []roots{{movies: cfg.MoviesDir, series: cfg.SeriesDir}}, nil
	}

	seen := map[string]bool{}
	var found []media.Account
	for _, tmpl := range []string{cfg.MoviesDir, cfg.SeriesDir} {
		values, err := placeholderValues(tmpl)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				found = append(found, media.Account{Name: v})
			}
		}
	}
	if len(found) == 0 {
		return nil, nil
	}

	selected, err := export.SelectAccounts(found, cfg.AccountNames)
	if err != nil {
		return nil, nil
	}
	out := make([]roots, 0, len(selected))
	for _, a := range selected {
		out = append(out, roots{account: a.Name, movies: cfg.MoviesRoot(a.Name), series: cfg.SeriesRoot(a.Name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].account < out[j].account })
	return out, nil
}

// placeholderValues returns the values the account placeholder takes in
// existing directories matching tmpl. The placeholder must sit inside a
// single path component.
func placeholderValues(tmpl string) ([]string, error) {
	before, after, ok := strings.Cut(tmpl, config.AccountPlaceholder)
	if !ok {
		return nil, nil
	}
	parent, head := filepath.Split(before)
	tail, _, _ := strings.Cut(after, string(filepath.Separator))
	if parent == "" {
		parent = "."
	}

	entries, err := os.ReadDir(parent)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !strings.HasPrefix(name, head) || !strings.HasSuffix(name, tail) || len(name) <= len(head)+len(tail) {
			continue
		}
		v := name[len(head) : len(name)-len(tail)]
		if _, err := os.Stat(strings.ReplaceAll(tmpl, config.AccountPlaceholder, v)); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

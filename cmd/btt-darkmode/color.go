package main

import (
	"fmt"
	"os"
	"strings"

	bttdarkmode "github.com/btt-go/btt-darkmode"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newColorCmd(a *app) *cobra.Command {
	var mode, filterFile string
	var showFilter bool

	cmd := &cobra.Command{
		Use:   "color <role> [color...]",
		Short: "Print themed colors",
		Long: `Remap colors for a role (background, foreground, border, light-scheme,
shadow, gradient, filter) using the filter config. Each line of output is the
input color and its themed value separated by a tab.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.filterConfig()
			if err != nil {
				return err
			}
			if filterFile != "" {
				data, err := os.ReadFile(filterFile)
				if err != nil {
					return err
				}
				format := bttdarkmode.ConfigFormatJSON
				if strings.HasSuffix(filterFile, ".toml") {
					format = bttdarkmode.ConfigFormatTOML
				}
				if cfg, err = bttdarkmode.DecodeFilterConfig(data, format); err != nil {
					return fmt.Errorf("%s: %w", filterFile, err)
				}
			}
			if mode != "" {
				m, ok := bttdarkmode.ParseMode(mode)
				if !ok {
					return fmt.Errorf("unknown mode %q", mode)
				}
				cfg.Mode = m
			}

			role, ok := bttdarkmode.ParseRole(args[0])
			if !ok {
				return fmt.Errorf("unknown role %q", args[0])
			}
			session, err := bttdarkmode.NewSession(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showFilter {
				fmt.Fprintf(out, "css-filter\t%s\n", bttdarkmode.CSSFilterValue(cfg))
				fmt.Fprintf(out, "svg-matrix\t%s\n", bttdarkmode.SVGMatrixValue(bttdarkmode.ComposeFilter(cfg)))
			}
			for _, c := range args[1:] {
				themed, err := session.Color(role, c)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", c, themed)
			}
			a.logger.Debug("themed colors",
				zap.Stringer("role", role),
				zap.Stringer("mode", cfg.Mode),
				zap.Int("cached", session.Cache().Len()),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "override the theme mode (dark, light)")
	cmd.Flags().StringVar(&filterFile, "filter-file", "", "filter config file (.json or .toml) replacing the config's filter section")
	cmd.Flags().BoolVar(&showFilter, "filter", false, "also print the css filter and svg color matrix")
	return cmd
}

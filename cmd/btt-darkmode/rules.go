package main

import (
	"errors"
	"fmt"
	"os"

	bttdarkmode "github.com/btt-go/btt-darkmode"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFmtCmd(a *app) *cobra.Command {
	var schemaName string
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Format a rule table",
		Long: `Parse a rule table and print it in canonical form: rules sorted by their
first url pattern (the common "*" rule stays first), commands in schema order.
The schema is taken from --schema or from the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			schema, err := schemaFor(schemaName, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			rules := bttdarkmode.ParseRuleTable(string(data), schema)
			for i := range rules {
				rules[i].URL = bttdarkmode.CleanPatterns(rules[i].URL, a.logger)
			}
			out := bttdarkmode.FormatRuleTable(rules, schema)
			if err := bttdarkmode.ValidateRuleTable(bttdarkmode.ParseRuleTable(out, schema)); err != nil {
				a.logger.Warn("rule table is malformed", zap.String("file", path), zap.Error(err))
			}
			if !write {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
				return err
			}
			a.logger.Info("formatted rule table", zap.String("file", path), zap.Int("rules", len(rules)))
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", "", "rule table schema (inversion-fixes, dynamic-theme-fixes, static-themes)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var schemaName, url, frameURL string

	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Print the merged rule for a url",
		Long: `Resolve the most specific rule for --url (or --frame-url when given) and
print it merged with the common rule. Without a file the rule table named by
--schema is read from redis.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return errors.New("--url is required")
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			schema, err := schemaFor(schemaName, path)
			if err != nil {
				return err
			}

			var rule *bttdarkmode.SiteRule
			if path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				text, err := bttdarkmode.CanonicalizeRuleTable(schema.Name, string(data))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rule = bttdarkmode.Resolve(schema, bttdarkmode.ParseRuleTable(text, schema), url, frameURL)
			} else {
				rdb := a.redisClient()
				defer rdb.Close()
				store, err := bttdarkmode.New(rdb, a.v.GetInt("version"), bttdarkmode.WithLogger(a.logger))
				if err != nil {
					return err
				}
				if rule, err = store.Resolve(schema.Name, url, frameURL); err != nil {
					return err
				}
			}

			target := url
			if frameURL != "" {
				target = frameURL
			}
			a.logger.Debug("resolved rule",
				zap.String("site", bttdarkmode.HostOrProtocol(target)),
				zap.Strings("patterns", rule.URL),
			)
			_, err = fmt.Fprint(cmd.OutOrStdout(), bttdarkmode.FormatRuleTable([]bttdarkmode.SiteRule{*rule}, schema))
			return err
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", "", "rule table schema (defaults to the file name)")
	cmd.Flags().StringVar(&url, "url", "", "page url")
	cmd.Flags().StringVar(&frameURL, "frame-url", "", "frame url, used instead of --url when set")
	return cmd
}

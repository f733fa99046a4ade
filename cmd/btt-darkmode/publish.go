package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	bttdarkmode "github.com/btt-go/btt-darkmode"
	"github.com/spf13/cobra"
)

func newPublishCmd(a *app) *cobra.Command {
	var tables, deletes []string
	var fullReplace bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish rule tables to redis",
		Long: `Publish rule tables for --table-version. Each --table is name=file where
name is a schema name. Tables not named are kept unless --full-replace is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(tables) == 0 && len(deletes) == 0 && !fullReplace {
				return errors.New("nothing to publish")
			}

			req := bttdarkmode.PublishRequest{
				FullReplace: fullReplace,
				Tables:      make(map[string]string, len(tables)),
				Deletes:     deletes,
			}
			for _, arg := range tables {
				name, path, ok := strings.Cut(arg, "=")
				if !ok || name == "" || path == "" {
					return fmt.Errorf("invalid --table %q, want name=file", arg)
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				req.Tables[name] = string(data)
			}

			rdb := a.redisClient()
			defer rdb.Close()
			p := bttdarkmode.NewPublisher(rdb, a.v.GetInt("version"), bttdarkmode.WithLogger(a.logger))
			allHash, err := p.Publish(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), allHash)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&tables, "table", nil, "rule table to publish as name=file (repeatable)")
	cmd.Flags().StringSliceVar(&deletes, "delete", nil, "rule table names to delete")
	cmd.Flags().BoolVar(&fullReplace, "full-replace", false, "replace all tables of the version")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow rule table updates in redis",
		Long:  `Load the rule tables of --table-version and print a line each time a new snapshot is loaded.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			printSnapshot := func(ss *bttdarkmode.Snapshot) {
				fmt.Fprintf(out, "%d\t%s\t%d tables\n", ss.Version, ss.AllHash, len(ss.Tables))
			}

			rdb := a.redisClient()
			defer rdb.Close()
			store, err := bttdarkmode.New(rdb, a.v.GetInt("version"),
				bttdarkmode.WithLogger(a.logger),
				bttdarkmode.WithOnReload(printSnapshot),
			)
			if err != nil {
				return err
			}

			if err := store.Watch(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

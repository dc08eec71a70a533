package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/seqgate/internal/control"
	"github.com/vietddude/seqgate/internal/health"
	"github.com/vietddude/seqgate/internal/infra/storage"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled submissions for the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				subs, err := c.History(ctx, limit)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), subs)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SUBMITTED\tKIND\tTX_HASH\tTARGET\tSTATUS\tREASON")
				for _, s := range subs {
					target := string(s.ContractAddress)
					if s.EntryPoint != "" {
						target += "." + s.EntryPoint
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						s.SubmittedAt.Format(time.RFC3339), s.Kind, s.TxHash, target, s.Status, s.FailureReason)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "maximum number of entries")
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check transports and backing stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				report := c.Health(ctx)
				if opts.asJSON {
					if err := printJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else {
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintf(w, "SYSTEM\t%s\n", report.SystemStatus)
					for name, comp := range report.Components {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, comp.Kind, comp.Status, comp.Error)
					}
					if err := w.Flush(); err != nil {
						return err
					}
				}
				if report.SystemStatus == health.StatusCritical {
					return fmt.Errorf("system is %s", report.SystemStatus)
				}
				return nil
			})
		},
	}
}

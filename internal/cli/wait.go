package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/seqgate/internal/control"
	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/waittx"
)

type waitFlags struct {
	timeout     time.Duration
	maxAttempts int
	interval    time.Duration
	requireL1   bool
}

func (f *waitFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "give up after this long (0 keeps the configured budget)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "give up after this many polls (0 keeps the configured budget)")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "time between polls (0 keeps the configured interval)")
	cmd.Flags().BoolVar(&f.requireL1, "require-l1", false, "wait for ACCEPTED_ON_L1")
}

func (f *waitFlags) options(cmd *cobra.Command) []waittx.Option {
	var opts []waittx.Option
	if f.timeout > 0 {
		opts = append(opts, waittx.WithTimeout(f.timeout))
	}
	if f.maxAttempts > 0 {
		opts = append(opts, waittx.WithMaxAttempts(f.maxAttempts))
	}
	if f.interval > 0 {
		opts = append(opts, waittx.WithInterval(f.interval))
	}
	if cmd.Flags().Changed("require-l1") {
		opts = append(opts, waittx.WithRequireL1(f.requireL1))
	}
	return opts
}

func newWaitCmd(opts *options) *cobra.Command {
	flags := &waitFlags{}
	cmd := &cobra.Command{
		Use:   "wait <tx_hash>...",
		Short: "Wait for transactions to be accepted or rejected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashes := make([]domain.TxHash, len(args))
			for i, a := range args {
				hashes[i] = domain.TxHash(a)
			}
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				return waitAndPrint(ctx, cmd, opts, c, hashes, flags.options(cmd)...)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

type waitOutput struct {
	Hash   domain.TxHash          `json:"transaction_hash"`
	Status *domain.StatusResponse `json:"status,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// waitAndPrint waits for every hash and prints one line per result. It
// fails when any hash did not reach an accepted status.
func waitAndPrint(
	ctx context.Context,
	cmd *cobra.Command,
	opts *options,
	c *control.Client,
	hashes []domain.TxHash,
	waitOpts ...waittx.Option,
) error {
	results := c.WaitAll(ctx, hashes, waitOpts...)

	var errs []error
	outputs := make([]waitOutput, len(results))
	for i, r := range results {
		outputs[i] = waitOutput{Hash: r.Hash, Status: r.Status}
		if r.Err != nil {
			outputs[i].Error = r.Err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", r.Hash, r.Err))
		}
	}

	if opts.asJSON {
		if err := printJSON(cmd.OutOrStdout(), outputs); err != nil {
			return err
		}
	} else {
		for _, o := range outputs {
			if o.Status != nil {
				printStatus(cmd, o.Hash, o.Status)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tERROR\t%s\n", o.Hash, o.Error)
		}
	}
	return errors.Join(errs...)
}

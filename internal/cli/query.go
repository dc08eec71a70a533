package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/seqgate/internal/control"
	"github.com/vietddude/seqgate/internal/core/domain"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <tx_hash>",
		Short: "Show the status of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := domain.TxHash(args[0])
			if err := domain.ValidateTxHash(hash); err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				resp, err := c.Status(ctx, hash)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				printStatus(cmd, hash, resp)
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, hash domain.TxHash, resp *domain.StatusResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\t%s", hash, resp.Status)
	if resp.BlockHash != "" {
		fmt.Fprintf(out, "\tblock=%s", resp.BlockHash)
	}
	if resp.FailureReason != nil {
		fmt.Fprintf(out, "\treason=%q", resp.FailureReason.String())
	}
	fmt.Fprintln(out)
}

func newTraceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <tx_hash>",
		Short: "Show the execution trace of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := domain.TxHash(args[0])
			if err := domain.ValidateTxHash(hash); err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				trace, err := c.Trace(ctx, hash)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), trace)
			})
		},
	}
}

func newCodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "code <address>",
		Short: "Show the bytecode and ABI deployed at an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := domain.Address(args[0])
			if err := domain.ValidateAddress(address); err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				code, err := c.Code(ctx, address)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), code)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "bytecode: %d words\n", len(code.Bytecode))
				if len(code.ABI) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "abi: %s\n", code.ABI)
				}
				return nil
			})
		},
	}
}

func newAddressesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "addresses",
		Short: "Show the network's L1 system contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				addrs, err := c.ContractAddresses(ctx)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), addrs)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Starknet: %s\nGpsStatementVerifier: %s\n",
					addrs.Starknet, addrs.GpsStatementVerifier)
				return nil
			})
		},
	}
}

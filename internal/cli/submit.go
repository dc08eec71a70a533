package cli

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/vietddude/seqgate/internal/control"
	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/network"
)

func newDeployCmd(opts *options) *cobra.Command {
	var (
		salt string
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "deploy <compiled.json> [constructor-args...]",
		Short: "Deploy a compiled contract",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := loadCompiled(args[0])
			if err != nil {
				return err
			}
			ctorArgs, err := parseArgs(args[1:])
			if err != nil {
				return err
			}
			var saltValue *big.Int
			if salt != "" {
				if saltValue, err = domain.ToFelt(salt); err != nil {
					return fmt.Errorf("%w: salt: %w", domain.ErrEncoding, err)
				}
			}

			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				res, err := c.Deploy(ctx, compiled, saltValue, ctorArgs...)
				if err != nil {
					return err
				}
				if opts.asJSON {
					if err := printJSON(cmd.OutOrStdout(), res); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "transaction_hash: %s\ncontract_address: %s\n",
						res.TransactionHash, res.ContractAddress)
				}
				if wait {
					return waitAndPrint(ctx, cmd, opts, c, []domain.TxHash{res.TransactionHash})
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "contract address salt (random when empty)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the deployment to be accepted")
	return cmd
}

func newInvokeCmd(opts *options) *cobra.Command {
	var (
		abiPath   string
		signature []string
		wait      bool
	)
	cmd := &cobra.Command{
		Use:   "invoke <address> <function> [args...]",
		Short: "Invoke a state-changing contract function",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, name := domain.Address(args[0]), args[1]

			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				var (
					res *domain.InvokeResult
					err error
				)
				if abiPath != "" {
					res, err = invokeWithABI(ctx, c, abiPath, address, name, signature, args[2:])
				} else {
					var calldata []*big.Int
					if calldata, err = parseFelts(args[2:]); err != nil {
						return err
					}
					res, err = c.InvokeRaw(ctx, network.InvokeRequest{
						Address:    address,
						EntryPoint: name,
						Calldata:   calldata,
						Signature:  signature,
					})
				}
				if err != nil {
					return err
				}

				if opts.asJSON {
					if err := printJSON(cmd.OutOrStdout(), res); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "transaction_hash: %s\n", res.TransactionHash)
				}
				if wait {
					return waitAndPrint(ctx, cmd, opts, c, []domain.TxHash{res.TransactionHash})
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&abiPath, "abi", "", "ABI file used to encode arguments")
	cmd.Flags().StringSliceVar(&signature, "signature", nil, "signature felts, passed through unchanged")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the transaction to be accepted")
	return cmd
}

func invokeWithABI(
	ctx context.Context,
	c *control.Client,
	abiPath string,
	address domain.Address,
	name string,
	signature []string,
	rawArgs []string,
) (*domain.InvokeResult, error) {
	doc, err := loadABI(abiPath)
	if err != nil {
		return nil, err
	}
	ct, err := c.Contract(address, doc)
	if err != nil {
		return nil, err
	}
	callArgs, err := parseArgs(rawArgs)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, ct, name, signature, callArgs...)
}

func newCallCmd(opts *options) *cobra.Command {
	var abiPath string
	cmd := &cobra.Command{
		Use:   "call <address> <function> [args...]",
		Short: "Call a contract function against pending state",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, name := domain.Address(args[0]), args[1]

			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				if abiPath == "" {
					calldata, err := parseFelts(args[2:])
					if err != nil {
						return err
					}
					raw, err := c.CallRaw(ctx, network.CallRequest{Address: address, EntryPoint: name, Calldata: calldata})
					if err != nil {
						return err
					}
					if opts.asJSON {
						return printJSON(cmd.OutOrStdout(), map[string]any{"result": feltStrings(raw)})
					}
					for _, v := range feltStrings(raw) {
						fmt.Fprintln(cmd.OutOrStdout(), v)
					}
					return nil
				}

				doc, err := loadABI(abiPath)
				if err != nil {
					return err
				}
				ct, err := c.Contract(address, doc)
				if err != nil {
					return err
				}
				callArgs, err := parseArgs(args[2:])
				if err != nil {
					return err
				}
				result, err := c.Call(ctx, ct, name, callArgs...)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), result)
				}
				out, err := result.MarshalJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&abiPath, "abi", "", "ABI file used to encode arguments and decode the result")
	return cmd
}

func newExecCmd(opts *options) *cobra.Command {
	var (
		abiPath   string
		signature []string
		wait      bool
	)
	cmd := &cobra.Command{
		Use:   "exec <address> <function> [args...]",
		Short: "Call a view function or invoke a state-changing one, as the ABI declares",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadABI(abiPath)
			if err != nil {
				return err
			}
			callArgs, err := parseArgs(args[2:])
			if err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, c *control.Client) error {
				ct, err := c.Contract(domain.Address(args[0]), doc)
				if err != nil {
					return err
				}
				out, err := c.Execute(ctx, ct, args[1], signature, callArgs...)
				if err != nil {
					return err
				}

				if out.Result != nil {
					if opts.asJSON {
						return printJSON(cmd.OutOrStdout(), out.Result)
					}
					data, err := out.Result.MarshalJSON()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}

				if opts.asJSON {
					if err := printJSON(cmd.OutOrStdout(), out.Tx); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "transaction_hash: %s\n", out.Tx.TransactionHash)
				}
				if wait {
					return waitAndPrint(ctx, cmd, opts, c, []domain.TxHash{out.Tx.TransactionHash})
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&abiPath, "abi", "", "ABI file describing the function (required)")
	cmd.Flags().StringSliceVar(&signature, "signature", nil, "signature felts for invokes, passed through unchanged")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for an invoke to be accepted")
	_ = cmd.MarkFlagRequired("abi")
	return cmd
}

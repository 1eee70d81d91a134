package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableswapDeployer/internal/events"
	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
	"stableswapDeployer/internal/workflow"
)

// op is a single transaction submitted outside the full workflow.
type op struct {
	step   string
	swap   bool
	fields []events.Field
	build  func(s *session) ([]model.Msg, error)
}

func opCommands() []*cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store-code",
		Short: "Upload contract bytecode and print its code id",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			path, _ := cmd.Flags().GetString("wasm")
			if path == "" {
				return op{}, fmt.Errorf("--wasm is required")
			}
			return op{
				step:   "store_code",
				fields: []events.Field{events.CodeID},
				build: func(s *session) ([]model.Msg, error) {
					wasm, err := os.ReadFile(path)
					if err != nil {
						return nil, fmt.Errorf("read %s: %w", path, err)
					}
					msg, err := terraswap.StoreCode(s.wallet.Address(), wasm)
					return []model.Msg{msg}, err
				},
			}, nil
		}),
	}
	storeCmd.Flags().String("wasm", "", "wasm bytecode path")

	tokenCmd := &cobra.Command{
		Use:   "init-token",
		Short: "Instantiate a CW20 token minted to the sender",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			codeID, _ := cmd.Flags().GetUint64("code-id")
			name, _ := cmd.Flags().GetString("name")
			symbol, _ := cmd.Flags().GetString("symbol")
			decimals, _ := cmd.Flags().GetUint8("decimals")
			supply, _ := cmd.Flags().GetString("supply")
			if symbol == "" {
				return op{}, fmt.Errorf("--symbol is required")
			}
			return op{
				step:   workflow.InstantiateTokenStep(symbol),
				fields: []events.Field{events.ContractAddress},
				build: func(s *session) ([]model.Msg, error) {
					sender := s.wallet.Address()
					msg, err := terraswap.InstantiateToken(sender, sender, codeID, terraswap.TokenParams{
						Name:            name,
						Symbol:          symbol,
						Decimals:        decimals,
						InitialBalances: []terraswap.InitialBalance{{Address: sender, Amount: supply}},
					})
					return []model.Msg{msg}, err
				},
			}, nil
		}),
	}
	tokenCmd.Flags().Uint64("code-id", 0, "token code id")
	tokenCmd.Flags().String("name", "", "token name")
	tokenCmd.Flags().String("symbol", "", "token symbol")
	tokenCmd.Flags().Uint8("decimals", 6, "token decimals")
	tokenCmd.Flags().String("supply", "1000000", "initial supply minted to the sender")

	poolCmd := &cobra.Command{
		Use:   "init-pool",
		Short: "Instantiate a stable-swap pool",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			codeID, _ := cmd.Flags().GetUint64("code-id")
			tokenCodeID, _ := cmd.Flags().GetUint64("token-code-id")
			refs, _ := cmd.Flags().GetStringSlice("asset")
			return op{
				step:   workflow.StepInstantiatePool,
				fields: []events.Field{events.PoolContract, events.LiquidityToken},
				build: func(s *session) ([]model.Msg, error) {
					infos := make([]model.AssetInfo, 0, len(refs))
					for _, ref := range refs {
						info, err := parseAssetInfo(ref, s.cfg.Signer.Prefix)
						if err != nil {
							return nil, err
						}
						infos = append(infos, info)
					}
					sender := s.wallet.Address()
					msg, err := terraswap.InstantiatePool(sender, sender, codeID, terraswap.PoolParams{
						AssetInfos:    infos,
						Amplification: s.cfg.Scenario.Amplification,
						Fee:           s.cfg.Scenario.PoolFee,
						TokenCodeID:   tokenCodeID,
						InitHook:      s.cfg.Scenario.InitHook,
					})
					return []model.Msg{msg}, err
				},
			}, nil
		}),
	}
	poolCmd.Flags().Uint64("code-id", 0, "pool code id")
	poolCmd.Flags().Uint64("token-code-id", 0, "code id used for the LP token")
	poolCmd.Flags().StringSlice("asset", nil, "pool assets, token address or native denom")
	poolCmd.Flags().String("amplification", "60", "amplification coefficient")
	poolCmd.Flags().String("pool-fee", "4", "pool fee")
	poolCmd.Flags().String("init-hook-contract", "", "contract called by the pool after instantiation")
	poolCmd.Flags().String("init-hook-msg", "", "base64 message for the init hook")

	provideCmd := &cobra.Command{
		Use:   "provide",
		Short: "Approve and provide liquidity in one transaction",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			pool, _ := cmd.Flags().GetString("pool")
			items, _ := cmd.Flags().GetStringSlice("asset")
			minOut, _ := cmd.Flags().GetString("min-out")
			receiver, _ := cmd.Flags().GetString("receiver")
			if err := terraswap.ValidateMinOut(minOut); err != nil {
				return op{}, err
			}
			return op{
				step: workflow.StepProvideLiquidity,
				build: func(s *session) ([]model.Msg, error) {
					assets, err := parseAssets(items, s.cfg.Signer.Prefix)
					if err != nil {
						return nil, err
					}
					return terraswap.ProvideLiquidityBatch(s.wallet.Address(), pool, assets, minOut, receiver)
				},
			}, nil
		}),
	}
	provideCmd.Flags().String("pool", "", "pool contract address")
	provideCmd.Flags().StringSlice("asset", nil, "assets as ref=amount")
	provideCmd.Flags().String("min-out", "", "minimum LP tokens minted (required)")
	provideCmd.Flags().String("receiver", "", "LP token receiver (default sender)")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn LP tokens for a proportional share of every asset",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			pool, _ := cmd.Flags().GetString("pool")
			lpToken, _ := cmd.Flags().GetString("lp-token")
			amount, _ := cmd.Flags().GetString("amount")
			return op{
				step: workflow.StepWithdraw,
				build: func(s *session) ([]model.Msg, error) {
					msg, err := terraswap.WithdrawLiquidity(s.wallet.Address(), lpToken, pool, amount)
					return []model.Msg{msg}, err
				},
			}, nil
		}),
	}
	withdrawCmd.Flags().String("pool", "", "pool contract address")
	withdrawCmd.Flags().String("lp-token", "", "LP token address")
	withdrawCmd.Flags().String("amount", "", "LP amount")

	withdrawSingleCmd := &cobra.Command{
		Use:   "withdraw-single",
		Short: "Burn LP tokens for one asset",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			pool, _ := cmd.Flags().GetString("pool")
			lpToken, _ := cmd.Flags().GetString("lp-token")
			amount, _ := cmd.Flags().GetString("amount")
			ask, _ := cmd.Flags().GetString("ask")
			minOut, _ := cmd.Flags().GetString("min-out")
			if err := terraswap.ValidateMinOut(minOut); err != nil {
				return op{}, err
			}
			return op{
				step: workflow.StepWithdrawSingle,
				build: func(s *session) ([]model.Msg, error) {
					info, err := parseAssetInfo(ask, s.cfg.Signer.Prefix)
					if err != nil {
						return nil, err
					}
					msg, err := terraswap.WithdrawSingleAsset(s.wallet.Address(), lpToken, pool, amount, info, minOut)
					return []model.Msg{msg}, err
				},
			}, nil
		}),
	}
	withdrawSingleCmd.Flags().String("pool", "", "pool contract address")
	withdrawSingleCmd.Flags().String("lp-token", "", "LP token address")
	withdrawSingleCmd.Flags().String("amount", "", "LP amount")
	withdrawSingleCmd.Flags().String("ask", "", "asset received, token address or native denom")
	withdrawSingleCmd.Flags().String("min-out", "", "minimum asset returned (required)")

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one pool asset for another",
		RunE: opRunner(func(cmd *cobra.Command) (op, error) {
			pool, _ := cmd.Flags().GetString("pool")
			offer, _ := cmd.Flags().GetString("offer")
			amount, _ := cmd.Flags().GetString("amount")
			ask, _ := cmd.Flags().GetString("ask")
			minOut, _ := cmd.Flags().GetString("min-out")
			to, _ := cmd.Flags().GetString("to")
			if err := terraswap.ValidateMinOut(minOut); err != nil {
				return op{}, err
			}
			return op{
				step: workflow.StepSwap,
				swap: true,
				build: func(s *session) ([]model.Msg, error) {
					offerInfo, err := parseAssetInfo(offer, s.cfg.Signer.Prefix)
					if err != nil {
						return nil, err
					}
					askInfo, err := parseAssetInfo(ask, s.cfg.Signer.Prefix)
					if err != nil {
						return nil, err
					}
					msg, err := terraswap.Swap(s.wallet.Address(), pool, model.Asset{Info: offerInfo, Amount: amount}, askInfo, minOut, to)
					return []model.Msg{msg}, err
				},
			}, nil
		}),
	}
	swapCmd.Flags().String("pool", "", "pool contract address")
	swapCmd.Flags().String("offer", "", "offered asset, token address or native denom")
	swapCmd.Flags().String("amount", "", "offered amount")
	swapCmd.Flags().String("ask", "", "asked asset, token address or native denom")
	swapCmd.Flags().String("min-out", "", "minimum ask amount returned (required)")
	swapCmd.Flags().String("to", "", "recipient of the ask asset (default sender)")

	return []*cobra.Command{storeCmd, tokenCmd, poolCmd, provideCmd, withdrawCmd, withdrawSingleCmd, swapCmd}
}

// opRunner validates flags before any connection is made, then submits the op.
func opRunner(prepare func(cmd *cobra.Command) (op, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		o, err := prepare(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()

		fee := s.cfg.Scenario.Fees.Default
		if o.swap {
			fee = s.cfg.Scenario.Fees.Swap
		}

		res, err := s.driver.Submit(ctx, o.step, func() ([]model.Msg, error) { return o.build(s) }, fee, o.fields...)
		s.recorder.RunFinished(err == nil)
		if err != nil {
			return err
		}

		s.logger.Info("op complete", zap.String("step", o.step), zap.String("tx_hash", res.TxHash))
		return printJSON(struct {
			RunID   string            `json:"run_id"`
			Step    string            `json:"step"`
			TxHash  string            `json:"tx_hash"`
			Height  string            `json:"height"`
			Outputs map[string]string `json:"outputs,omitempty"`
		}{s.driver.RunID(), res.Step, res.TxHash, res.Height, res.Outputs})
	}
}

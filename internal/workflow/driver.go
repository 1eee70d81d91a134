package workflow

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stableswapDeployer/internal/events"
	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
)

// Ledger signs and broadcasts transactions for one sender.
type Ledger interface {
	Address() string
	ChainID() string
	Sign(ctx context.Context, msgs []model.Msg, fee model.Fee) (model.SignedTx, error)
	Broadcast(ctx context.Context, tx model.SignedTx) (model.TxResult, error)
}

// Confirmer is implemented by ledgers that can tell whether a tx whose
// broadcast got no response was committed anyway. landed with an empty result
// means the tx was committed but could not be looked up.
type Confirmer interface {
	Confirm(ctx context.Context, tx model.SignedTx) (result model.TxResult, landed bool, err error)
}

// Journal receives one record per executed or skipped step.
type Journal interface {
	Record(ctx context.Context, record model.StepRecord) error
}

// Observer is notified of every step record, e.g. for metrics.
type Observer interface {
	ObserveStep(record model.StepRecord)
}

// Config holds runtime settings for the driver.
type Config struct {
	Scenario     Scenario
	ManifestPath string
	Resume       bool
	MaxRetries   int
	RetryBackoff time.Duration
	// ReadArtifact loads wasm bytecode; os.ReadFile when nil.
	ReadArtifact func(path string) ([]byte, error)
}

// Outcome collects what a run produced.
type Outcome struct {
	RunID       string               `json:"run_id"`
	ChainID     string               `json:"chain_id"`
	Sender      string               `json:"sender"`
	TokenCodeID uint64               `json:"token_code_id,omitempty"`
	PoolCodeID  uint64               `json:"pool_code_id,omitempty"`
	Tokens      map[string]string    `json:"tokens,omitempty"`
	Pool        model.PoolDescriptor `json:"pool"`
	TxHashes    map[string]string    `json:"tx_hashes,omitempty"`
	Results     []StepResult         `json:"-"`
}

// Driver runs provisioning steps against a Ledger.
type Driver struct {
	cfg      Config
	ledger   Ledger
	journal  Journal
	observer Observer
	logger   *zap.Logger
	manifest *ManifestStore

	runID string
	state Manifest
}

// NewDriver builds a Driver with its dependencies. journal and observer may be nil.
func NewDriver(cfg Config, ledger Ledger, journal Journal, observer Observer, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadArtifact == nil {
		cfg.ReadArtifact = os.ReadFile
	}
	return &Driver{
		cfg:      cfg,
		ledger:   ledger,
		journal:  journal,
		observer: observer,
		logger:   logger,
		manifest: NewManifestStore(cfg.ManifestPath, cfg.ManifestPath != ""),
	}
}

// Run executes the full scenario. The first failing step stops the run; its
// *StepError is returned together with the partial outcome.
func (d *Driver) Run(ctx context.Context) (Outcome, error) {
	if d.ledger == nil {
		return Outcome{}, fmt.Errorf("ledger is nil")
	}
	sc := d.cfg.Scenario
	if err := sc.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := d.begin(); err != nil {
		return Outcome{}, err
	}

	sender := d.ledger.Address()
	out := Outcome{
		RunID:    d.runID,
		ChainID:  d.ledger.ChainID(),
		Sender:   sender,
		Tokens:   make(map[string]string, len(sc.Tokens)),
		TxHashes: make(map[string]string),
	}

	d.logger.Info("run start",
		zap.String("run_id", d.runID),
		zap.String("chain_id", out.ChainID),
		zap.String("sender", sender),
		zap.Int("tokens", len(sc.Tokens)),
		zap.Bool("resume", d.cfg.Resume),
	)

	record := func(res StepResult, err error) error {
		out.Results = append(out.Results, res)
		if res.TxHash != "" {
			out.TxHashes[res.Step] = res.TxHash
		}
		return err
	}

	tokenCode, err := d.storeCode(ctx, StepStoreTokenCode, sc.TokenWasm)
	if err := record(tokenCode, err); err != nil {
		return out, err
	}
	if out.TokenCodeID, err = terraswap.ParseCodeID(tokenCode.Outputs[events.CodeID.Name]); err != nil {
		return out, err
	}
	d.logger.Info("token code id", zap.Uint64("code_id", out.TokenCodeID))

	poolCode, err := d.storeCode(ctx, StepStorePoolCode, sc.PoolWasm)
	if err := record(poolCode, err); err != nil {
		return out, err
	}
	if out.PoolCodeID, err = terraswap.ParseCodeID(poolCode.Outputs[events.CodeID.Name]); err != nil {
		return out, err
	}
	d.logger.Info("pool code id", zap.Uint64("code_id", out.PoolCodeID))

	tokenAddrs := make([]string, 0, len(sc.Tokens))
	for _, token := range sc.Tokens {
		token := token
		res, err := d.Submit(ctx, InstantiateTokenStep(token.Symbol), func() ([]model.Msg, error) {
			msg, err := terraswap.InstantiateToken(sender, sender, out.TokenCodeID, terraswap.TokenParams{
				Name:            token.Name,
				Symbol:          token.Symbol,
				Decimals:        token.Decimals,
				InitialBalances: []terraswap.InitialBalance{{Address: sender, Amount: token.Supply}},
			})
			return []model.Msg{msg}, err
		}, sc.Fees.Default, events.ContractAddress)
		if err := record(res, err); err != nil {
			return out, err
		}
		addr := res.Outputs[events.ContractAddress.Name]
		out.Tokens[token.Symbol] = addr
		tokenAddrs = append(tokenAddrs, addr)
		d.logger.Info("token address", zap.String("symbol", token.Symbol), zap.String("address", addr))
	}

	res, err := d.Submit(ctx, StepInstantiatePool, func() ([]model.Msg, error) {
		infos := make([]model.AssetInfo, 0, len(tokenAddrs))
		for _, addr := range tokenAddrs {
			infos = append(infos, model.TokenAsset(addr))
		}
		msg, err := terraswap.InstantiatePool(sender, sender, out.PoolCodeID, terraswap.PoolParams{
			AssetInfos:    infos,
			Amplification: sc.Amplification,
			Fee:           sc.PoolFee,
			TokenCodeID:   out.TokenCodeID,
			InitHook:      sc.InitHook,
		})
		return []model.Msg{msg}, err
	}, sc.Fees.Default, events.PoolContract, events.LiquidityToken)
	if err := record(res, err); err != nil {
		return out, err
	}
	out.Pool = model.PoolDescriptor{
		Contract:       res.Outputs[events.PoolContract.Name],
		LiquidityToken: res.Outputs[events.LiquidityToken.Name],
	}
	d.logger.Info("pool", zap.String("contract", out.Pool.Contract), zap.String("lp_token", out.Pool.LiquidityToken))

	res, err = d.Submit(ctx, StepProvideLiquidity, func() ([]model.Msg, error) {
		assets := make([]model.Asset, 0, len(tokenAddrs))
		for i, addr := range tokenAddrs {
			assets = append(assets, model.Asset{Info: model.TokenAsset(addr), Amount: sc.Liquidity[i]})
		}
		return terraswap.ProvideLiquidityBatch(sender, out.Pool.Contract, assets, sc.Guards.Provide, "")
	}, sc.Fees.Default)
	if err := record(res, err); err != nil {
		return out, err
	}

	res, err = d.Submit(ctx, StepWithdraw, func() ([]model.Msg, error) {
		msg, err := terraswap.WithdrawLiquidity(sender, out.Pool.LiquidityToken, out.Pool.Contract, sc.WithdrawAmount)
		return []model.Msg{msg}, err
	}, sc.Fees.Default)
	if err := record(res, err); err != nil {
		return out, err
	}

	res, err = d.Submit(ctx, StepWithdrawSingle, func() ([]model.Msg, error) {
		ask := model.TokenAsset(tokenAddrs[sc.WithdrawSingleIndex])
		msg, err := terraswap.WithdrawSingleAsset(sender, out.Pool.LiquidityToken, out.Pool.Contract, sc.WithdrawSingleAmount, ask, sc.Guards.WithdrawSingle)
		return []model.Msg{msg}, err
	}, sc.Fees.Default)
	if err := record(res, err); err != nil {
		return out, err
	}

	res, err = d.Submit(ctx, StepSwap, func() ([]model.Msg, error) {
		offer := model.Asset{Info: model.TokenAsset(tokenAddrs[sc.SwapOfferIndex]), Amount: sc.SwapAmount}
		ask := model.TokenAsset(tokenAddrs[sc.SwapAskIndex])
		msg, err := terraswap.Swap(sender, out.Pool.Contract, offer, ask, sc.Guards.Swap, "")
		return []model.Msg{msg}, err
	}, sc.Fees.Swap)
	if err := record(res, err); err != nil {
		return out, err
	}

	d.logger.Info("run complete", zap.String("run_id", d.runID), zap.Int("steps", len(out.Results)))
	return out, nil
}

func (d *Driver) storeCode(ctx context.Context, step, path string) (StepResult, error) {
	return d.Submit(ctx, step, func() ([]model.Msg, error) {
		wasm, err := d.cfg.ReadArtifact(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		msg, err := terraswap.StoreCode(d.ledger.Address(), wasm)
		return []model.Msg{msg}, err
	}, d.cfg.Scenario.Fees.Default, events.CodeID)
}

// Submit builds, signs and broadcasts one step as a single transaction and
// extracts fields from its result. With resume enabled, a step already present
// in the manifest is not submitted again and its recorded outputs are returned.
func (d *Driver) Submit(ctx context.Context, step string, build func() ([]model.Msg, error), fee model.Fee, fields ...events.Field) (StepResult, error) {
	if d.ledger == nil {
		return StepResult{Step: step, Status: model.StepFailed, Kind: FailureUnknown}, fmt.Errorf("ledger is nil")
	}
	if d.runID == "" {
		if err := d.begin(); err != nil {
			return StepResult{Step: step, Status: model.StepFailed, Kind: FailureUnknown}, err
		}
	}
	started := time.Now().UTC()

	if done, ok := d.state.Steps[step]; ok && d.cfg.Resume {
		if done.Ambiguous {
			err := fmt.Errorf("%w: tx %s of an earlier run may be committed; check the chain and fix the manifest entry before resuming", ErrAmbiguousBroadcast, done.TxHash)
			res, stepErr := d.failed(ctx, step, FailureAmbiguous, 0, err, started)
			res.TxHash = done.TxHash
			return res, stepErr
		}
		if err := events.CheckOutputs(done.Outputs, fields...); err != nil {
			res, stepErr := d.failed(ctx, step, FailureExtraction, 0, fmt.Errorf("manifest entry: %w", err), started)
			res.TxHash = done.TxHash
			return res, stepErr
		}
		res := StepResult{Step: step, Status: model.StepSkipped, TxHash: done.TxHash, Outputs: done.Outputs}
		d.logger.Info("step skipped", zap.String("step", step), zap.String("tx_hash", done.TxHash))
		d.finish(ctx, res, started)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return d.failed(ctx, step, FailureUnknown, 0, err, started)
	}

	msgs, err := build()
	if err != nil {
		return d.failed(ctx, step, FailureMalformed, 0, err, started)
	}

	var tx model.SignedTx
	attempts, err := withRetry(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, isTransient, func(ctx context.Context) error {
		var err error
		tx, err = d.ledger.Sign(ctx, msgs, fee)
		if err != nil {
			d.logger.Warn("sign failed", zap.String("step", step), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return d.failed(ctx, step, classify(err), attempts, err, started)
	}

	// Retries resend the same signed tx. A transient failure may still have
	// been committed, so the outcome after one is settled by confirm.
	var result model.TxResult
	sawTransient := false
	attempts, err = withRetry(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, isTransient, func(ctx context.Context) error {
		var err error
		result, err = d.ledger.Broadcast(ctx, tx)
		if err != nil {
			d.logger.Warn("broadcast failed", zap.String("step", step), zap.Error(err))
			if isTransient(err) {
				sawTransient = true
			}
		}
		return err
	})
	if err != nil && sawTransient {
		var confirmed model.TxResult
		if confirmed, err = d.confirm(ctx, step, tx, err); confirmed.TxHash != "" {
			result = confirmed
		}
	}
	if err != nil {
		kind := classify(err)
		if kind == FailureAmbiguous {
			d.save(step, ManifestStep{TxHash: result.TxHash, Ambiguous: true})
		}
		res, stepErr := d.failed(ctx, step, kind, attempts, err, started)
		res.TxHash = result.TxHash
		return res, stepErr
	}
	d.logger.Info("tx committed", zap.String("step", step), zap.String("tx_hash", result.TxHash), zap.String("height", result.Height))

	outputs, err := events.ExtractAll(result, fields...)
	if err != nil {
		res, stepErr := d.failed(ctx, step, FailureExtraction, attempts, err, started)
		res.TxHash = result.TxHash
		return res, stepErr
	}

	res := StepResult{
		Step:     step,
		Status:   model.StepSucceeded,
		TxHash:   result.TxHash,
		Height:   result.Height,
		Outputs:  outputs,
		Attempts: attempts,
	}

	d.save(step, ManifestStep{TxHash: result.TxHash, Outputs: outputs})

	d.finish(ctx, res, started)
	return res, nil
}

// confirm settles a broadcast that failed after at least one transient attempt.
// A committed tx is returned as the result; an outcome that cannot be settled
// is wrapped in ErrAmbiguousBroadcast.
func (d *Driver) confirm(ctx context.Context, step string, tx model.SignedTx, cause error) (model.TxResult, error) {
	confirmer, ok := d.ledger.(Confirmer)
	if !ok {
		if isTransient(cause) {
			return model.TxResult{}, cause
		}
		return model.TxResult{}, fmt.Errorf("%w: %w", ErrAmbiguousBroadcast, cause)
	}

	result, landed, err := confirmer.Confirm(ctx, tx)
	switch {
	case landed && result.TxHash != "":
		d.logger.Info("earlier broadcast was committed", zap.String("step", step), zap.String("tx_hash", result.TxHash))
		return result, err
	case err != nil:
		d.logger.Warn("confirm failed", zap.String("step", step), zap.Error(err))
	case !landed && isTransient(cause):
		return model.TxResult{}, cause
	}
	return result, fmt.Errorf("%w: %w", ErrAmbiguousBroadcast, cause)
}

func (d *Driver) save(step string, entry ManifestStep) {
	if d.state.Steps == nil {
		d.state.Steps = make(map[string]ManifestStep)
	}
	entry.CompletedAt = time.Now().UTC().Format(time.RFC3339Nano)
	d.state.Steps[step] = entry
	if err := d.manifest.Save(d.state); err != nil {
		d.logger.Warn("manifest save failed", zap.String("step", step), zap.Error(err))
	}
}

// RunID returns the id of the current run, or "" before the first step.
func (d *Driver) RunID() string {
	return d.runID
}

func (d *Driver) begin() error {
	sender := d.ledger.Address()
	chainID := d.ledger.ChainID()

	manifest, ok, err := d.manifest.Load()
	if err != nil {
		return err
	}
	if ok && d.cfg.Resume {
		if manifest.ChainID != chainID || manifest.Sender != sender {
			return fmt.Errorf("manifest belongs to %s on %s, not %s on %s", manifest.Sender, manifest.ChainID, sender, chainID)
		}
		d.runID = manifest.RunID
		d.state = manifest
		d.logger.Info("resume from manifest", zap.String("run_id", d.runID), zap.Int("completed_steps", len(manifest.Steps)))
		return nil
	}

	d.runID = uuid.NewString()
	d.state = Manifest{
		RunID:   d.runID,
		ChainID: chainID,
		Sender:  sender,
		Steps:   make(map[string]ManifestStep),
	}
	return nil
}

func (d *Driver) failed(ctx context.Context, step string, kind FailureKind, attempts int, err error, started time.Time) (StepResult, error) {
	res := StepResult{
		Step:     step,
		Status:   model.StepFailed,
		Kind:     kind,
		Attempts: attempts,
		Err:      err,
	}
	d.logger.Error("step failed", zap.String("step", step), zap.String("kind", string(kind)), zap.Int("attempts", attempts), zap.Error(err))
	d.finish(ctx, res, started)
	return res, &StepError{Step: step, Kind: kind, Attempts: attempts, Err: err}
}

func (d *Driver) finish(ctx context.Context, res StepResult, started time.Time) {
	rec := model.StepRecord{
		RunID:      d.runID,
		ChainID:    d.ledger.ChainID(),
		Step:       res.Step,
		Status:     res.Status,
		Kind:       string(res.Kind),
		TxHash:     res.TxHash,
		Height:     res.Height,
		Outputs:    res.Outputs,
		Attempts:   res.Attempts,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}

	if d.observer != nil {
		d.observer.ObserveStep(rec)
	}
	if d.journal != nil {
		if err := d.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
			d.logger.Warn("journal write failed", zap.String("step", res.Step), zap.Error(err))
		}
	}
}

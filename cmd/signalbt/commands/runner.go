package commands

import (
	"context"
	"fmt"

	"github.com/wonny/signalbt/internal/audit"
	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/calendar"
	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/decisions"
	"github.com/wonny/signalbt/internal/marketcap"
	"github.com/wonny/signalbt/internal/metrics"
	"github.com/wonny/signalbt/internal/prices"
	"github.com/wonny/signalbt/internal/selection"
	"github.com/wonny/signalbt/internal/strategyconfig"
	"github.com/wonny/signalbt/pkg/config"
	"github.com/wonny/signalbt/pkg/database"
	"github.com/wonny/signalbt/pkg/logger"
	"github.com/wonny/signalbt/pkg/redis"
)

// pipeline wires decision store, price access, policy and engine for one strategy
type pipeline struct {
	env      *config.Config
	strategy *strategyconfig.Config
	hash     string
	log      *logger.Logger

	cadence   calendar.Cadence
	policy    selection.Policy
	caps      selection.MarketCaps
	decisions *decisions.Store
	source    prices.Source
	recorder  *metrics.Recorder

	closers []func()
}

// buildPipeline assembles the long-lived parts of a strategy; recorder may be nil.
// Price memos are per run, see newEvaluator.
func buildPipeline(ctx context.Context, env *config.Config, sc *strategyconfig.Config, log *logger.Logger, recorder *metrics.Recorder) (*pipeline, error) {
	hash, err := strategyconfig.Hash(sc)
	if err != nil {
		return nil, fmt.Errorf("hash run config: %w", err)
	}

	cadence, err := calendar.ForName(sc.Cadence.Name)
	if err != nil {
		return nil, err
	}
	policy, err := selection.New(sc.Policy)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		env:      env,
		strategy: sc,
		hash:     hash,
		log:      log.WithField("strategy", sc.Meta.StrategyID),
		cadence:  cadence,
		policy:   policy,
		recorder: recorder,
	}

	if selection.NeedsMarketCaps(policy) {
		if env.Data.MarketCapFile == "" {
			return nil, fmt.Errorf("policy %s needs --marketcap or MARKETCAP_FILE", policy.Name())
		}
		table, err := marketcap.Load(env.Data.MarketCapFile)
		if err != nil {
			return nil, fmt.Errorf("load market caps: %w", err)
		}
		p.log.WithFields(map[string]interface{}{
			"months":  table.Months(),
			"skipped": table.Skipped(),
		}).Info("Market-cap table loaded")
		p.caps = table
	}

	var source prices.Source = prices.NewFileStore(env.Data.PricesDir)
	if env.Redis.Enabled {
		client, err := redis.New(ctx, env.Redis)
		if err != nil {
			// 캐시는 선택 사항: 연결 실패 시 파일만 사용
			p.log.WithError(err).Warn("Redis unavailable, reading prices from disk only")
		} else {
			source = prices.NewCachedSource(source, redis.NewCache(client, "signalbt"), env.Redis.TTL)
			p.closers = append(p.closers, func() { client.Close() })
		}
	}

	p.decisions = decisions.NewStore(env.Data.SignalsDir, cadence, p.log)
	p.source = source

	return p, nil
}

func (p *pipeline) engineConfig() backtest.Config {
	sc := p.strategy
	return backtest.Config{
		Strategy:       sc.Meta.StrategyID,
		Cadence:        p.cadence,
		Policy:         p.policy,
		Benchmark:      sc.Benchmark,
		Cutoff:         contracts.Period(sc.Cadence.Cutoff),
		RiskFreeRate:   sc.Risk.RiskFreeRate,
		PeriodsPerYear: sc.Cadence.PeriodsPerYear,
		ConfigHash:     p.hash,
	}
}

// newEvaluator builds an evaluator over a fresh price memo.
// 실행마다 새 memo: 실행 사이에 추가된 가격 파일을 다시 읽음
func (p *pipeline) newEvaluator() *backtest.Evaluator {
	access := prices.NewAccess(prices.NewMemo(p.source), p.log)
	return backtest.NewEvaluator(access, p.caps, p.strategy.Benchmark, p.env.PriceWorkers, p.log)
}

// Run satisfies jobs.Runner; every call reads prices through a new memo
func (p *pipeline) Run(ctx context.Context) (*backtest.Result, error) {
	_, res, err := p.run(ctx)
	return res, err
}

// run executes once and also returns the evaluator it used, so a bootstrap
// can reuse that run's memo
func (p *pipeline) run(ctx context.Context) (*backtest.Evaluator, *backtest.Result, error) {
	evaluator := p.newEvaluator()
	engine := backtest.NewEngine(p.decisions, evaluator, p.log)
	if p.recorder != nil {
		engine.SetRecorder(p.recorder)
	}
	res, err := engine.Run(ctx, p.engineConfig())
	return evaluator, res, err
}

func (p *pipeline) Close() {
	for _, c := range p.closers {
		c()
	}
}

// sinkOptions selects the result sinks of a run
type sinkOptions struct {
	files   bool
	parquet bool
}

// openSinks returns every configured sink; the returned close func is never nil
func openSinks(ctx context.Context, env *config.Config, opts sinkOptions, log *logger.Logger) (audit.Multi, func(), error) {
	var (
		sinks   audit.Multi
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if opts.files {
		sinks = append(sinks, audit.NewFileWriter(env.Data.OutputDir, opts.parquet))
	}

	if env.SQLite.Enabled() {
		store, err := audit.OpenSQLite(ctx, env.SQLite.Path)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { store.Close() })
		sinks = append(sinks, store)
	}

	if env.Database.Enabled() {
		db, err := database.New(ctx, env.Database)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, db.Close)

		repo := audit.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, repo)
	}

	log.WithFields(map[string]interface{}{
		"files":    opts.files,
		"sqlite":   env.SQLite.Enabled(),
		"postgres": env.Database.Enabled(),
	}).Debug("Result sinks opened")

	return sinks, closeAll, nil
}

func sqliteSink(sinks audit.Multi) *audit.SQLiteStore {
	for _, s := range sinks {
		if store, ok := s.(*audit.SQLiteStore); ok {
			return store
		}
	}
	return nil
}

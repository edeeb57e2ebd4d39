package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"optionfarm/config"
	"optionfarm/native/farm"
	"optionfarm/native/oracle"
	"optionfarm/native/optionvault"
	"optionfarm/native/token"
	"optionfarm/observability/logging"
	"optionfarm/observability/metrics"
	"optionfarm/rpc"
	"optionfarm/state"
	"optionfarm/storage"
)

const rpcTokenEnv = "OPTIONFARM_RPC_TOKEN"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Setup("farmd", "").Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("farmd", cfg.Env)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)

	// The farm module account is the token authority: it alone may appoint
	// reward minters, and it appoints only itself.
	ledger := token.NewLedger(cfg.Farm.Module())
	ledger.SetState(manager)
	if err := ledger.SetMinter(cfg.Farm.Module(), cfg.Farm.Reward(), cfg.Farm.Module(), true); err != nil {
		logger.Error("failed to authorize reward minter", "error", err)
		os.Exit(1)
	}

	vault := optionvault.NewVault(
		cfg.Vault.Custody(),
		cfg.Vault.BeneficiaryAddr(),
		cfg.Farm.Reward(),
		cfg.Vault.Payment(),
		cfg.Vault.DiscountBps,
		cfg.Vault.LockDurationSeconds,
	)
	vault.SetState(manager)
	vault.SetLedger(ledger)
	vault.SetEmitter(metrics.NewEmitter(nil))

	emission, err := cfg.Farm.Emission()
	if err != nil {
		logger.Error("invalid emission configuration", "error", err)
		os.Exit(1)
	}
	bootPrice, err := cfg.Oracle.Price()
	if err != nil {
		logger.Error("invalid oracle configuration", "error", err)
		os.Exit(1)
	}
	priceOracle := oracle.NewStaticOracle()
	priceOracle.Set(bootPrice)

	engine := farm.NewEngine(cfg.Farm.Module(), cfg.Farm.Reward(), emission, cfg.Farm.StartTick)
	engine.SetState(manager)
	engine.SetBank(ledger)
	engine.SetVault(vault)
	engine.SetOracle(priceOracle)
	engine.SetEmitter(metrics.NewEmitter(nil))

	if count, err := engine.PoolCount(); err == nil {
		metrics.Farm().SetPools(count)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go driveTicks(ctx, engine, ledger, cfg.Farm.Reward(), cfg.Vault.Custody(), time.Duration(cfg.Farm.TickIntervalSeconds)*time.Second, logger)

	authToken := os.Getenv(rpcTokenEnv)
	if authToken == "" {
		logger.Warn("rpc admin methods disabled", "reason", rpcTokenEnv+" is unset")
	}
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           rpc.NewServer(engine, vault, authToken, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("farmd listening", "address", cfg.ListenAddress, "startTick", cfg.Farm.StartTick)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("rpc server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("farmd stopped")
}

// driveTicks derives the emission tick from the wall clock so restarts resume
// at a consistent height instead of replaying emission from zero. Each tick
// also samples the vault's escrowed reward balance for the custody gauge.
func driveTicks(ctx context.Context, engine *farm.Engine, ledger *token.Ledger, rewardToken, custody common.Address, interval time.Duration, logger *slog.Logger) {
	advance := func() uint64 {
		tick := uint64(time.Now().Unix()) / uint64(interval/time.Second)
		engine.SetBlockHeight(tick)
		if balance, err := ledger.BalanceOf(rewardToken, custody); err == nil {
			escrowed, _ := new(big.Float).SetInt(balance).Float64()
			metrics.Farm().SetCustodyBalance(escrowed)
		}
		return tick
	}
	logger.Info("emission ticks started", "interval", interval.String(), "tick", advance())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			advance()
		}
	}
}

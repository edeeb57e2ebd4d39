package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"optionfarm/native/optionvault"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Env           string `toml:"Env"`

	Farm   FarmConfig   `toml:"Farm"`
	Vault  VaultConfig  `toml:"Vault"`
	Oracle OracleConfig `toml:"Oracle"`
}

// FarmConfig shapes the emission schedule.
type FarmConfig struct {
	// EmissionPerTick is a decimal integer string so 18-decimal amounts
	// survive TOML round trips.
	EmissionPerTick string `toml:"EmissionPerTick"`
	StartTick       uint64 `toml:"StartTick"`
	// TickIntervalSeconds is the wall-clock period of one emission tick.
	TickIntervalSeconds int64  `toml:"TickIntervalSeconds"`
	ModuleAddress       string `toml:"ModuleAddress"`
	RewardToken         string `toml:"RewardToken"`
}

// VaultConfig shapes claim issuance and settlement.
type VaultConfig struct {
	CustodyAddress      string `toml:"CustodyAddress"`
	Beneficiary         string `toml:"Beneficiary"`
	PaymentToken        string `toml:"PaymentToken"`
	DiscountBps         uint64 `toml:"DiscountBps"`
	LockDurationSeconds int64  `toml:"LockDurationSeconds"`
}

// OracleConfig seeds the static reference-price oracle. Operators can push
// updated prices at runtime; this value is the boot seed.
type OracleConfig struct {
	ReferencePrice string `toml:"ReferencePrice"`
}

// DefaultConfig returns a runnable local configuration with placeholder
// addresses zeroed out; Validate rejects it until the operator fills them in.
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: ":8645",
		DataDir:       "./data",
		Farm: FarmConfig{
			EmissionPerTick:     "0",
			TickIntervalSeconds: 5,
		},
		Vault: VaultConfig{
			DiscountBps:         9_500,
			LockDurationSeconds: 7 * 24 * 60 * 60,
		},
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the configuration values fall within acceptable bounds.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	if _, err := c.Farm.Emission(); err != nil {
		return err
	}
	if c.Farm.TickIntervalSeconds < 1 {
		return fmt.Errorf("config: TickIntervalSeconds must be at least 1")
	}
	if _, err := c.Oracle.Price(); err != nil {
		return err
	}
	if c.Vault.DiscountBps > optionvault.DiscountDenominator {
		return fmt.Errorf("config: DiscountBps must be <= %d", optionvault.DiscountDenominator)
	}
	if c.Vault.LockDurationSeconds < 0 {
		return fmt.Errorf("config: LockDurationSeconds cannot be negative")
	}
	for name, addr := range map[string]string{
		"Farm.ModuleAddress":   c.Farm.ModuleAddress,
		"Farm.RewardToken":     c.Farm.RewardToken,
		"Vault.CustodyAddress": c.Vault.CustodyAddress,
		"Vault.Beneficiary":    c.Vault.Beneficiary,
		"Vault.PaymentToken":   c.Vault.PaymentToken,
	} {
		if _, err := parseAddress(addr); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// Emission parses the configured emission amount.
func (f FarmConfig) Emission() (*big.Int, error) {
	raw := strings.TrimSpace(f.EmissionPerTick)
	if raw == "" {
		return big.NewInt(0), nil
	}
	emission, ok := new(big.Int).SetString(raw, 10)
	if !ok || emission.Sign() < 0 {
		return nil, fmt.Errorf("config: EmissionPerTick must be a non-negative decimal integer, got %q", f.EmissionPerTick)
	}
	return emission, nil
}

// Price parses the configured boot reference price.
func (o OracleConfig) Price() (*big.Int, error) {
	price, ok := new(big.Int).SetString(strings.TrimSpace(o.ReferencePrice), 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("config: Oracle.ReferencePrice must be a positive decimal integer, got %q", o.ReferencePrice)
	}
	return price, nil
}

// Address accessors parse the hex form validated by Validate.

func (f FarmConfig) Module() common.Address { return common.HexToAddress(f.ModuleAddress) }

func (f FarmConfig) Reward() common.Address { return common.HexToAddress(f.RewardToken) }

func (v VaultConfig) Custody() common.Address { return common.HexToAddress(v.CustodyAddress) }

func (v VaultConfig) BeneficiaryAddr() common.Address { return common.HexToAddress(v.Beneficiary) }

func (v VaultConfig) Payment() common.Address { return common.HexToAddress(v.PaymentToken) }

func parseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("address cannot be zero")
	}
	return addr, nil
}

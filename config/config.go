// Package config loads the order-entry engine configuration from a yaml file
// or command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradeterm/orderform/internal/domain"
)

const defaultPollInterval = 13 * time.Second

type Config struct {
	BackendURL     string
	ListenAddr     string
	Pair           domain.Pair
	Accounts       []domain.Account
	Selected       []string
	PollInterval   time.Duration
	HyperliquidURL string
}

type accountTmp struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Exchange string `yaml:"exchange"`
}

type configTmp struct {
	BackendURL     string        `yaml:"backend_url"`
	ListenAddr     string        `yaml:"listen_addr,omitempty"`
	Pair           string        `yaml:"pair"`
	PairID         string        `yaml:"pair_id,omitempty"`
	MarketType     string        `yaml:"market_type"`
	IsContract     bool          `yaml:"is_contract,omitempty"`
	IsInverse      bool          `yaml:"is_inverse,omitempty"`
	Accounts       []accountTmp `yaml:"accounts"`
	Selected       []string     `yaml:"selected_accounts,omitempty"`
	PollInterval   string       `yaml:"poll_interval,omitempty"`
	HyperliquidURL string       `yaml:"hyperliquid_url,omitempty"`
}

func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	backendURL := flag.String("backend", "", "terminal backend base URL")
	listenAddr := flag.String("listen", ":8087", "address for the balance stream server")
	pairFlag := flag.String("pair", "BTC_USDT", "trade pair, example: BTC_USDT")
	marketFlag := flag.String("market", "spot", "market type: spot, perp, future or dex")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	if *backendURL == "" {
		return Config{}, fmt.Errorf("--backend is required when no config file is given")
	}

	pair, err := getPairFromString(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}
	pair.MarketType = domain.MarketType(*marketFlag)
	if !pair.MarketType.IsValid() {
		return Config{}, fmt.Errorf("invalid --market provided, --market=%s", *marketFlag)
	}

	return Config{
		BackendURL:   *backendURL,
		ListenAddr:   *listenAddr,
		Pair:         pair,
		PollInterval: defaultPollInterval,
	}, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	if tmp.BackendURL == "" {
		return Config{}, fmt.Errorf("'backend_url' param is required in yaml config")
	}

	pair, err := getPairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
	}
	if tmp.PairID != "" {
		pair.ID = tmp.PairID
	}
	pair.MarketType = domain.MarketType(tmp.MarketType)
	if !pair.MarketType.IsValid() {
		return Config{}, fmt.Errorf("incorrect 'market_type' param in yaml config: %s", tmp.MarketType)
	}
	pair.IsContract = tmp.IsContract
	pair.IsInverse = tmp.IsInverse

	accounts := make([]domain.Account, 0, len(tmp.Accounts))
	for _, acc := range tmp.Accounts {
		if acc.ID == "" || acc.Name == "" {
			return Config{}, fmt.Errorf("every account in yaml config needs 'id' and 'name', got id=%q name=%q", acc.ID, acc.Name)
		}
		accounts = append(accounts, domain.Account{
			ID:           acc.ID,
			Name:         acc.Name,
			ExchangeName: domain.ExchangeName(acc.Exchange),
		})
	}

	pollInterval := defaultPollInterval
	if tmp.PollInterval != "" {
		pollInterval, err = time.ParseDuration(tmp.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'poll_interval' param in yaml config: %s, error: %w", tmp.PollInterval, err)
		}
	}
	if pollInterval < time.Second {
		return Config{}, fmt.Errorf("'poll_interval' param in yaml config must be at least 1s, got %s", pollInterval)
	}

	conf := Config{
		BackendURL:     tmp.BackendURL,
		ListenAddr:     tmp.ListenAddr,
		Pair:           pair,
		Accounts:       accounts,
		Selected:       tmp.Selected,
		PollInterval:   pollInterval,
		HyperliquidURL: tmp.HyperliquidURL,
	}
	if conf.ListenAddr == "" {
		conf.ListenAddr = ":8087"
	}

	return conf, nil
}

func getPairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 {
		return domain.Pair{}, fmt.Errorf("pair must be in BASE_QUOTE format, got %s", pairStr)
	}
	return domain.Pair{
		ID:    pairStr,
		Base:  pairElements[0],
		Quote: pairElements[1],
	}, nil
}

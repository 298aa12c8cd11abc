// Package setup provides the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type wizardAccount struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Exchange string `yaml:"exchange"`
}

type wizardConfig struct {
	BackendURL   string          `yaml:"backend_url"`
	ListenAddr   string          `yaml:"listen_addr"`
	Pair         string          `yaml:"pair"`
	MarketType   string          `yaml:"market_type"`
	IsContract   bool            `yaml:"is_contract"`
	Accounts     []wizardAccount `yaml:"accounts"`
	Selected     []string        `yaml:"selected_accounts"`
	PollInterval string          `yaml:"poll_interval"`
}

// RunTUI launches the terminal configuration wizard and writes config.yaml.
func RunTUI() error {
	var (
		backendURL      string
		listenAddr      string
		pair            string
		marketType      string
		isContract      bool
		accountsRaw     string
		selectedRaw     string
		pollIntervalStr string
		confirm         bool
	)

	// defaults
	listenAddr = ":8087"
	pollIntervalStr = "13s"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("ORDERFORM CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up the order-entry engine.\n"))

	// backend
	fmt.Println(stepStyle.Render("STEP 1: BACKEND"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Terminal Backend URL").
				Description("Base URL of the terminal backend API").
				Value(&backendURL).
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return fmt.Errorf("must start with http:// or https://")
					}
					return nil
				}),
			huh.NewInput().
				Title("Listen Address").
				Description("Address for the balance stream server (e.g. :8087)").
				Value(&listenAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	// pair
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ORDERFORM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PAIR"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain underscore (e.g. BTC_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !strings.Contains(s, "_") {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Market Type").
				Options(
					huh.NewOption("Spot", "spot"),
					huh.NewOption("Perpetual", "perp"),
					huh.NewOption("Future", "future"),
					huh.NewOption("DEX", "dex"),
				).
				Value(&marketType),
			huh.NewConfirm().
				Title("Contract-denominated pair?").
				Value(&isContract),
		),
	).Run()
	if err != nil {
		return err
	}

	// accounts
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ORDERFORM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: ACCOUNTS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Accounts").
				Description("One per line: id:name:exchange (e.g. acc-1:main:Hyperliquid)").
				Value(&accountsRaw).
				Validate(func(s string) error {
					_, err := parseAccounts(s)
					return err
				}),
			huh.NewInput().
				Title("Selected Accounts").
				Description("Comma-separated account names to trade with").
				Value(&selectedRaw),
		),
	).Run()
	if err != nil {
		return err
	}

	// timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ORDERFORM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Balance Poll Interval").
				Description("Duration string (e.g. 13s, 30s)").
				Value(&pollIntervalStr).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return err
					}
					if d < time.Second {
						return fmt.Errorf("must be at least 1s")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	accounts, err := parseAccounts(accountsRaw)
	if err != nil {
		return err
	}

	conf := wizardConfig{
		BackendURL:   backendURL,
		ListenAddr:   listenAddr,
		Pair:         pair,
		MarketType:   marketType,
		IsContract:   isContract,
		Accounts:     accounts,
		Selected:     splitCSV(selectedRaw),
		PollInterval: pollIntervalStr,
	}

	// confirm and write
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ORDERFORM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: CONFIRM"))
	preview, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(string(preview)))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.yaml?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("configuration aborted")
	}

	if err := os.WriteFile("config.yaml", preview, 0o644); err != nil {
		return err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("config.yaml written. Run: orderform --config config.yaml"))
	return nil
}

func parseAccounts(raw string) ([]wizardAccount, error) {
	var out []wizardAccount
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid account line %q: want id:name:exchange", line)
		}
		out = append(out, wizardAccount{ID: parts[0], Name: parts[1], Exchange: parts[2]})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one account is required")
	}
	return out, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nodetop/nodetop/internal/config"
	"github.com/nodetop/nodetop/internal/errors"
)

var initForce bool

// initCmd creates a .nodetop.yaml configuration interactively.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .nodetop.yaml configuration",
	Long: `Initialize a nodetop configuration file in the current directory.

Guides you through endpoint setup with interactive prompts.

Examples:
  nodetop init
  nodetop init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(initForce)
	},
}

func runInit(force bool) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()

	validateEndpoint := func(schemes ...string) func(string) error {
		return func(s string) error {
			u, err := url.Parse(strings.TrimSpace(s))
			if err != nil || u.Host == "" {
				return fmt.Errorf("enter a full URL like %s://host:port", schemes[0])
			}
			for _, scheme := range schemes {
				if u.Scheme == scheme {
					return nil
				}
			}
			return fmt.Errorf("scheme must be one of: %s", strings.Join(schemes, ", "))
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics endpoint").
				Description("The node's Prometheus exposition endpoint").
				Placeholder("http://localhost:8889/metrics").
				Value(&cfg.MetricsURL).
				Validate(validateEndpoint("http", "https")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("RPC endpoint").
				Description("ws:// or wss:// subscribes to new blocks; http(s):// polls").
				Placeholder("ws://localhost:8080").
				Value(&cfg.RPCURL).
				Validate(validateEndpoint("ws", "wss", "http", "https")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Network").
				Description("Used to pick the public comparison endpoint for drift display").
				Options(
					huh.NewOption("mainnet", "mainnet"),
					huh.NewOption("testnet", "testnet"),
				).
				Value(&cfg.Network),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility")
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Run 'nodetop' to start the dashboard.")
	return nil
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	rootCmd.AddCommand(initCmd)
}

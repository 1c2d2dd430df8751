package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nodetop/nodetop/internal/errors"
)

// minRefreshInterval guards against polling cadences that would hammer the node.
const minRefreshInterval = 200 * time.Millisecond

// Validate checks the config for errors and returns structured error messages.
func (c *Config) Validate() error {
	if c.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but nodetop only knows up to %d)", c.Version, CurrentConfigVersion),
			"Grab the latest nodetop release")
	}

	if err := validateURL("metrics_url", c.MetricsURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("rpc_url", c.RPCURL, "http", "https", "ws", "wss"); err != nil {
		return err
	}
	if c.CompareURL != "" {
		if err := validateURL("compare_url", c.CompareURL, "http", "https"); err != nil {
			return err
		}
	}

	if c.RefreshInterval < minRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval %s is too short", c.RefreshInterval),
			fmt.Sprintf("Use at least %s to avoid overwhelming the node", minRefreshInterval))
	}
	if c.SystemInterval < c.RefreshInterval {
		return errors.New(errors.ErrConfig,
			"system_interval must not be shorter than refresh_interval",
			"Host probes are heavier than metrics polls; give them a slower cadence")
	}

	if len(c.Services) == 0 {
		return errors.New(errors.ErrConfig,
			"No services configured",
			"List the systemd units to watch under 'services'")
	}
	for _, svc := range c.Services {
		if strings.TrimSpace(svc) == "" {
			return errors.New(errors.ErrConfig,
				"Empty service name in 'services'",
				"Remove the empty entry")
		}
	}

	if c.Storage.Command == "" {
		return errors.New(errors.ErrConfig,
			"storage.command is empty",
			"Set the storage inspection executable (e.g. monad-mpt)")
	}

	return nil
}

// validateURL checks that raw parses and uses one of the allowed schemes.
func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s %q is not a valid URL", field, raw),
			"Use a full URL like http://localhost:8889/metrics")
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("%s has unsupported scheme %q", field, u.Scheme),
		fmt.Sprintf("Supported schemes: %s", strings.Join(schemes, ", ")))
}

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port == "" {
		problems = append(problems, "server port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	if c.DataDir == "" {
		problems = append(problems, "data directory is required")
	}
	if c.LookupWorkbookPath == "" {
		problems = append(problems, "lookup workbook path is required")
	}
	if c.StorePath == "" {
		problems = append(problems, "store path is required")
	}
	if c.LedgerYear < 2000 || c.LedgerYear > 2100 {
		problems = append(problems, fmt.Sprintf("ledger year %d is implausible", c.LedgerYear))
	}

	if c.WeightAPIBaseURL == "" {
		problems = append(problems, "weight API base URL is required")
	}
	if c.WeightAPITimeout < time.Second {
		problems = append(problems, "weight API timeout must be at least 1 second")
	}
	if c.WeightAPIRateLimit <= 0 {
		problems = append(problems, "weight API rate limit must be positive")
	}

	if c.SMTPHost != "" && c.MailFrom == "" {
		problems = append(problems, "mail sender address is required when SMTP is configured")
	}

	if c.GUIUsername == "" || c.GUIPassword == "" {
		problems = append(problems, "GUI credentials are required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

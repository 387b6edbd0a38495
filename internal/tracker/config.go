package tracker

import (
	"github.com/albapepper/pricewatch/internal/config"
	"github.com/albapepper/pricewatch/internal/eligibility"
	"github.com/albapepper/pricewatch/internal/retry"
)

// OptionsFromConfig maps the service configuration onto tracker options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Retry: retry.Policy{
			MaxRetries: cfg.FetchMaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			Jitter:     cfg.RetryJitter,
		},
		PacingBase:     cfg.PacingBaseDelay,
		PacingJitter:   cfg.PacingJitter,
		TrendWindow:    cfg.TrendWindow,
		MinDropPercent: cfg.MinDropPercent,
		Eligibility:    eligibility.New(cfg.WeeklyAnchorDay, cfg.Timezone),
	}
}

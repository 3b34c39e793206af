package config

import (
	"fmt"
	"strings"
)

var knownStrategies = map[string]struct{}{
	"adaptive":    {},
	"midpoint":    {},
	"range_break": {},
	"momentum":    {},
}

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Feed.validate(); err != nil {
		return err
	}
	if err := c.Platform.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (f *FeedConfig) validate() error {
	if strings.TrimSpace(f.URL) == "" {
		return fmt.Errorf("feed.url cannot be empty")
	}
	return nil
}

func (p *PlatformConfig) validate() error {
	if !p.DryRun && strings.TrimSpace(p.BridgeURL) == "" {
		return fmt.Errorf("platform.bridge_url cannot be empty unless platform.dry_run is set")
	}
	if p.TimeoutSeconds <= 0 {
		return fmt.Errorf("platform.timeout_seconds must be > 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	strategy := strings.ToLower(strings.TrimSpace(t.Strategy))
	if _, ok := knownStrategies[strategy]; !ok {
		return fmt.Errorf("trading.strategy unknown: %q (want adaptive/midpoint/range_break/momentum)", t.Strategy)
	}
	if t.DefaultVolume <= 0 {
		return fmt.Errorf("trading.default_volume must be > 0")
	}
	if t.BEPartialVolume < 0 {
		return fmt.Errorf("trading.be_partial_volume must be >= 0")
	}
	if t.PartialFraction <= 0 || t.PartialFraction >= 1 {
		return fmt.Errorf("trading.partial_fraction must be in (0, 1)")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if tg.Enabled {
		if strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}

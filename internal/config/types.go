package config

import "strings"

// Config 是 sigcopy 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Feed     FeedConfig     `toml:"feed"`
	Platform PlatformConfig `toml:"platform"`
	Trading  TradingConfig  `toml:"trading"`
	Notify   NotifyConfig   `toml:"notify"`
	Store    StoreConfig    `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

// FeedConfig describes the messaging bridge the signals come from.
type FeedConfig struct {
	URL          string  `toml:"url"`
	Token        string  `toml:"token"`
	AllowedChats []int64 `toml:"allowed_chats"`
	// StrictEnvelope rejects frames that fail schema validation instead of
	// logging and skipping them.
	StrictEnvelope bool `toml:"strict_envelope"`
}

// PlatformConfig describes the trading-platform bridge.
type PlatformConfig struct {
	BridgeURL        string `toml:"bridge_url"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	DryRun           bool   `toml:"dry_run"`
	BreakerThreshold int    `toml:"breaker_threshold"`
	BreakerCooldown  int    `toml:"breaker_cooldown_seconds"`
}

// TradingConfig controls strategy selection and sizing defaults.
type TradingConfig struct {
	Strategy      string  `toml:"strategy"`
	DefaultVolume float64 `toml:"default_volume"`
	// RangeCeiling rejects signals whose range values exceed it; chat rooms
	// mix forex and crypto calls and crypto ranges are orders of magnitude
	// larger.
	RangeCeiling float64 `toml:"range_ceiling"`
	ProfilesPath string  `toml:"profiles_path"`
	// SymbolSuffix is appended to extracted symbols for brokers that quote
	// instruments with a suffix, e.g. "p" turns XAUUSD into XAUUSD.p.
	SymbolSuffix string `toml:"symbol_suffix"`
	// BEPartialVolume is the lot volume closed before the stop moves to
	// entry on a break-even command. Zero disables the partial.
	BEPartialVolume float64 `toml:"be_partial_volume"`
	// PartialFraction is the fraction of a position closed by a
	// partial-profit command.
	PartialFraction float64 `toml:"partial_fraction"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type StoreConfig struct {
	// Path is the sqlite file; empty keeps the ledger purely in memory.
	Path string `toml:"path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

package config

import "strings"

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":9984"
	defaultAppLogPath       = "/data/logs/sigcopy.log"
	defaultPlatformTimeout  = 10
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30
	defaultTradingStrategy  = "adaptive"
	defaultTradingVolume    = 0.01
	defaultRangeCeiling     = 50000
	defaultBEPartialVolume  = 0.01
	defaultPartialFraction  = 0.5
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Platform.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (p *PlatformConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "platform.timeout_seconds",
			need:  func() bool { return p.TimeoutSeconds <= 0 },
			apply: func() { p.TimeoutSeconds = defaultPlatformTimeout },
		},
		fieldDefault{
			key:   "platform.breaker_threshold",
			need:  func() bool { return p.BreakerThreshold <= 0 },
			apply: func() { p.BreakerThreshold = defaultBreakerThreshold },
		},
		fieldDefault{
			key:   "platform.breaker_cooldown_seconds",
			need:  func() bool { return p.BreakerCooldown <= 0 },
			apply: func() { p.BreakerCooldown = defaultBreakerCooldown },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trading.strategy", &t.Strategy, defaultTradingStrategy),
		fieldDefault{
			key:   "trading.default_volume",
			need:  func() bool { return t.DefaultVolume <= 0 },
			apply: func() { t.DefaultVolume = defaultTradingVolume },
		},
		fieldDefault{
			key:   "trading.range_ceiling",
			need:  func() bool { return t.RangeCeiling <= 0 },
			apply: func() { t.RangeCeiling = defaultRangeCeiling },
		},
		fieldDefault{
			key:   "trading.be_partial_volume",
			need:  func() bool { return t.BEPartialVolume <= 0 },
			apply: func() { t.BEPartialVolume = defaultBEPartialVolume },
		},
		fieldDefault{
			key:   "trading.partial_fraction",
			need:  func() bool { return t.PartialFraction <= 0 || t.PartialFraction >= 1 },
			apply: func() { t.PartialFraction = defaultPartialFraction },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

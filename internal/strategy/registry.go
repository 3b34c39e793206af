package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sigcopy/internal/logger"
)

// Profile 描述单个 symbol 的策略绑定。
type Profile struct {
	Strategy string  `mapstructure:"strategy" yaml:"strategy"`
	Volume   float64 `mapstructure:"volume" yaml:"volume,omitempty"`
}

// ProfileFile 映射 profiles 配置文件。
type ProfileFile struct {
	Strategy      string             `mapstructure:"strategy" yaml:"strategy"`
	DefaultVolume float64            `mapstructure:"default_volume" yaml:"default_volume"`
	Symbols       map[string]Profile `mapstructure:"symbols" yaml:"symbols,omitempty"`
}

// Selection is what the pipeline asks for per signal.
type Selection struct {
	Kind   Kind
	Volume float64
}

// Registry resolves the strategy and volume for a symbol. With a profiles
// file it hot-reloads on change; without one it serves the static defaults.
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	fallback Selection
	symbols  map[string]Selection
}

// NewStaticRegistry serves fixed defaults from the main config.
func NewStaticRegistry(kind Kind, volume float64) *Registry {
	return &Registry{fallback: Selection{Kind: kind, Volume: volume}}
}

// NewRegistry reads the profiles file and watches it for updates. A missing
// file is seeded with the defaults so operators have something to edit.
func NewRegistry(path string, kind Kind, volume float64) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile registry requires path")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := seedProfileFile(path, kind, volume); err != nil {
			return nil, fmt.Errorf("seeding profile file failed: %w", err)
		}
		logger.Infof("profile file %s not found, wrote defaults", path)
	}
	v := viper.New()
	v.SetConfigFile(path)
	r := &Registry{
		path:     path,
		v:        v,
		fallback: Selection{Kind: kind, Volume: volume},
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile file failed: %w", err)
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("profile reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

func (r *Registry) reload() error {
	if err := r.v.ReadInConfig(); err != nil {
		return err
	}
	var file ProfileFile
	if err := r.v.Unmarshal(&file); err != nil {
		return fmt.Errorf("parse profile file failed: %w", err)
	}

	fallback := r.fallback
	if kind, ok := ParseKind(file.Strategy); ok {
		fallback.Kind = kind
	} else if strings.TrimSpace(file.Strategy) != "" {
		return fmt.Errorf("profile file strategy unknown: %q", file.Strategy)
	}
	if file.DefaultVolume > 0 {
		fallback.Volume = file.DefaultVolume
	}

	symbols := make(map[string]Selection, len(file.Symbols))
	for sym, p := range file.Symbols {
		sel := fallback
		if kind, ok := ParseKind(p.Strategy); ok {
			sel.Kind = kind
		} else if strings.TrimSpace(p.Strategy) != "" {
			return fmt.Errorf("profile for %s has unknown strategy %q", sym, p.Strategy)
		}
		if p.Volume > 0 {
			sel.Volume = p.Volume
		}
		symbols[strings.ToUpper(strings.TrimSpace(sym))] = sel
	}

	r.mu.Lock()
	r.fallback = fallback
	r.symbols = symbols
	r.mu.Unlock()
	logger.Infof("strategy profiles loaded: default=%s volume=%.2f overrides=%d", fallback.Kind, fallback.Volume, len(symbols))
	return nil
}

// Select returns the strategy and volume bound to a symbol. Broker suffixes
// are ignored for matching, so XAUUSD.p picks up the XAUUSD profile.
func (r *Registry) Select(sym string) Selection {
	key := strings.ToUpper(strings.TrimSpace(sym))
	if idx := strings.Index(key, "."); idx > 0 {
		key = key[:idx]
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sel, ok := r.symbols[key]; ok {
		return sel
	}
	return r.fallback
}

func seedProfileFile(path string, kind Kind, volume float64) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := yaml.Marshal(ProfileFile{Strategy: string(kind), DefaultVolume: volume})
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

package symbol

import "strings"

// aliases folds common chat-room instrument names onto broker symbols.
var aliases = map[string]string{
	"GOLD":   "XAUUSD",
	"XAU":    "XAUUSD",
	"SILVER": "XAGUSD",
	"XAG":    "XAGUSD",
	"OIL":    "XTIUSD",
	"USOIL":  "XTIUSD",
	"DOW":    "US30",
	"NAS":    "NAS100",
	"NASDAQ": "NAS100",
}

// Symbol is a normalized instrument identifier plus an optional broker
// suffix such as ".p" or ".raw".
type Symbol struct {
	Name   string
	Suffix string
}

func (s Symbol) String() string {
	if s.Name == "" {
		return ""
	}
	if s.Suffix == "" {
		return s.Name
	}
	return s.Name + "." + s.Suffix
}

// Parse splits off a broker suffix, uppercases the instrument name and
// folds known aliases. Returns the zero Symbol for unusable input.
func Parse(raw string) Symbol {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Symbol{}
	}
	name := raw
	suffix := ""
	if idx := strings.LastIndex(raw, "."); idx > 0 && idx < len(raw)-1 {
		name = raw[:idx]
		suffix = strings.ToLower(raw[idx+1:])
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return Symbol{}
	}
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	return Symbol{Name: name, Suffix: suffix}
}

// Normalize returns the canonical string form of raw, or "" if raw does not
// look like an instrument.
func Normalize(raw string) string {
	return Parse(raw).String()
}

// WithSuffix normalizes raw and applies the broker suffix unless the input
// already carries one.
func WithSuffix(raw, suffix string) string {
	sym := Parse(raw)
	if sym.Name == "" {
		return ""
	}
	if sym.Suffix == "" && suffix != "" {
		sym.Suffix = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(suffix)), ".")
	}
	return sym.String()
}

// IsCandidate reports whether a token could plausibly be an instrument
// name: 3-12 letters/digits, at least two letters so index names like US30
// qualify while prices do not, optional suffix.
func IsCandidate(token string) bool {
	token = strings.TrimSpace(token)
	if idx := strings.LastIndex(token, "."); idx > 0 && idx < len(token)-1 {
		token = token[:idx]
	}
	if len(token) < 3 || len(token) > 12 {
		return false
	}
	letters := 0
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letters++
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return letters >= 2
}

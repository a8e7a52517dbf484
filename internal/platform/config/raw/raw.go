// Package raw reads environment variables during bootstrap; the logger
// reads its LOG_ settings through it because config already imports logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// lookup is the env seam
var lookup = os.LookupEnv

// Conf is a prefixed env view, e.g. Conf{"LOG_"}.Get("LEVEL") reads LOG_LEVEL
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) value(key string) (string, bool) {
	v, ok := lookup(c.prefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Get returns the trimmed value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v, ok := c.value(key); ok {
		return v
	}
	return def
}

// GetBool accepts 1/true/yes/on and 0/false/no/off in any case; anything else is def
func (c Conf) GetBool(key string, def bool) bool {
	v, ok := c.value(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// GetInt returns a non-negative integer; negatives and garbage yield def
func (c Conf) GetInt(key string, def int) int {
	v, ok := c.value(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Package config reads signalgate settings from the environment through
// prefix-scoped views such as New().Prefix("INGEST_")
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"signalgate/internal/platform/logger"
)

// Conf is an env view; keys are looked up as prefix+key
type Conf struct{ prefix string }

// New is the unprefixed root view
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) (name, val string) {
	name = c.prefix + key
	return name, strings.TrimSpace(os.Getenv(name))
}

// EnvName maps a source or other free-form name to a key fragment, "forum-post" -> "FORUM_POST"
func EnvName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, strings.TrimSpace(name))
}

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	name, v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", name).Msg("missing required env")
	}
	return v
}

// MayString returns def when key is unset or blank
func (c Conf) MayString(key, def string) string {
	if _, v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// may parses key with parse; unparsable values are logged and yield def
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	name, s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", name).Str("value", s).Interface("default", def).Msg("invalid env value; using default")
		return def
	}
	return v
}

// MayInt is the integer form of MayString
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayFloat64 is the float form of MayString
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool accepts strconv.ParseBool spellings
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration accepts time.ParseDuration strings such as 30s or 5m
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma list, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	_, raw := c.lookup(key)
	var out []string
	for p := range strings.SplitSeq(raw, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the allowed spelling matching the value case-insensitively;
// anything outside allowed panics since it is a deploy error
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	name, _ := c.lookup(key)
	logger.Get().Panic().Str("key", name).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

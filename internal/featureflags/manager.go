// Package featureflags evaluates rollout switches configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"sort"
	"strconv"
	"strings"
)

// Platform flags. Each defaults to its entry in Defaults until configured.
const (
	CommunityStats = "community_stats"
	GameSearch     = "game_search"
	ReviewReports  = "review_reports"
)

// Defaults holds the rollout percentage of every known flag.
var Defaults = map[string]int{
	CommunityStats: 100,
	GameSearch:     100,
	ReviewReports:  100,
}

// Manager evaluates flags defined as a comma-separated key=value list.
// Example: "game_search=on,community_stats=25%,review_reports=off"
type Manager struct {
	rollout map[string]int
	invalid []string
}

// NewManager parses raw on top of Defaults. Malformed pairs are skipped and
// reported through Invalid.
func NewManager(raw string) *Manager {
	m := &Manager{rollout: maps.Clone(Defaults)}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = normalize(key)
		pct, valid := parsePercent(normalize(value))
		if !ok || key == "" || !valid {
			m.invalid = append(m.invalid, pair)
			continue
		}
		m.rollout[key] = pct
	}

	return m
}

// parsePercent accepts on/true/1, off/false/0 and N%.
func parsePercent(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return 0, false
	}
	return min(max(pct, 0), 100), true
}

// Enabled returns whether a flag is enabled for a given user. Partial rollouts
// bucket users deterministically and exclude anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return Defaults[normalize(name)] >= 100
	}

	pct, ok := m.rollout[normalize(name)]
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Rollouts returns each flag with its rollout rendered as "on", "off" or "N%".
func (m *Manager) Rollouts() map[string]string {
	out := make(map[string]string, len(m.rollout))
	for name, pct := range m.rollout {
		switch pct {
		case 100:
			out[name] = "on"
		case 0:
			out[name] = "off"
		default:
			out[name] = strconv.Itoa(pct) + "%"
		}
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rollout))
	for name := range m.rollout {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Invalid lists the configured pairs that could not be parsed, sorted.
func (m *Manager) Invalid() []string {
	out := append([]string(nil), m.invalid...)
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}

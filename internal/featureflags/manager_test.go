package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsApplyWhenUnconfigured(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(CommunityStats, 0))
	assert.True(t, m.Enabled(GameSearch, 7))
	assert.False(t, m.Enabled("unknown_flag", 7))
	assert.Empty(t, m.Invalid())

	var nilManager *Manager
	assert.True(t, nilManager.Enabled(ReviewReports, 0))
}

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_Override(t *testing.T) {
	m := NewManager("GAME_SEARCH=off")
	assert.False(t, m.Enabled(GameSearch, 1))
	assert.Equal(t, "off", m.Rollouts()[GameSearch])
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,over=150%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.True(t, m.Enabled("over", 1), "rollout above 100% is clamped")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires non-zero userID")

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off, w=maybe ")

	rollouts := m.Rollouts()
	assert.Equal(t, "on", rollouts["x"])
	assert.Equal(t, "20%", rollouts["y"])
	assert.Equal(t, "off", rollouts["z"])
	assert.Len(t, rollouts, 3+len(Defaults))
	assert.Equal(t, []string{"bad", "w=maybe"}, m.Invalid())

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3+len(Defaults))
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}

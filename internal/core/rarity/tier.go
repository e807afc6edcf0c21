// Package rarity derives capture tiers and XP values from rarity scores
package rarity

import (
	"math"
	"strings"
)

// Tier is a discrete rarity bucket
type Tier string

// Tiers ordered from most to least common
const (
	Common    Tier = "common"
	Uncommon  Tier = "uncommon"
	Rare      Tier = "rare"
	Epic      Tier = "epic"
	Mythic    Tier = "mythic"
	Legendary Tier = "legendary"
)

// FirstCaptureMultiplier applies when a caller knows this is a user's first capture of an item
const FirstCaptureMultiplier = 2

var baseXP = map[Tier]int{
	Common:    5,
	Uncommon:  10,
	Rare:      25,
	Epic:      50,
	Mythic:    100,
	Legendary: 200,
}

// All returns every tier in ascending rarity
func All() []Tier {
	return []Tier{Common, Uncommon, Rare, Epic, Mythic, Legendary}
}

// TierFromScore maps a 0..100 score onto a tier with fixed thresholds
// NaN and out of range scores are common
func TierFromScore(s float64) Tier {
	if math.IsNaN(s) || s < 0 || s > 100 {
		return Common
	}
	switch {
	case s >= 96:
		return Legendary
	case s >= 90:
		return Mythic
	case s >= 80:
		return Epic
	case s >= 60:
		return Rare
	case s >= 45:
		return Uncommon
	default:
		return Common
	}
}

// BaseXP returns the point value for a tier, unknown tiers score as common
func BaseXP(t Tier) int {
	if v, ok := baseXP[t]; ok {
		return v
	}
	return baseXP[Common]
}

// CaptureXP returns the XP a capture is worth, doubled on a first capture
func CaptureXP(t Tier, firstCapture bool) int {
	xp := BaseXP(t)
	if firstCapture {
		xp *= FirstCaptureMultiplier
	}
	return xp
}

// ParseTier accepts a tier name in any case
func ParseTier(s string) (Tier, bool) {
	s = strings.TrimSpace(s)
	for _, t := range All() {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

package rarity

import (
	"fmt"
	"strconv"
)

// xpStep is the per-level increment of the triangular progression
const xpStep = 50

// XPRequiredForLevel returns the cumulative XP needed to reach level
// level L needs sum(i*50) for i in 1..L-1, so level 1 needs nothing
func XPRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return xpStep * level * (level - 1) / 2
}

// LevelFromXP accumulates thresholds until the next one exceeds total
func LevelFromXP(total int) int {
	level := 1
	next := xpStep
	for total >= next {
		level++
		next += level * xpStep
	}
	return level
}

// XPToNextLevel returns how much XP is missing before the next level
func XPToNextLevel(total int) int {
	if total < 0 {
		total = 0
	}
	return XPRequiredForLevel(LevelFromXP(total)+1) - total
}

// LevelProgress returns the percent progress inside the current level, 0..100
func LevelProgress(total int) float64 {
	if total < 0 {
		return 0
	}
	lvl := LevelFromXP(total)
	lo := XPRequiredForLevel(lvl)
	hi := XPRequiredForLevel(lvl + 1)
	return float64(total-lo) / float64(hi-lo) * 100
}

// RewardKind classifies a level milestone reward
type RewardKind string

// Reward kinds
const (
	RewardBadge        RewardKind = "badge"
	RewardFilter       RewardKind = "filter"
	RewardCaptureLimit RewardKind = "capture_limit"
	RewardTitle        RewardKind = "title"
)

// Reward is a milestone unlocked on reaching a level
type Reward struct {
	Kind        RewardKind `json:"type"`
	Value       string     `json:"value"`
	Description string     `json:"description"`
}

var cameraFilters = []string{"vintage", "noir", "vibrant", "dreamy"}

// LevelRewards lists the milestones granted when reaching level
func LevelRewards(level int) []Reward {
	var out []Reward

	if level > 0 && level%5 == 0 && level/5 <= len(cameraFilters) {
		f := cameraFilters[level/5-1]
		out = append(out, Reward{Kind: RewardFilter, Value: f, Description: fmt.Sprintf("Unlock the %s camera filter", f)})
	}

	switch level {
	case 10, 20:
		out = append(out, Reward{Kind: RewardCaptureLimit, Value: "+5", Description: "Increase daily capture limit by 5"})
	case 30:
		out = append(out, Reward{Kind: RewardCaptureLimit, Value: "+10", Description: "Increase daily capture limit by 10"})
	case 25:
		out = append(out, Reward{Kind: RewardBadge, Value: "Explorer", Description: "Earn the Explorer badge"})
	case 50:
		out = append(out,
			Reward{Kind: RewardBadge, Value: "Collector", Description: "Earn the Collector badge"},
			Reward{Kind: RewardTitle, Value: "Master Explorer", Description: "Unlock the Master Explorer title"},
		)
	case 100:
		out = append(out,
			Reward{Kind: RewardBadge, Value: "Legend", Description: "Earn the Legend badge"},
			Reward{Kind: RewardTitle, Value: "WorldDex Legend", Description: "Unlock the WorldDex Legend title"},
		)
	}
	return out
}

// FormatXP renders XP compactly, 950 -> "950", 1200 -> "1.2K", 12500 -> "12K"
func FormatXP(xp int) string {
	switch {
	case xp < 1000:
		return strconv.Itoa(xp)
	case xp < 10000:
		return strconv.FormatFloat(float64(xp)/1000, 'f', 1, 64) + "K"
	default:
		return strconv.Itoa(xp/1000) + "K"
	}
}

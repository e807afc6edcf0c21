package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worlddex/internal/core/rarity"
)

func newXPCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xp",
		Short: "Rarity tiers and level math",
	}
	cmd.AddCommand(newXPTierCommand(opts))
	cmd.AddCommand(newXPLevelCommand(opts))
	return cmd
}

type tierView struct {
	Score        float64     `json:"score"`
	Tier         rarity.Tier `json:"tier"`
	BaseXP       int         `json:"baseXp"`
	FirstCapture int         `json:"firstCaptureXp"`
}

func newXPTierCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tier <score>",
		Short: "Show the tier and XP for a 0-100 rarity score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("score %q is not a number", args[0])
			}
			t := rarity.TierFromScore(score)
			v := tierView{
				Score:        score,
				Tier:         t,
				BaseXP:       rarity.BaseXP(t),
				FirstCapture: rarity.CaptureXP(t, true),
			}
			if opts.json {
				return writeJSON(cmd, v)
			}
			return writeRows(cmd, [][2]string{
				{"tier", string(v.Tier)},
				{"xp", rarity.FormatXP(v.BaseXP)},
				{"first capture", rarity.FormatXP(v.FirstCapture)},
			})
		},
	}
}

type levelView struct {
	TotalXP  int             `json:"totalXp"`
	Level    int             `json:"level"`
	Progress float64         `json:"progress"`
	ToNext   int             `json:"xpToNext"`
	Rewards  []rarity.Reward `json:"rewards"`
}

func newXPLevelCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "level <totalXP>",
		Short: "Show the level reached with a total XP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[0])
			if err != nil || total < 0 {
				return fmt.Errorf("total xp %q must be a non-negative integer", args[0])
			}
			lvl := rarity.LevelFromXP(total)
			v := levelView{
				TotalXP:  total,
				Level:    lvl,
				Progress: rarity.LevelProgress(total),
				ToNext:   rarity.XPToNextLevel(total),
				Rewards:  rarity.LevelRewards(lvl),
			}
			if opts.json {
				return writeJSON(cmd, v)
			}
			rows := [][2]string{
				{"level", strconv.Itoa(v.Level)},
				{"progress", fmt.Sprintf("%.1f%%", v.Progress)},
				{"to next", rarity.FormatXP(v.ToNext)},
			}
			if len(v.Rewards) > 0 {
				names := make([]string, 0, len(v.Rewards))
				for _, r := range v.Rewards {
					names = append(names, fmt.Sprintf("%s:%s", r.Kind, r.Value))
				}
				rows = append(rows, [2]string{"rewards", strings.Join(names, ", ")})
			}
			return writeRows(cmd, rows)
		},
	}
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worlddex/internal/core/geo"
	"worlddex/internal/core/landmarks"
)

func (o *cliOptions) registry() (*landmarks.Registry, error) {
	if o.landmarksFile == "" {
		return landmarks.Default()
	}
	return landmarks.LoadFile(o.landmarksFile)
}

func newLandmarksCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "landmarks",
		Short: "Inspect the landmark registry",
	}
	cmd.AddCommand(newLandmarksNearCommand(opts))
	cmd.AddCommand(newLandmarksResolveCommand(opts))
	return cmd
}

func newLandmarksNearCommand(opts *cliOptions) *cobra.Command {
	var radius float64
	cmd := &cobra.Command{
		Use:   "near <lat> <lng>",
		Short: "List landmarks within the search radius, nearest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			near := reg.Nearby(&p, radius)
			if opts.json {
				return writeJSON(cmd, near)
			}
			if len(near) == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "no landmarks within %s\n", geo.FormatDistance(radius))
				return err
			}
			rows := make([][2]string, 0, len(near))
			for _, n := range near {
				rows = append(rows, [2]string{geo.FormatDistance(n.DistanceM), fmt.Sprintf("%s (%s)", n.Name, n.Rarity)})
			}
			return writeRows(cmd, rows)
		},
	}
	cmd.Flags().Float64Var(&radius, "radius", 1000, "Search radius in meters")
	return cmd
}

type resolveView struct {
	Answer   string `json:"answer"`
	Resolved bool   `json:"resolved"`
	Match    string `json:"match,omitempty"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
}

func newLandmarksResolveCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <text>",
		Short: "Resolve a free text answer against the whole registry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			answer := strings.Join(args, " ")
			c, kind, ok := landmarks.Resolve(answer, reg.All())
			v := resolveView{Answer: answer, Resolved: ok}
			if ok {
				v.Match, v.ID, v.Name = string(kind), c.ID, c.Name
			}
			if opts.json {
				return writeJSON(cmd, v)
			}
			if !ok {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "unresolved")
				return err
			}
			return writeRows(cmd, [][2]string{{"landmark", v.Name}, {"id", v.ID}, {"match", v.Match}})
		},
	}
}

func parsePoint(lat, lng string) (geo.Point, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("lat %q is not a number", lat)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("lng %q is not a number", lng)
	}
	p := geo.Point{Lat: la, Lng: ln}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("coordinates %v,%v out of range", la, ln)
	}
	return p, nil
}

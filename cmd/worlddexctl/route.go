package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"worlddex/internal/core/geo"
	"worlddex/internal/core/routing"
)

func newRouteCommand(opts *cliOptions) *cobra.Command {
	var (
		label, category, subcategory string
		collections                  []string
		lat, lng                     float64
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show which refinement module a tier1 result would get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := routing.Input{Collections: collections}
			if label != "" {
				in.Label = &label
			}
			if category != "" {
				in.Category = &category
			}
			if subcategory != "" {
				in.Subcategory = &subcategory
			}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				p := geo.Point{Lat: lat, Lng: lng}
				if !p.Valid() {
					return fmt.Errorf("coordinates %v,%v out of range", lat, lng)
				}
				in.GPS = &p
			}

			d := routing.Decide(in, routing.DefaultConfig())
			if opts.json {
				return writeJSON(cmd, d)
			}
			if !d.Run {
				return writeRows(cmd, [][2]string{{"run", "no"}, {"rule", d.Rule}})
			}
			return writeRows(cmd, [][2]string{{"run", "yes"}, {"module", string(d.Module)}, {"rule", d.Rule}})
		},
	}
	f := cmd.Flags()
	f.StringVar(&label, "label", "", "Tier1 label")
	f.StringVar(&category, "category", "", "Tier1 category")
	f.StringVar(&subcategory, "subcategory", "", "Tier1 subcategory")
	f.StringSliceVar(&collections, "collections", nil, "Active collections")
	f.Float64Var(&lat, "lat", 0, "Capture latitude")
	f.Float64Var(&lng, "lng", 0, "Capture longitude")
	return cmd
}

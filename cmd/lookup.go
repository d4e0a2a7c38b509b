package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leaseboost/internal/events"
	"github.com/sells-group/leaseboost/internal/model"
)

var (
	lookupLat    float64
	lookupLng    float64
	lookupRadius float64
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve an address to a coordinate",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		env, err := initApp(cfg)
		if err != nil {
			return err
		}

		res, err := env.Geocoder.Geocode(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return eris.Wrap(err, "geocode")
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Search community events around a coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("events"); err != nil {
			return err
		}
		env, err := initApp(cfg)
		if err != nil {
			return err
		}

		miles := lookupRadius
		if miles <= 0 {
			miles = cfg.Events.DefaultRadiusMiles
		}
		res, err := env.Events.Search(cmd.Context(), events.Query{
			Center:       model.Coordinate{Latitude: lookupLat, Longitude: lookupLng},
			RadiusMeters: model.MilesToMeters(miles),
		})
		if err != nil {
			return eris.Wrap(err, "events")
		}

		for _, o := range res.Outcomes {
			fields := []zap.Field{
				zap.String("provider", o.Provider),
				zap.String("outcome", string(o.Status)),
				zap.Int("records", len(o.Records)),
			}
			if o.Err != nil {
				fields = append(fields, zap.Error(o.Err))
			}
			zap.L().Info("events: provider outcome", fields...)
		}

		return printJSON(cmd.OutOrStdout(), struct {
			Events  []model.Event `json:"events"`
			Source  string        `json:"source"`
			Message string        `json:"message,omitempty"`
		}{res.Events, res.Source, res.Message})
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List nearby businesses across place categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("nearby"); err != nil {
			return err
		}
		env, err := initApp(cfg)
		if err != nil {
			return err
		}

		res, err := env.Nearby.Find(cmd.Context(), model.Coordinate{Latitude: lookupLat, Longitude: lookupLng})
		if err != nil {
			return eris.Wrap(err, "nearby")
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	for _, c := range []*cobra.Command{eventsCmd, nearbyCmd} {
		c.Flags().Float64Var(&lookupLat, "lat", 0, "latitude")
		c.Flags().Float64Var(&lookupLng, "lng", 0, "longitude")
		_ = c.MarkFlagRequired("lat")
		_ = c.MarkFlagRequired("lng")
	}
	eventsCmd.Flags().Float64Var(&lookupRadius, "radius", 0, "search radius in miles (default from config)")

	rootCmd.AddCommand(geocodeCmd, eventsCmd, nearbyCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/discovery-api/internal/discovery"
)

var (
	discoverIndustry   string
	discoverLocation   string
	discoverRadius     float64
	discoverMaxResults int
	discoverDryRun     bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery request and print the JSON response",
	Example: `  discovery-api discover --industry plumber --location "Amarillo, TX"
  discovery-api discover --industry dentist --location Austin --radius 10 --max-results 5 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoverDryRun {
			cfg.CRM.Driver = "none"
		}
		if err := cfg.Validate("discovery"); err != nil {
			return err
		}

		env, err := initDiscovery(cfg)
		if err != nil {
			return err
		}

		resp, err := env.Service.Discover(cmd.Context(), discovery.Request{
			Industry:   discoverIndustry,
			Location:   discoverLocation,
			Radius:     discoverRadius,
			MaxResults: discoverMaxResults,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal response")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverIndustry, "industry", "", "industry to search for (required)")
	discoverCmd.Flags().StringVar(&discoverLocation, "location", "", "city, region or address to search around (required)")
	discoverCmd.Flags().Float64Var(&discoverRadius, "radius", 0, "search radius in miles (default from config)")
	discoverCmd.Flags().IntVar(&discoverMaxResults, "max-results", 0, "maximum businesses to return (default from config)")
	discoverCmd.Flags().BoolVar(&discoverDryRun, "dry-run", false, "skip writing leads to the CRM")
	_ = discoverCmd.MarkFlagRequired("industry")
	_ = discoverCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(discoverCmd)
}

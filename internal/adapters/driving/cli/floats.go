package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var floatsJSON bool

var floatsCmd = &cobra.Command{
	Use:   "floats",
	Short: "Browse floats and their profiles",
}

var floatsProfilesCmd = &cobra.Command{
	Use:   "profiles [float-id]",
	Short: "List the profiles of a float",
	Args:  cobra.ExactArgs(1),
	RunE:  runFloatsProfiles,
}

var floatsLocationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Show the latest position of every float",
	Args:  cobra.NoArgs,
	RunE:  runFloatsLocations,
}

var floatsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show float and profile counts",
	Args:  cobra.NoArgs,
	RunE:  runFloatsStats,
}

func init() {
	floatsCmd.PersistentFlags().BoolVar(&floatsJSON, "json", false, "output as JSON")
	floatsCmd.AddCommand(floatsProfilesCmd)
	floatsCmd.AddCommand(floatsLocationsCmd)
	floatsCmd.AddCommand(floatsStatsCmd)
	rootCmd.AddCommand(floatsCmd)
}

func runFloatsProfiles(cmd *cobra.Command, args []string) error {
	if floatService == nil {
		return errors.New("float service not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid float id %q", args[0])
	}

	profiles, err := floatService.Profiles(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no data found for ARGO float %d", id)
		}
		return fmt.Errorf("listing profiles: %w", err)
	}

	if floatsJSON {
		return printJSON(cmd, profiles)
	}

	cmd.Printf("Float %d: %d profiles\n\n", id, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		cmd.Printf("  cycle %-4s %s  (%.2f, %.2f)  %d levels  %s\n",
			formatCycle(p.CycleNumber), p.Timestamp.UTC().Format(time.DateTime),
			p.Latitude, p.Longitude, p.Levels(), p.SourceFile)
	}
	return nil
}

func runFloatsLocations(cmd *cobra.Command, _ []string) error {
	if floatService == nil {
		return errors.New("float service not configured")
	}

	positions, err := floatService.Locations(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing locations: %w", err)
	}

	if floatsJSON {
		if positions == nil {
			positions = []domain.FloatPosition{}
		}
		return printJSON(cmd, positions)
	}

	if len(positions) == 0 {
		cmd.Println("No floats found.")
		return nil
	}
	for _, p := range positions {
		cmd.Printf("  float %-10d (%7.2f, %7.2f)  %s\n",
			p.InstrumentID, p.Latitude, p.Longitude, p.Timestamp.UTC().Format(time.DateOnly))
	}
	return nil
}

func runFloatsStats(cmd *cobra.Command, _ []string) error {
	if floatService == nil {
		return errors.New("float service not configured")
	}

	stats, err := floatService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	if floatsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Active floats: %d\n", stats.ActiveFloats)
	cmd.Printf("Profiles (last 24h): %d\n", stats.DailyProfiles)
	cmd.Printf("Profiles (total): %d\n", stats.TotalProfiles)
	return nil
}

func formatCycle(cycle int) string {
	if cycle == domain.UnknownCycle {
		return "?"
	}
	return strconv.Itoa(cycle)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

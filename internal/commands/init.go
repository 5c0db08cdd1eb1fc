package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ugrc/ltcfsync/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-name]",
		Short: "Scaffold a new ltcfsync project",
		Long:  "Creates a project directory with a starter ltcfsync.yaml.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
}

func runInit(projectName string) error {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("Initializing ltcfsync project: %s\n", projectName)

	if err := os.MkdirAll(projectName, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	configPath := filepath.Join(projectName, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	configContent := `provider: feature
identity: your.name@health.utah.gov
feature:
  facilityURL: https://services.example.com/arcgis/rest/services/LTCF_Data/FeatureServer/0
  snapshotURL: https://services.example.com/arcgis/rest/services/LTCF_Data/FeatureServer/1
  token: ""
geocoder:
  url: https://api.mapserv.utah.gov/api/v1/geocode
  apiKey: your-api-key
  acceptScore: 70
  spatialReference: 3857
input:
  updatesCSV: ./updates.csv
  caseFatalityWorkbook: ./Case_Fatality_Rates.xlsx
schema:
  lastPosResident: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	color.Green("  ✓ Project scaffolded")
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s with your service URLs and API key\n", configPath)
	fmt.Println("  2. Drop the spreadsheet export next to it")
	fmt.Println("  3. ltcfsync run")
	return nil
}

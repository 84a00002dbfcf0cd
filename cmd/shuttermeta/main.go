package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/On-Jun9/ShutterMeta/internal/batch"
	"github.com/On-Jun9/ShutterMeta/internal/config"
	"github.com/On-Jun9/ShutterMeta/internal/log"
	"github.com/On-Jun9/ShutterMeta/internal/service"
	"github.com/On-Jun9/ShutterMeta/pkg/types"
	"github.com/spf13/cobra"
)

var (
	appVersion   = "0.1.0"
	cfgFile      string
	presetName   string
	ffprobePath  string
	logFile      string
	logJSON      bool
	logLevel     string
	jobs         int
	noSidecar    bool
	noMakerNotes bool
	batchOp      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shuttermeta",
	Short: "Extract photo and video metadata as JSON",
	Long: `ShutterMeta reads EXIF, XMP, PNG and JPEG metadata from still images,
falls back to container metadata (ffprobe, embedded tags) for videos, and
prints the full dump, the catalog record or the overlay record as JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var allCmd = &cobra.Command{
	Use:   "all <path>",
	Short: "Print every metadata directory of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(svc *service.Service, _ *config.Config, _ *log.Logger) error {
			out, err := svc.GetAllMetadata(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <path>",
	Short: "Print capture date, location and keywords of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(svc *service.Service, _ *config.Config, _ *log.Logger) error {
			out, err := svc.GetCatalogMetadata(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		})
	},
}

var overlayCmd = &cobra.Command{
	Use:   "overlay <path>",
	Short: "Print aperture, exposure time, focal length and ISO of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(svc *service.Service, _ *config.Config, _ *log.Logger) error {
			out, err := svc.GetOverlayMetadata(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		})
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Run one operation over many files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), appVersion)
	},
}

func init() {
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(overlayCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file path")
	flags.StringVarP(&presetName, "preset", "p", "", "load settings from a saved preset")
	flags.StringVar(&ffprobePath, "ffprobe", "", "ffprobe binary (empty string disables probing)")
	flags.StringVar(&logFile, "log-file", "", "log file path (default stderr)")
	flags.BoolVar(&logJSON, "log-json", false, "output JSON logs")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.IntVarP(&jobs, "jobs", "j", 0, "number of concurrent workers for batch (0=auto)")
	flags.BoolVar(&noSidecar, "no-sidecar", false, "ignore M01.XML sidecar files for video dates")
	flags.BoolVar(&noMakerNotes, "no-maker-notes", false, "skip Canon and Nikon maker-note parsing")

	batchCmd.Flags().StringVar(&batchOp, "op", "all", "operation: all, catalog, overlay")
}

// loadConfig resolves settings: preset or config file first, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config

	switch {
	case presetName != "" && cfgFile != "":
		return nil, fmt.Errorf("--preset and --config cannot be combined")
	case presetName != "":
		pm, err := config.NewPresetManager()
		if err != nil {
			return nil, err
		}
		preset, err := pm.LoadPreset(presetName)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset: %w", err)
		}
		cfg = config.PresetToConfig(preset)
	case cfgFile != "":
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("ffprobe") {
		cfg.FFprobePath = ffprobePath
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if noSidecar {
		cfg.SidecarXML = false
	}
	if noMakerNotes {
		cfg.MakerNotes = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withService(cmd *cobra.Command, fn func(*service.Service, *config.Config, *log.Logger) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := log.New(cfg.LogFile, cfg.LogJSON)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logger.Close()
	logger.SetLevel(cfg.LogLevel)

	svc := service.New(service.Options{
		FFprobePath: cfg.FFprobePath,
		Sidecar:     cfg.SidecarXML,
		MakerNotes:  cfg.MakerNotes,
	}, logger)
	return fn(svc, cfg, logger)
}

type batchOutput struct {
	Results []types.BatchResult `json:"results"`
	Summary *types.BatchSummary `json:"summary"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	op, err := parseOp(batchOp)
	if err != nil {
		return err
	}

	return withService(cmd, func(svc *service.Service, cfg *config.Config, logger *log.Logger) error {
		runner := batch.New(svc, cfg.Jobs, logger)
		results, summary, err := runner.Run(op, args)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), batchOutput{Results: results, Summary: summary}); err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
		}
		return nil
	})
}

func parseOp(name string) (types.Op, error) {
	switch name {
	case "all", string(types.OpGetAllMetadata):
		return types.OpGetAllMetadata, nil
	case "catalog", string(types.OpGetCatalogMetadata):
		return types.OpGetCatalogMetadata, nil
	case "overlay", string(types.OpGetOverlayMetadata):
		return types.OpGetOverlayMetadata, nil
	default:
		return "", fmt.Errorf("unknown operation %q (want all, catalog or overlay)", name)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagTerrain   = flag.String("terrain-archive", "", "LOD archive holding terrain entries")
	flagTileTable = flag.String("tiletable-archive", "", "LOD archive holding the tile table")
	flagBitmaps   = flag.String("bitmap-archive", "", "LOD archive holding tile bitmaps")
	flagOut       = flag.String("out", "", "Output directory for exported artifacts")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTerrain != "" {
		cfg.Data.TerrainArchive = *flagTerrain
	}
	if *flagTileTable != "" {
		cfg.Data.TileTableArchive = *flagTileTable
	}
	if *flagBitmaps != "" {
		cfg.Data.BitmapArchive = *flagBitmaps
	}
	if *flagOut != "" {
		cfg.Export.OutputDir = *flagOut
	}
}

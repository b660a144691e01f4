// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds asset archive paths.
type DataConfig struct {
	TerrainArchive   string `yaml:"terrain_archive"`    // LOD archive holding <map>.odm entries
	TileTableArchive string `yaml:"tile_table_archive"` // LOD archive holding dtile.bin
	BitmapArchive    string `yaml:"bitmap_archive"`     // LOD archive holding tile bitmaps
}

// ExportConfig holds output settings for exported artifacts.
type ExportConfig struct {
	OutputDir      string `yaml:"output_dir"`
	AtlasSuffix    string `yaml:"atlas_suffix"`    // appended to the map name for the PNG
	WireSuffix     string `yaml:"wire_suffix"`     // appended to the map name for the wire OBJ
	WriteWireframe bool   `yaml:"write_wireframe"` // also export the line-list mesh
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			TerrainArchive:   "games.lod",
			TileTableArchive: "icons.lod",
			BitmapArchive:    "bitmaps.lod",
		},
		Export: ExportConfig{
			OutputDir:      ".",
			AtlasSuffix:    "_atlas",
			WireSuffix:     "_wire",
			WriteWireframe: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Package main is the entry point for the map export tool. It decodes a
// named map from the configured LOD archives and writes the packed atlas
// plus solid and wireframe meshes to the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/openlod/internal/config"
	"github.com/Faultbox/openlod/internal/export"
	"github.com/Faultbox/openlod/internal/loader"
	"github.com/Faultbox/openlod/internal/logger"
)

var (
	flagMap        = flag.String("map", "oute3", "Name of the map to export (without .odm)")
	flagInitConfig = flag.Bool("init-config", false, "Write the effective config to the user config directory and exit")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	if *flagInitConfig {
		if err := cfg.Save(); err != nil {
			logger.Error("writing config", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config written", zap.String("dir", config.ConfigDir()))
		return
	}

	if err := run(cfg, *flagMap); err != nil {
		logger.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, mapName string) error {
	src := loader.Sources{
		TerrainArchive:   cfg.Data.TerrainArchive,
		TileTableArchive: cfg.Data.TileTableArchive,
		BitmapArchive:    cfg.Data.BitmapArchive,
	}

	assets, err := loader.Load(context.Background(), src, mapName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	atlasPath := filepath.Join(cfg.Export.OutputDir, mapName+cfg.Export.AtlasSuffix+".png")
	if err := export.WriteAtlasPNG(atlasPath, assets.Atlas.Image); err != nil {
		return fmt.Errorf("writing atlas: %w", err)
	}
	logger.Info("atlas written", zap.String("path", atlasPath))

	solidPath := filepath.Join(cfg.Export.OutputDir, mapName+".obj")
	if err := export.WriteMeshOBJ(solidPath, assets.Solid); err != nil {
		return fmt.Errorf("writing solid mesh: %w", err)
	}
	logger.Info("solid mesh written",
		zap.String("path", solidPath),
		zap.Int("vertices", len(assets.Solid.Vertices)),
		zap.Int("indices", len(assets.Solid.Indices)))

	if cfg.Export.WriteWireframe {
		wirePath := filepath.Join(cfg.Export.OutputDir, mapName+cfg.Export.WireSuffix+".obj")
		if err := export.WriteMeshOBJ(wirePath, assets.Wire); err != nil {
			return fmt.Errorf("writing wireframe mesh: %w", err)
		}
		logger.Info("wireframe mesh written", zap.String("path", wirePath))
	}

	return nil
}

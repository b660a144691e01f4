// lodtool is a CLI utility for inspecting and extracting LOD asset archives.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/openlod/pkg/formats"
	"github.com/Faultbox/openlod/pkg/lod"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "search", "find":
		cmdSearch(args)
	case "map":
		cmdMap(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lodtool - LOD asset archive utility

Usage:
  lodtool <command> [options]

Commands:
  info <file.lod>                    Show archive information
  list <file.lod> [pattern]          List entries (optional glob pattern)
  extract <file.lod> <name> [output] Extract entry(ies) to directory
  search <file.lod> <pattern>        Search entries by name pattern
  map <file.lod> <name>              Show terrain statistics for a map entry

Examples:
  lodtool info games.lod
  lodtool list bitmaps.lod "*.bmp"
  lodtool extract games.lod oute3.odm ./output
  lodtool extract -raw games.lod oute3.odm
  lodtool map games.lod oute3`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool info <file.lod>")
		os.Exit(1)
	}

	archive, err := lod.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	names := archive.List()

	extCount := make(map[string]int)
	var totalSize uint64
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++

		if entry, ok := archive.Entry(name); ok {
			totalSize += uint64(entry.Size)
		}
	}

	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Version: %d\n", archive.Version())
	fmt.Printf("Entries: %d\n", len(names))
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Entries by type:")

	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].count > stats[j].count
	})

	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.ext, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N entries (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool list <file.lod> [pattern]")
		os.Exit(1)
	}

	archive, err := lod.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, name := range archive.List() {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(name))
			if !matched && !strings.Contains(strings.ToLower(name), pattern) {
				continue
			}
		}
		fmt.Println(name)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d entries matched)\n", count)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	raw := fs.Bool("raw", false, "Write the stored bytes without decompressing")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool extract <file.lod> <name> [output_dir]")
		os.Exit(1)
	}

	lodPath := fs.Arg(0)
	entryName := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := lod.Open(lodPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	if strings.Contains(entryName, "*") {
		extractPattern(archive, entryName, outputDir, *raw)
		return
	}

	if !archive.Contains(entryName) {
		fmt.Fprintf(os.Stderr, "Entry not found: %s\n", entryName)
		os.Exit(1)
	}

	data, err := readEntry(archive, entryName, *raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading entry: %v\n", err)
		os.Exit(1)
	}

	outputPath := filepath.Join(outputDir, entryName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
}

func readEntry(archive *lod.Archive, name string, raw bool) ([]byte, error) {
	if raw {
		return archive.ReadRaw(name)
	}
	return archive.Read(name)
}

func extractPattern(archive *lod.Archive, pattern, outputDir string, raw bool) {
	pattern = strings.ToLower(pattern)

	extracted := 0
	for _, name := range archive.List() {
		matched, _ := filepath.Match(pattern, strings.ToLower(name))
		if !matched {
			continue
		}

		data, err := readEntry(archive, name, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", name, err)
			continue
		}

		outputPath := filepath.Join(outputDir, name)
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
			continue
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s\n", outputPath)
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d entries\n", extracted)
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("n", 50, "Limit results (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool search <file.lod> <pattern>")
		os.Exit(1)
	}

	archive, err := lod.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	pattern := strings.ToLower(fs.Arg(1))

	count := 0
	for _, name := range archive.List() {
		if strings.Contains(strings.ToLower(name), pattern) {
			fmt.Println(name)
			count++
			if *limit > 0 && count >= *limit {
				fmt.Fprintf(os.Stderr, "\n(showing first %d matches, use -n 0 for all)\n", *limit)
				break
			}
		}
	}

	if count == 0 {
		fmt.Fprintln(os.Stderr, "No entries found")
	} else if *limit == 0 || count < *limit {
		fmt.Fprintf(os.Stderr, "\n(%d entries found)\n", count)
	}
}

func cmdMap(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool map <file.lod> <name>")
		os.Exit(1)
	}

	archive, err := lod.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	entryName := args[1]
	if !strings.HasSuffix(strings.ToLower(entryName), ".odm") {
		entryName += ".odm"
	}

	data, err := archive.Read(entryName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", entryName, err)
		os.Exit(1)
	}

	odm, err := formats.ParseODM(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", entryName, err)
		os.Exit(1)
	}

	min, max := odm.AltitudeRange()
	tiles := odm.DistinctTiles()
	attrs := odm.CountByAttribute()

	fmt.Printf("Map:       %s\n", entryName)
	fmt.Printf("Grid:      %dx%d vertices (%dx%d cells)\n",
		odm.Width, odm.Height, odm.CellsX(), odm.CellsY())
	fmt.Printf("Altitude:  %d..%d (world %.0f..%.0f)\n",
		min, max,
		float32(min)*formats.HeightScale, float32(max)*formats.HeightScale)
	fmt.Printf("Tiles:     %d distinct\n", len(tiles))

	if len(attrs) > 0 {
		fmt.Println()
		fmt.Println("Cells by attribute:")

		keys := make([]int, 0, len(attrs))
		for attr := range attrs {
			keys = append(keys, int(attr))
		}
		sort.Ints(keys)
		for _, k := range keys {
			attr := formats.CellAttribute(k)
			fmt.Printf("  %-24s %d\n", attr.String(), attrs[attr])
		}
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyuri/zatlas/internal/blorb"
	"github.com/dyuri/zatlas/internal/config"
	"github.com/dyuri/zatlas/internal/model"
	"github.com/dyuri/zatlas/pkg/zatlas"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log = logrus.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zatlas <input> [output.json]",
	Short: "Recover room maps from compiled Z-machine story files",
	Long: `zatlas reads a compiled Z-machine story file (versions 1-8, bare or
wrapped in a Blorb container) and reconstructs its world map without
ever executing the game: rooms, directional exits, takable objects and
a deterministic 2D grid layout.

The recovered map is written as JSON, suitable for rendering.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMap,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file with heuristic tuning")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentPreRunE = setupLogging

	rootCmd.Flags().StringP("output", "o", "", "Output file (default: second argument or stdout)")
	rootCmd.Flags().Bool("text", false, "Write a plain text summary instead of JSON")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dictCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runMap(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" && len(args) > 1 {
		outputPath = args[1]
	}
	asText, _ := cmd.Flags().GetBool("text")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gf, err := parseInput(inputPath)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"version": gf.Header.Version,
		"release": gf.Header.Release,
		"serial":  gf.Header.Serial,
		"objects": len(gf.Objects),
		"words":   len(gf.Dictionary),
	}).Info("parsed story file")

	m := zatlas.BuildMap(gf, zatlas.Options{Config: &cfg, Logger: log})

	output := os.Stdout
	if outputPath != "" {
		output, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer output.Close()
	}

	if asText {
		return zatlas.WriteText(output, m)
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("write map: %w", err)
	}

	log.WithFields(logrus.Fields{
		"rooms":    len(m.Rooms),
		"exits":    len(m.Exits),
		"strategy": m.Strategy.String(),
	}).Info("map recovered")
	return nil
}

func parseInput(path string) (*model.GameFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	gf, err := zatlas.ParseStory(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return gf, nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "Display story file information",
	Long: `Display header metadata and structure statistics for a story file.

Shows format version, release, serial number, memory map addresses and
counts of objects and dictionary words.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	gf, err := parseInput(inputPath)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputInfoJSON(inputPath, gf)
	}
	return outputInfoText(inputPath, gf, brief)
}

func outputInfoText(path string, gf *model.GameFile, brief bool) error {
	h := gf.Header

	if brief {
		fmt.Printf("%s: v%d release=%d serial=%s objects=%d words=%d\n",
			path, h.Version, h.Release, h.Serial, len(gf.Objects), len(gf.Dictionary))
		return nil
	}

	fmt.Printf("Story File: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	fmt.Println("Header:")
	fmt.Printf("  Version:          %d\n", h.Version)
	fmt.Printf("  Release:          %d\n", h.Release)
	fmt.Printf("  Serial:           %s\n", h.Serial)
	fmt.Printf("  Checksum:         0x%04x\n", h.Checksum)
	fmt.Printf("  File Length:      %d bytes (stored)\n", h.FileLength)
	fmt.Println()

	fmt.Println("Memory Map:")
	fmt.Printf("  High Memory:      0x%04x\n", h.HighMemory)
	fmt.Printf("  Initial PC:       0x%05x\n", h.InitialPC)
	fmt.Printf("  Dictionary:       0x%04x\n", h.DictionaryAdr)
	fmt.Printf("  Object Table:     0x%04x\n", h.ObjectTable)
	fmt.Printf("  Globals:          0x%04x\n", h.Globals)
	fmt.Printf("  Static Memory:    0x%04x\n", h.StaticMemory)
	fmt.Printf("  Abbreviations:    0x%04x\n", h.Abbreviations)
	if h.RoutinesOffset != 0 || h.StringsOffset != 0 {
		fmt.Printf("  Routines Offset:  0x%06x\n", h.RoutinesOffset)
		fmt.Printf("  Strings Offset:   0x%06x\n", h.StringsOffset)
	}
	fmt.Println()

	fmt.Println("Structure:")
	fmt.Printf("  Objects:          %d\n", len(gf.Objects))
	fmt.Printf("  Dictionary Words: %d\n", len(gf.Dictionary))

	return nil
}

func outputInfoJSON(path string, gf *model.GameFile) error {
	h := gf.Header
	info := map[string]interface{}{
		"file": path,
		"header": map[string]interface{}{
			"version":    h.Version,
			"release":    h.Release,
			"serial":     h.Serial,
			"checksum":   h.Checksum,
			"fileLength": h.FileLength,
		},
		"memoryMap": map[string]interface{}{
			"highMemory":    h.HighMemory,
			"initialPC":     h.InitialPC,
			"dictionary":    h.DictionaryAdr,
			"objectTable":   h.ObjectTable,
			"globals":       h.Globals,
			"staticMemory":  h.StaticMemory,
			"abbreviations": h.Abbreviations,
		},
		"counts": map[string]int{
			"objects": len(gf.Objects),
			"words":   len(gf.Dictionary),
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// dict command
var dictCmd = &cobra.Command{
	Use:   "dict <input>",
	Short: "List the dictionary",
	Long: `List the decoded vocabulary of a story file.

Each line shows one word with its trailing data bytes, the compiler
metadata the exit inference reads property numbers from.`,
	Args: cobra.ExactArgs(1),
	RunE: runDict,
}

func init() {
	dictCmd.Flags().Bool("tails", false, "Show only words carrying data bytes")
}

func runDict(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	tailsOnly, _ := cmd.Flags().GetBool("tails")

	gf, err := parseInput(inputPath)
	if err != nil {
		return err
	}

	for _, e := range gf.Dictionary {
		if tailsOnly && len(e.Tail) == 0 {
			continue
		}
		if len(e.Tail) > 0 {
			fmt.Printf("%-12s %x\n", e.Word, e.Tail)
		} else {
			fmt.Printf("%s\n", e.Word)
		}
	}
	return nil
}

// extract command
var extractCmd = &cobra.Command{
	Use:   "extract <input.zblorb>",
	Short: "Extract the story file from a Blorb container",
	Long: `Extract the executable story file from a Blorb resource container.

Blorb files bundle the story with cover art and sounds. This command
writes the bare story file for separate processing.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("output", "o", ".", "Output directory")
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputDir, _ := cmd.Flags().GetString("output")

	outputPath, err := blorb.ExtractStory(inputPath, outputDir)
	if err != nil {
		return err
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Extracted %s (%d bytes)\n", outputPath, stat.Size())
	return nil
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zatlas version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}

// Package main implements the gofhir-profiler CLI tool.
// It resolves differential snapshots for FHIR profiles against a base
// specification directory and prints the element tree.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	fp "github.com/gofhir/profiler"
	"github.com/gofhir/profiler/loader"
	"github.com/gofhir/profiler/pkg/discriminator"
	"github.com/gofhir/profiler/pkg/logger"
	"github.com/gofhir/profiler/pkg/snapshot"
	"github.com/gofhir/profiler/worker"
)

const usage = `gofhir-profiler - FHIR profile snapshot resolver

Usage:
  gofhir-profiler [options] -dir <spec-dir> -profile <canonical-url>
  gofhir-profiler [options] -dir <spec-dir> -all

Examples:
  gofhir-profiler -dir ./specs -profile http://example.org/fhir/StructureDefinition/my-patient
  gofhir-profiler -dir ./specs -all -output json
  gofhir-profiler -dir ./specs -base Patient

Options:
`

// Output format constants.
const (
	outputText = "text"
	outputJSON = "json"
)

// config holds CLI configuration.
type config struct {
	Dir         string
	Profile     string
	Base        string
	All         bool
	Output      string
	Workers     int
	NoChecks    bool
	Stats       bool
	Verbose     bool
	ShowVersion bool
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("gofhir-profiler v%s\n", fp.Version)
		os.Exit(0)
	}
	if cfg.Dir == "" || (cfg.Profile == "" && cfg.Base == "" && !cfg.All) {
		flag.Usage()
		os.Exit(0)
	}
	os.Exit(run(cfg))
}

func parseFlags() *config {
	cfg := &config{}

	flag.StringVar(&cfg.Dir, "dir", "", "Directory of StructureDefinition JSON files (required)")
	flag.StringVar(&cfg.Profile, "profile", "", "Canonical URL of the profile to resolve")
	flag.StringVar(&cfg.Base, "base", "", "Resolve a base type without a differential (e.g. Patient)")
	flag.BoolVar(&cfg.All, "all", false, "Resolve every loaded profile")
	flag.StringVar(&cfg.Output, "output", outputText, "Output format: text, json")
	flag.IntVar(&cfg.Workers, "workers", 0, "Worker count for -all (0 = NumCPU)")
	flag.BoolVar(&cfg.NoChecks, "no-discriminator-checks", false, "Skip FHIRPath checks on slicing discriminators")
	flag.BoolVar(&cfg.Stats, "stats", false, "Print build statistics after -all")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	return cfg
}

func run(cfg *config) int {
	log := logger.Default()
	if cfg.Verbose {
		log.SetLevel(logger.LevelDebug)
	}

	opts := fp.NewOptions(
		fp.WithDiscriminatorChecks(!cfg.NoChecks),
		fp.WithWorkerCount(cfg.Workers),
	)

	service := loader.NewCatalogService(opts.DefinitionCacheSize)
	count, err := service.LoadFromDirectory(cfg.Dir)
	if err != nil {
		log.Error("failed to load %s: %v", cfg.Dir, err)
		return 1
	}
	log.Info("loaded %d StructureDefinitions (%d base types, %d profiles)",
		count, service.BaseCount(), len(service.Profiles()))

	var checker snapshot.DiscriminatorChecker
	if opts.CheckDiscriminators {
		checker = discriminator.NewChecker(opts.ExpressionCacheSize)
	}
	builder := snapshot.NewBuilder(service.Catalog(), checker)
	builder.SetLogger(log)

	switch {
	case cfg.All:
		bb := worker.NewBatchBuilder(builder, opts.WorkerCount)
		var metrics *fp.Metrics
		if cfg.Stats {
			metrics = fp.NewMetrics()
			bb.SetMetrics(metrics)
		}
		batch := bb.BuildBatch(context.Background(), service.Profiles())
		for _, r := range batch.Results {
			if r.Tree == nil {
				continue
			}
			fmt.Printf("== %s (%s)\n", r.Profile.Name, r.Profile.URL)
			if err := printTree(cfg.Output, r.Tree); err != nil {
				log.Error("output failed: %v", err)
				return 1
			}
		}
		log.Info("resolved %d/%d profiles", batch.Completed, batch.TotalJobs)
		if metrics != nil {
			printStats(metrics)
		}
		return 0

	case cfg.Profile != "":
		profile := service.Profile(cfg.Profile)
		if profile == nil {
			log.Error("profile not found: %s", cfg.Profile)
			return 1
		}
		tree := builder.Build(profile.Type, profile.Differential)
		if err := printTree(cfg.Output, tree); err != nil {
			log.Error("output failed: %v", err)
			return 1
		}
		return 0

	default:
		tree := builder.Build(cfg.Base, nil)
		if err := printTree(cfg.Output, tree); err != nil {
			log.Error("output failed: %v", err)
			return 1
		}
		return 0
	}
}

func printStats(m *fp.Metrics) {
	s := m.Snapshot()
	fmt.Fprintf(os.Stderr, "builds: %d, nodes: %d, avg: %s, min: %s, max: %s\n",
		s.BuildsTotal, s.NodesTotal,
		time.Duration(s.AvgBuildTimeNs), time.Duration(s.MinBuildTimeNs), time.Duration(s.MaxBuildTimeNs))
	for _, bt := range s.BaseTypes {
		fmt.Fprintf(os.Stderr, "  %s: %d builds, %d nodes, avg %s\n",
			bt.Name, bt.Builds, bt.Nodes, bt.AvgTime)
	}
}

func printTree(format string, tree *snapshot.ElementNode) error {
	if format == outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toOutput(tree))
	}
	printText(tree, 0)
	return nil
}

func printText(n *snapshot.ElementNode, depth int) {
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s%s [%d..%s]", indent, n.Name, n.Min, n.Max)
	if n.Type != "" {
		line += " " + n.Type
	}
	if n.Description != "" {
		line += " : " + n.Description
	}
	fmt.Println(line)
	for _, c := range n.Children {
		printText(c, depth+1)
	}
	for _, v := range n.SliceVariants {
		fmt.Printf("%s  (slice %s)\n", indent, v.Name)
		for _, c := range v.Children {
			printText(c, depth+2)
		}
	}
}

// nodeOutput is the JSON output shape for one element node.
type nodeOutput struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type,omitempty"`
	Min         int            `json:"min"`
	Max         string         `json:"max"`
	IsSummary   bool           `json:"isSummary,omitempty"`
	IsModifier  bool           `json:"isModifier,omitempty"`
	MustSupport bool           `json:"mustSupport,omitempty"`
	Description string         `json:"description,omitempty"`
	Children    []*nodeOutput  `json:"children,omitempty"`
	Slices      []*sliceOutput `json:"slices,omitempty"`
}

type sliceOutput struct {
	Name     string        `json:"name"`
	Children []*nodeOutput `json:"children,omitempty"`
}

func toOutput(n *snapshot.ElementNode) *nodeOutput {
	out := &nodeOutput{
		ID:          n.ID,
		Name:        n.Name,
		Type:        n.Type,
		Min:         n.Min,
		Max:         n.Max,
		IsSummary:   n.IsSummary,
		IsModifier:  n.IsModifier,
		MustSupport: n.MustSupport,
		Description: n.Description,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toOutput(c))
	}
	for _, v := range n.SliceVariants {
		s := &sliceOutput{Name: v.Name}
		for _, c := range v.Children {
			s.Children = append(s.Children, toOutput(c))
		}
		out.Slices = append(out.Slices, s)
	}
	return out
}

package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"tissuemask/internal/models"
	"tissuemask/pkg/config"
	"tissuemask/pkg/fcm"
	"tissuemask/pkg/gmm"
	"tissuemask/pkg/plotting"
	"tissuemask/pkg/tissue"
	"tissuemask/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "Raw voxel file holding the image intensities")
	maskFile := flag.String("mask", "", "Optional raw voxel file holding the brain mask")
	outputFile := flag.String("output", "mask.raw", "Output raw voxel file")
	dims := flag.String("dims", "", "Volume dimensions, e.g. 182x218x182")
	format := flag.String("format", "float32", "Voxel format of input files: float32 or float64")
	mode := flag.String("mode", "fcm", "Clustering engine: fcm or gmm")
	hardSeg := flag.Bool("hard", false, "Produce discrete class labels instead of soft memberships")
	wmPeak := flag.Bool("wm-peak", false, "Print the white matter peak intensity instead of writing a mask (gmm only)")
	contrast := flag.String("contrast", "t1", "MR contrast of the input image")
	configFile := flag.String("config", "", "Optional YAML configuration file")
	plotFile := flag.String("plot", "", "Optional PNG file for a fitted-model diagnostic plot")
	flag.Parse()

	// Validate inputs
	if *inputFile == "" || *dims == "" {
		flag.Usage()
		os.Exit(1)
	}

	shape, err := parseDims(*dims)
	if err != nil {
		log.Fatalf("Invalid -dims: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.Output.HardSeg = *hardSeg
	if *plotFile != "" {
		cfg.Output.PlotFile = *plotFile
	}

	fmt.Println("================================")
	fmt.Println("TISSUE CLASS MASK EXTRACTION FOR BRAIN MR VOLUMES")
	fmt.Println("================================")

	img, err := readVolume(*inputFile, shape, *format)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	var brain *volume.Volume
	if *maskFile != "" {
		brain, err = readVolume(*maskFile, shape, *format)
		if err != nil {
			log.Fatalf("Failed to read brain mask: %v", err)
		}
	}

	if *wmPeak {
		peak, err := tissue.WMPeak(img, brain, *contrast, cfg.MixtureOptions())
		if err != nil {
			log.Fatalf("White matter peak estimation failed: %v", err)
		}
		fmt.Printf("White matter peak intensity: %.6f\n", peak)
		return
	}

	var out *volume.Volume
	switch *mode {
	case "fcm":
		out, err = tissue.FuzzyMask(img, brain, cfg.FuzzyOptions())
	case "gmm":
		out, err = tissue.MixtureMask(img, brain, cfg.MixtureOptions())
	default:
		log.Fatalf("Unknown mode %q (must be fcm or gmm)", *mode)
	}
	if err != nil {
		log.Fatalf("Mask extraction failed: %v", err)
	}

	if err := writeVolume(*outputFile, out); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	fmt.Printf("\nMask extraction completed successfully!\n")
	fmt.Printf("Output shape: %v\n", out.Shape)
	fmt.Printf("Output saved to: %s\n", *outputFile)

	if cfg.Output.HardSeg && cfg.Output.Verbose {
		printLabelSummary(out, *mode, cfg)
	}

	if cfg.Output.PlotFile != "" {
		if err := savePlot(img, brain, *mode, cfg); err != nil {
			log.Printf("Warning: Failed to save diagnostic plot: %v", err)
		} else {
			fmt.Printf("Diagnostic plot saved to: %s\n", cfg.Output.PlotFile)
		}
	}
}

// parseDims parses a dimension string such as "182x218x182" into a shape.
func parseDims(s string) ([]int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty dimension string")
	}
	shape := make([]int, len(parts))
	for i, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad dimension %q", part)
		}
		shape[i] = d
	}
	return shape, nil
}

// readVolume reads a raw little-endian voxel file into a volume of the given
// shape.
func readVolume(path string, shape []int, format string) (*volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	v := volume.New(shape...)
	switch format {
	case "float64":
		if err := binary.Read(f, binary.LittleEndian, v.Data); err != nil {
			return nil, fmt.Errorf("reading %d float64 voxels: %w", v.Len(), err)
		}
	case "float32":
		buf := make([]float32, v.Len())
		if err := binary.Read(f, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("reading %d float32 voxels: %w", v.Len(), err)
		}
		for i, val := range buf {
			v.Data[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unknown voxel format %q", format)
	}
	return v, nil
}

// writeVolume writes a volume as raw little-endian float64 voxels.
func writeVolume(path string, v *volume.Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return binary.Write(f, binary.LittleEndian, v.Data)
}

// printLabelSummary prints per-class voxel counts for a hard segmentation.
func printLabelSummary(out *volume.Volume, mode string, cfg *config.Config) {
	classes := cfg.Fuzzy.Clusters
	offset := 1
	if mode == "gmm" {
		classes = cfg.Mixture.Components
		offset = 2
	}

	counts := make([]int, classes)
	excluded := 0
	for _, val := range out.Data {
		if val == 0 {
			excluded++
			continue
		}
		if idx := int(val) - offset; idx >= 0 && idx < classes {
			counts[idx]++
		}
	}

	fmt.Printf("\nHard segmentation summary:\n")
	fmt.Printf("Excluded voxels: %d\n", excluded)
	for i, name := range models.Names(classes) {
		fmt.Printf("%s (label %d): %d voxels\n", name, i+offset, counts[i])
	}
}

// savePlot refits the selected model on the masked intensities and renders
// the diagnostic plot. The fits are deterministic, so the refit matches the
// model behind the mask output.
func savePlot(img, brain *volume.Volume, mode string, cfg *config.Config) error {
	mask, err := volume.InclusionMask(img, brain)
	if err != nil {
		return err
	}
	vals, err := mask.Gather(img)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return tissue.ErrEmptyMask
	}

	switch mode {
	case "gmm":
		model, err := gmm.Fit(vals, gmm.Params{
			Components:    cfg.Mixture.Components,
			Tolerance:     cfg.Mixture.Tolerance,
			MaxIterations: cfg.Mixture.MaxIterations,
		})
		if err != nil {
			return err
		}
		return plotting.SaveMixtureFit(vals, model, cfg.Output.PlotFile)
	default:
		model, err := fcm.Fit(vals, fcm.Params{
			Clusters:      cfg.Fuzzy.Clusters,
			Fuzziness:     cfg.Fuzzy.Fuzziness,
			Tolerance:     cfg.Fuzzy.Tolerance,
			MaxIterations: cfg.Fuzzy.MaxIterations,
		})
		if err != nil {
			return err
		}
		lo, hi := vals[0], vals[0]
		for _, v := range vals {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		return plotting.SaveMembershipProfile(model, lo, hi, cfg.Output.PlotFile)
	}
}

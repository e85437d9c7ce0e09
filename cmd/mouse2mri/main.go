package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"mouse2mri/internal/models"
	"mouse2mri/pkg/affine"
	"mouse2mri/pkg/atlas"
	"mouse2mri/pkg/catalog"
	"mouse2mri/pkg/config"
	"mouse2mri/pkg/orientation"
	"mouse2mri/pkg/transform"
)

func main() {
	// Parse command line arguments
	matrixPath := flag.String("matrix", "", "Path to the registration transform (.txt or .tfm)")
	referencePath := flag.String("reference", "", "Path to the reference volume affine (.txt, 4x4)")
	resolution := flag.Int("res", 100, "Atlas resolution in microns (25, 50 or 100)")
	pointArg := flag.String("point", "", "Single point to transform, as x,y,z")
	direction := flag.String("direction", "atlas2user", "Transform direction: atlas2user or user2atlas")
	streamlinesIn := flag.String("streamlines", "", "Path to a streamline JSON file (array of arrays of [x,y,z])")
	streamlinesOut := flag.String("out", "streamlines_transformed.json", "Output path for transformed streamlines")
	inMicrons := flag.Bool("microns", false, "Streamline vertices are in microns and must be scaled to voxels first")
	experimentID := flag.Int64("experiment", 0, "Catalog experiment ID: print its injection site and transform it")
	configPath := flag.String("config", "", "Optional YAML config file")
	flag.Parse()

	if *matrixPath == "" || *referencePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("MOUSE2MRI SPACE TRANSFORM")
	fmt.Println("Atlas (PIR) <-> user data space mapping")
	fmt.Println("================================")

	// Load the registration transform and the reference affine
	tx, err := affine.LoadMatrix(*matrixPath)
	if err != nil {
		log.Fatalf("Failed to load transform matrix: %v", err)
	}

	ref, err := affine.LoadMatrix(*referencePath)
	if err != nil {
		log.Fatalf("Failed to load reference affine: %v", err)
	}

	// Derive the user space axis convention from the reference affine
	userConv, err := orientation.FromAffine(ref.Matrix())
	if err != nil {
		log.Fatalf("Reference volume has invalid axis convention: %v", err)
	}
	voxelSize := orientation.VoxelSizeFromAffine(ref.Matrix())
	fmt.Printf("Reference space: %s convention, voxel size %.3f x %.3f x %.3f\n",
		userConv, voxelSize[0], voxelSize[1], voxelSize[2])
	fmt.Printf("Atlas resolution: %d um, bounding box %v voxels\n",
		*resolution, atlas.BoundingBox(atlas.Resolution(*resolution)))

	points, err := transform.NewPointTransformer(atlas.Resolution(*resolution), userConv, tx)
	if err != nil {
		log.Fatalf("Failed to build point transformer: %v", err)
	}

	switch {
	case *pointArg != "":
		runPoint(points, *pointArg, *direction)
	case *streamlinesIn != "":
		runStreamlines(points, cfg, *streamlinesIn, *streamlinesOut, *inMicrons, *resolution)
	case *experimentID != 0:
		runExperiment(points, cfg, *experimentID)
	default:
		fmt.Println("Nothing to do: pass -point, -streamlines or -experiment")
	}
}

// openCatalog builds the catalog provider the config points at.
func openCatalog(cfg *config.Config) (catalog.Provider, func() error, error) {
	if cfg.Catalog.SQLitePath != "" {
		p, err := catalog.OpenSQLite(cfg.Catalog.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	if cfg.Catalog.ExperimentsPath == "" {
		return nil, nil, fmt.Errorf("no catalog configured: set catalog.sqlitePath or catalog.experimentsPath")
	}
	p := catalog.NewJSONProvider(cfg.Catalog.ExperimentsPath, cfg.Catalog.StructuresPath)
	return p, func() error { return nil }, nil
}

// runExperiment looks an experiment up in the catalog and transforms its
// injection site into user space.
func runExperiment(points *transform.PointTransformer, cfg *config.Config, id int64) {
	provider, closeCatalog, err := openCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer func() {
		if err := closeCatalog(); err != nil {
			log.Printf("Warning: failed to close catalog: %v", err)
		}
	}()

	exps, err := provider.Experiments()
	if err != nil {
		log.Fatalf("Failed to load experiments: %v", err)
	}
	exp, err := catalog.FindExperiment(exps, id)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	roi, pos, hemisphere := catalog.InjectionInfo(exp)
	fmt.Printf("Experiment %d: injection in %s (%s hemisphere)\n", exp.ID, roi, hemisphere)
	fmt.Printf("Injection site (um): %.1f %.1f %.1f\n", pos[0], pos[1], pos[2])

	out, err := points.AtlasToUser(pos)
	if err != nil {
		log.Fatalf("Transform failed: %v", err)
	}
	fmt.Printf("Injection site (user vox): %.3f %.3f %.3f\n", out[0], out[1], out[2])
}

// runPoint transforms one coordinate and prints both representations.
func runPoint(points *transform.PointTransformer, arg, direction string) {
	p, err := parsePoint(arg)
	if err != nil {
		log.Fatalf("Bad -point value: %v", err)
	}

	switch direction {
	case "atlas2user":
		out, err := points.AtlasToUser(models.MicronPoint(p))
		if err != nil {
			log.Fatalf("Transform failed: %v", err)
		}
		fmt.Printf("Atlas (um):  %.1f %.1f %.1f\n", p[0], p[1], p[2])
		fmt.Printf("User (vox):  %.3f %.3f %.3f\n", out[0], out[1], out[2])
	case "user2atlas":
		out, err := points.UserToAtlas(models.VoxelPoint(p))
		if err != nil {
			log.Fatalf("Transform failed: %v", err)
		}
		fmt.Printf("User (vox):  %.3f %.3f %.3f\n", p[0], p[1], p[2])
		fmt.Printf("Atlas (um):  %.1f %.1f %.1f\n", out[0], out[1], out[2])
	default:
		log.Fatalf("Unknown direction %q (want atlas2user or user2atlas)", direction)
	}
}

// runStreamlines transforms a whole tractogram file.
func runStreamlines(points *transform.PointTransformer, cfg *config.Config, inPath, outPath string, inMicrons bool, res int) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatalf("Failed to read streamlines: %v", err)
	}
	var set models.StreamlineSet
	if err := json.Unmarshal(data, &set); err != nil {
		log.Fatalf("Failed to parse streamlines: %v", err)
	}
	fmt.Printf("Loaded %d streamlines (%d vertices)\n", len(set), set.TotalVertices())

	if inMicrons {
		fmt.Println("Scaling vertices from microns to atlas voxels...")
		set = set.Scale(float64(res))
	}

	st := transform.NewStreamlineTransformer(points)
	st.Workers = cfg.Transform.Workers
	st.FailFast = cfg.Transform.FailFast

	startTime := time.Now()
	out, err := st.Transform(set)
	if err != nil {
		log.Fatalf("Streamline transform failed: %v", err)
	}
	fmt.Printf("Transformed %d streamlines in %.2f seconds using %d workers\n",
		len(out), time.Since(startTime).Seconds(), cfg.Transform.Workers)

	encoded, err := json.Marshal(out)
	if err != nil {
		log.Fatalf("Failed to encode streamlines: %v", err)
	}
	if err := os.WriteFile(outPath, encoded, 0644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	fmt.Printf("Output written to: %s\n", outPath)
}

func parsePoint(s string) ([3]float64, error) {
	var p [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return p, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return p, err
		}
		p[i] = v
	}
	return p, nil
}

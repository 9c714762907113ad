// Command shaper-plot renders the acceleration shaper's creep and
// override curves as PNG files and an HTML page.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/kgkim70/openpilot/internal/monitoring"
	"github.com/kgkim70/openpilot/internal/security"
)

var (
	outDir = flag.String("out", ".", "Output directory")
	step   = flag.Float64("step", 0.1, "Sample step in m/s")
	html   = flag.Bool("html", true, "Also write shaper.html")
)

func main() {
	flag.Parse()
	monitoring.Setup(os.Stderr, "INFO", true)

	if *step <= 0 {
		monitoring.Logger.Fatal().Float64("step", *step).Msg("step must be positive")
	}
	if err := security.ValidateOutputPath(*outDir); err != nil {
		monitoring.Logger.Fatal().Err(err).Msg("refusing output directory")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		monitoring.Logger.Fatal().Err(err).Msg("failed to create output directory")
	}

	figs := figures(*step)
	paths, err := savePNG(*outDir, figs)
	if err != nil {
		monitoring.Logger.Fatal().Err(err).Msg("failed to render PNG")
	}
	for _, p := range paths {
		monitoring.Logf("wrote %s", p)
	}

	if *html {
		path := filepath.Join(*outDir, "shaper.html")
		f, err := os.Create(path)
		if err != nil {
			monitoring.Logger.Fatal().Err(err).Msg("failed to create HTML file")
		}
		defer f.Close()
		if err := renderHTML(f, figs); err != nil {
			monitoring.Logger.Fatal().Err(err).Msg("failed to render HTML")
		}
		monitoring.Logf("wrote %s", path)
	}
}

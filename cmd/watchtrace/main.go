// watchtrace is an interactive reviewer for smart watch sensor logs: it
// navigates a windowed view over the samples, annotates activities, flags bad
// GPS stretches and merges those flags back into the data file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/watchtrace/watchtrace/pkg/config"
	"github.com/watchtrace/watchtrace/pkg/history"
	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/plot"
	"github.com/watchtrace/watchtrace/pkg/review"
	"github.com/watchtrace/watchtrace/pkg/ui"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to the configuration file")
		openPath    = flag.String("open", "", "data file to open on startup")
		logLevel    = flag.String("log-level", "", "log level override (trace|debug|info|warn|error)")
		chartOut    = flag.String("render-chart", "", "render the opened file's first window to a PNG and exit")
		chartMode   = flag.String("chart-mode", "sensors", "chart to render with -render-chart (sensors|gps)")
		chartFields = flag.String("chart-fields", "", "comma-separated float fields for the sensor chart")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("watchtrace %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "watchtrace: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := logx.NewLogger(cfg.LogLevel, "watchtrace")
	session := review.NewSession(cfg, logger)

	if *chartOut != "" {
		if err := renderChart(logger, session, *openPath, *chartOut, *chartMode, *chartFields); err != nil {
			fmt.Fprintf(os.Stderr, "watchtrace: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// The TUI owns the terminal; logs go to the configured file or nowhere.
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "watchtrace: failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	var hist *history.Store
	if cfg.HistoryPath != "" {
		hist, err = history.Open(cfg.HistoryPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "watchtrace: %v\n", err)
			os.Exit(1)
		}
		defer hist.Close()
	}

	if err := ui.Run(cfg, *configPath, logger, session, hist, *openPath); err != nil {
		fmt.Fprintf(os.Stderr, "watchtrace: %v\n", err)
		os.Exit(1)
	}
}

// renderChart loads a data file and writes one chart headlessly, for
// inspecting a file without entering the shell.
func renderChart(logger *logx.Logger, session *review.Session, dataPath, outPath, mode, fields string) error {
	if dataPath == "" {
		return fmt.Errorf("-render-chart requires -open")
	}
	if err := session.Load(dataPath, nil, nil); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := plot.NewRenderer(logger, 0, 0)
	if mode == "gps" {
		return r.GPSPath(session.Index(), f)
	}

	var names []string
	for _, name := range strings.Split(fields, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("-render-chart needs -chart-fields for the sensor chart")
	}
	return r.SensorChart(session.Store(), names, f)
}

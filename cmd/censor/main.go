package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LdDl/censor-go/internal/config"
	"github.com/LdDl/censor-go/internal/logger"
	"github.com/LdDl/censor-go/internal/metrics"
	"github.com/LdDl/censor-go/internal/pipeline"
)

var version = "dev"

func main() {
	configPtr := flag.String("config", "censor.yaml", "Path to YAML config")
	inputPtr := flag.String("input", "", "Image file or directory of video frames")
	outputPtr := flag.String("output", "", "Output image file or directory (default: <input>_censored)")
	fpsPtr := flag.Float64("fps", 25, "Frame rate of the frame directory")
	metricsAddrPtr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	versionPtr := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionPtr {
		fmt.Println(version)
		return
	}

	// Best-effort: LOG_LEVEL and LOG_FORMAT may come from .env
	_ = godotenv.Load()
	log := logger.Setup()

	if *inputPtr == "" {
		log.Error("input_required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Error("config_load_failed", "path", *configPtr, "error", err)
		os.Exit(1)
	}

	if *metricsAddrPtr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: *metricsAddrPtr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics_server_failed", "addr", *metricsAddrPtr, "error", err)
			}
		}()
		defer srv.Close()
		log.Info("metrics_server_started", "addr", *metricsAddrPtr)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Error("pipeline_init_failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(*inputPtr)
	if err != nil {
		log.Error("input_stat_failed", "path", *inputPtr, "error", err)
		os.Exit(1)
	}
	output := *outputPtr
	tBegin := time.Now()
	if info.IsDir() {
		if output == "" {
			output = filepath.Clean(*inputPtr) + "_censored"
		}
		err = p.ProcessFrames(ctx, *inputPtr, output, *fpsPtr)
	} else {
		if output == "" {
			ext := filepath.Ext(*inputPtr)
			output = (*inputPtr)[:len(*inputPtr)-len(ext)] + "_censored" + ext
		}
		err = p.ProcessImage(ctx, *inputPtr, output)
	}
	if err != nil {
		log.Error("censor_failed", "input", *inputPtr, "error", err)
		os.Exit(1)
	}
	log.Info("censor_done", "input", *inputPtr, "output", output, "elapsed", time.Since(tBegin).String())
}

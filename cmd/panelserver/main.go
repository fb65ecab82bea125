// Command panelserver serves panel segmentation over HTTP.
//
// Settings come from the environment (or a .env file):
//
//	PANELSEG_ADDR          listen address (default :8080)
//	PANELSEG_PRESET        default preset (improved or classic)
//	PANELSEG_CONFIG        YAML configuration file applied over the preset
//	PANELSEG_JPEG_QUALITY  panel image quality
//	PANELSEG_DEBUG         log requests and pipeline stages
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"panel-segmenter/internal/api"
	"panel-segmenter/internal/config"
	"panel-segmenter/internal/cv"
	"panel-segmenter/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	addr := flag.String("addr", "", "Listen address (overrides PANELSEG_ADDR)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	env, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	if *addr != "" {
		env.Addr = *addr
	}

	cfg, err := env.Resolve()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *log.Logger
	if env.Debug {
		logger = log.Default()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := api.NewServer(cv.New(cfg.Masks), cfg.Params, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              env.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting %s on %s (preset %s)", version.String(), env.Addr, cfg.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

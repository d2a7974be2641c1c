package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/vibration.report/internal/analysis"
	"github.com/banshee-data/vibration.report/internal/api"
	"github.com/banshee-data/vibration.report/internal/broadcast"
	"github.com/banshee-data/vibration.report/internal/config"
	"github.com/banshee-data/vibration.report/internal/db"
	"github.com/banshee-data/vibration.report/internal/record"
	"github.com/banshee-data/vibration.report/internal/serialmux"
	"github.com/banshee-data/vibration.report/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS
	devMode     = flag.Bool("dev", false, "Run in dev mode (replay fixtures.txt instead of opening a serial port)")
	listen      = flag.String("listen", ":8080", "Listen address")
	portPath    = flag.String("port", "", "Serial port device path (default: first enabled config in the database)")
	baudRate    = flag.Int("baud", 115200, "Serial port baud rate")
	recordDir   = flag.String("recordings", "recordings", "Directory for recording session CSV files")
	dbFile      = flag.String("db", "imu.db", "SQLite database path")
	tuningFile  = flag.String("config", "", "Optional analysis tuning JSON file")
	trace       = flag.Bool("trace", false, "Log every processed sample and add file locations to log output")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *trace {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	log.Printf("vibration.report %s (%s)", version.Version, version.GitSHA)

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var m serialmux.SerialMuxInterface
	if *devMode {
		data, err := os.ReadFile("fixtures.txt")
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		m = serialmux.NewMockSerialMux(data)
	} else {
		path := *portPath
		opts := serialmux.PortOptions{BaudRate: *baudRate}
		if path == "" {
			configs, err := database.GetEnabledSerialConfigs()
			if err != nil || len(configs) == 0 {
				log.Fatalf("no -port given and no enabled serial config in database (%v)", err)
			}
			c := configs[0]
			path = c.PortPath
			opts = serialmux.PortOptions{
				BaudRate: c.BaudRate,
				DataBits: c.DataBits,
				StopBits: c.StopBits,
				Parity:   c.Parity,
			}
			log.Printf("using serial config %q -> %s @ %d baud", c.Name, path, c.BaudRate)
		}
		m, err = serialmux.NewRealSerialMux(path, opts)
		if err != nil {
			log.Fatalf("failed to open serial port %s: %v", path, err)
		}
	}
	defer m.Close()

	tuning := &config.TuningConfig{}
	if *tuningFile != "" {
		tuning, err = config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		log.Printf("loaded analysis tuning from %s", *tuningFile)
	}

	processor := analysis.NewProcessor(tuning.EngineParams(), tuning.GetWindowCapacity(), tuning.GetRecentCapacity())
	hub := broadcast.NewHub()
	recorder := record.NewRecorder(*recordDir)
	srv := api.NewServer(m, database, processor, hub, recorder)
	srv.SetTrace(*trace)

	// Wait group for the HTTP server, serial monitor, and pipeline routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// sync the device clock and select the output format once the monitor is up
	if err := m.Initialize(); err != nil {
		log.Printf("failed to initialize sensor: %v", err)
	}

	// subscribe to serial port lines and drive them through the pipeline:
	// decode, analyze, broadcast, record
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := m.Subscribe()
		defer m.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				srv.HandleLine(payload)
			case <-ctx.Done():
				log.Printf("pipeline routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)
		m.AttachAdminRoutes(mux)

		// mount the API, websocket, and command handlers
		apiMux := srv.ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/ws/", apiMux)
		mux.Handle("/command", apiMux)

		// read static files from the embedded filesystem in production or from
		// the local ./static in dev for easier iteration without restarting the
		// server; both serve the dashboard at /
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticFS, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("failed to mount static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(staticFS))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()

	// close any recording session still running so its file is flushed and
	// the catalog row completed
	if meta := recorder.Stop(); meta.ID != "" {
		if err := database.RecordSessionStop(meta.ID, recorder.Frames()); err != nil {
			log.Printf("failed to catalog session stop: %v", err)
		}
	}

	log.Printf("Graceful shutdown complete")
}

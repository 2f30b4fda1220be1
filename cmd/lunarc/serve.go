package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	lunarcapi "github.com/lemonberrylabs/lunarc/pkg/api"
	grpcapi "github.com/lemonberrylabs/lunarc/pkg/api/grpc"
	"github.com/lemonberrylabs/lunarc/pkg/config"
	"github.com/lemonberrylabs/lunarc/pkg/store"
	"github.com/lemonberrylabs/lunarc/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lunarc program/execution registry server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	serveCmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().Int("workers", 0, "Interpreted-execution worker pool size (default 8, env WORKERS)")
	serveCmd.Flags().String("programs-dir", "", "Directory of .lunar source files to load on startup (env PROGRAMS_DIR)")
}

// runServe wires pkg/config, pkg/store, pkg/api, pkg/api/grpc and web into a
// running server, grounded on the teacher's cmd/gcw-emulator/main.go: same
// flag-then-env-then-default layering, same dual fiber+grpc startup, same
// recover()-guarded web UI registration, same signal.Notify shutdown
// goroutine.
func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := config.EnvOrDefault("LUNARC_CONFIG", "")
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	port := config.EnvOrDefault("PORT", fmt.Sprintf("%d", cfg.Port))
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	grpcPort := config.EnvOrDefault("GRPC_PORT", fmt.Sprintf("%d", cfg.GRPCPort))
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		grpcPort = fmt.Sprintf("%d", v)
	}

	host := config.EnvOrDefault("HOST", cfg.Host)
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	workers := cfg.Workers
	if v := os.Getenv("WORKERS"); v != "" {
		fmt.Sscanf(v, "%d", &workers)
	}
	if v, _ := cmd.Flags().GetInt("workers"); v != 0 {
		workers = v
	}

	programsDir := config.EnvOrDefault("PROGRAMS_DIR", cfg.ProgramsDir)
	if v, _ := cmd.Flags().GetString("programs-dir"); v != "" {
		programsDir = v
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	s := store.New()
	server := lunarcapi.New(s, workers)

	if programsDir != "" {
		log.Printf("Loading programs directory: %s", programsDir)
		if err := server.WatchDir(programsDir); err != nil {
			log.Printf("Warning: failed to load programs directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(s)
		ui.Register(server.App())
	}()

	// Start gRPC server
	grpcServer := grpcapi.New(s)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down lunarc server...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("lunarc server listening on %s (workers=%d)", addr, workers)
	if programsDir != "" {
		log.Printf("Programs directory: %s", programsDir)
	} else {
		log.Printf("API-only mode (no --programs-dir specified)")
	}
	return server.Listen(addr)
}

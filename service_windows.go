//go:build windows

// Windows service support via github.com/kardianos/service. The generator
// can be installed as a background service and managed with the standard
// install/uninstall/start/stop commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kardianos/service"

	"pano_backend/core"
	"pano_backend/logging"
)

// Program implements service.Interface. It runs the same lifecycle as the
// interactive path, with service Stop standing in for SIGTERM.
type Program struct {
	ctx    context.Context
	cancel context.CancelFunc
	exit   chan struct{}
}

func (p *Program) Start(s service.Service) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

func (p *Program) Stop(s service.Service) error {
	p.cancel()

	select {
	case <-p.exit:
	case <-time.After(60 * time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}
	return nil
}

func (p *Program) run() {
	defer close(p.exit)

	godotenv.Load()
	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "app.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return
	}
	defer logger.Sync()

	run(p.ctx, logger, isDevelopment)
}

// ServiceConfig returns the Windows service definition.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "PanoramaBackend",
		DisplayName: "Panorama Generation Service",
		Description: "Generates 360-degree equirectangular panoramas from text prompts",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
}

// RunAsService runs the application under the service manager. Returns
// false when the process was started interactively.
func RunAsService() (bool, error) {
	prg := &Program{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return false, fmt.Errorf("failed to create service: %w", err)
	}

	if service.Interactive() {
		return false, nil
	}

	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}
	return true, nil
}

func newServiceHandle() (service.Service, error) {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

// HandleServiceCommand dispatches service management arguments. Returns
// true when a command was handled and the process should exit.
func HandleServiceCommand(args []string) bool {
	if len(args) < 2 {
		return false
	}

	s, err := newServiceHandle()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}

	switch args[1] {
	case "install":
		err = s.Install()
		if err == nil {
			fmt.Println("Service installed successfully")
		}
	case "uninstall", "remove":
		err = s.Uninstall()
		if err == nil {
			fmt.Println("Service uninstalled successfully")
		}
	case "start":
		err = s.Start()
		if err == nil {
			fmt.Println("Service started successfully")
		}
	case "stop":
		err = s.Stop()
		if err == nil {
			fmt.Println("Service stopped successfully")
		}
	case "restart":
		err = s.Restart()
		if err == nil {
			fmt.Println("Service restarted successfully")
		}
	case "status":
		status, statusErr := s.Status()
		if statusErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", statusErr)
			os.Exit(core.ExitCodeError)
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service is running")
		case service.StatusStopped:
			fmt.Println("Service is stopped")
		default:
			fmt.Println("Service status unknown")
		}
		return true
	case "help", "-h", "--help":
		printServiceUsage()
		return true
	default:
		return false
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	return true
}

func printServiceUsage() {
	fmt.Println("Panorama Backend Service Management")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install    Install as a Windows service")
	fmt.Println("  uninstall  Remove the Windows service (alias: remove)")
	fmt.Println("  start      Start the service")
	fmt.Println("  stop       Stop the service")
	fmt.Println("  restart    Restart the service")
	fmt.Println("  status     Show the service status")
	fmt.Println("  help       Show this message")
	fmt.Println()
	fmt.Println("Run without arguments to start in foreground mode.")
}

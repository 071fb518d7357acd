package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"cryptoforge/internal/config"
	"cryptoforge/internal/server"
	"cryptoforge/internal/version"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CRYPTOFORGE_CONFIG"), "path to the YAML config file")
	flag.StringVar(&configPath, "c", os.Getenv("CRYPTOFORGE_CONFIG"), "path to the YAML config file (shorthand)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	s, err := server.New(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	if err := s.Start(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/daimatz/jvmcore/pkg/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "demo":
		err = demoCmd(os.Args[2:])
	case "types":
		err = typesCmd()
	case "connect":
		err = connectCmd(os.Args[2:])
	case "version":
		fmt.Println("jvmcore version", version)
	case "help":
		printUsage()
	default:
		printError(fmt.Sprintf("unknown command %q", os.Args[1]))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		printError("Error: " + err.Error())
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: jvmcore <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run [class] [args...]      run the static main of class (default runtime.main)")
	fmt.Println("  demo                       run the built-in unit roster")
	fmt.Println("  types                      list the loadable types and interfaces")
	fmt.Println("  connect [address] [port]   send stdin lines to a server until the sentinel")
	fmt.Println("  version                    print the version")
	fmt.Println("  help                       print this help")
	fmt.Println()
	fmt.Printf("Settings are read from %s in the working directory or a parent.\n", config.FileName)
}

func printError(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// loadConfig finds the configuration file and builds the logger from it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	cfg, path, err := config.FindAndLoad(wd)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return cfg, logger, nil
}

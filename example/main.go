// FILE: lixenwraith/layered/example/main.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/lixenwraith/layered"
)

// AppConfig is the typed view of the example configuration.
// Runtime layers merge shallowly, so values meant to be overridden one by one
// live at the top level.
type AppConfig struct {
	Host         string          `toml:"host"`
	Port         int64           `toml:"port"`
	LogLevel     string          `toml:"log_level"`
	FeatureFlags map[string]bool `toml:"feature_flags"`
	Profiles     map[string]any  `toml:"profiles"`
}

const configFilePath = "config.toml"

func main() {
	// =========================================================================
	// PART 1: INITIAL SETUP
	// Write a config file to disk for the builder to read.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Creating initial configuration file...")

	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.Remove(configFilePath)
		os.Unsetenv("APP_PORT")
		log.Printf("Removed %s and unset APP_PORT.", configFilePath)
	}()

	if err := createInitialConfigFile(); err != nil {
		log.Fatalf("❌ Failed during initial file creation: %v", err)
	}
	log.Printf("✅ Initial configuration saved to %s.", configFilePath)

	// =========================================================================
	// PART 2: LAYERS FROM THE BUILDER
	// Defaults < file < environment < command line.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Assembling layers with the Builder...")

	os.Setenv("APP_PORT", "8888")
	log.Println("   (Set environment variable APP_PORT=8888)")

	defaults := &AppConfig{}
	defaults.Host = "0.0.0.0"
	defaults.Port = 80
	defaults.LogLevel = "warn"

	validator := func(r *layered.Resolver) error {
		port, err := r.Int64("port")
		if err != nil {
			return err
		}
		if port < 1024 || port > 65535 {
			return fmt.Errorf("port %d is outside the recommended range (1024-65535)", port)
		}
		return nil
	}

	r, err := layered.NewBuilder().
		WithDefaults(defaults).
		WithFile(configFilePath).
		WithEnvPrefix("APP_").
		WithArgs(os.Args[1:]).
		WithLogger(layered.NewLogger("INFO", os.Stderr)).
		WithValidator(validator).
		Build()
	if err != nil {
		log.Fatalf("❌ Builder failed: %v", err)
	}
	log.Println("✅ Builder finished successfully.")
	printCurrentState(r, "Initial State (Env overrides File)")

	// =========================================================================
	// PART 3: RUNTIME LAYERS
	// Profiles pulled from the file, runtime overrides and lazy values.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Adding runtime layers...")

	// The profile becomes a source of its own, above everything loaded so far
	if err := r.Add("profiles.debug"); err != nil {
		log.Fatalf("❌ Adding profile failed: %v", err)
	}
	log.Println("   (Added profiles.debug from the merged view)")

	// Prepending puts a fallback below every other layer
	if err := r.AddAt(layered.PositionPrepend, layered.Source{
		"log_format": "json",
	}); err != nil {
		log.Fatalf("❌ Adding fallback failed: %v", err)
	}
	logFormat, _ := r.String("log_format")
	log.Printf("✅ Fallback log_format: %s", logFormat)

	// A lazy default is computed from the merged view only when no source has the key
	adminPort, err := r.Int64("admin_port", layered.ReadOptions{
		IsLazy:  layered.SwitchOn,
		Default: layered.Expr("int(port) + 1000"),
	})
	if err != nil {
		log.Fatalf("❌ Lazy admin_port failed: %v", err)
	}
	log.Printf("✅ Lazy admin_port resolved to %d", adminPort)

	bind, _ := r.Find(layered.ReadOptions{Default: "127.0.0.1"}, "bind_address", "host")
	log.Printf("✅ Bind address from fallback chain: %v", bind)

	printCurrentState(r, "Final State (Profile applied)")

	// =========================================================================
	// PART 4: STRICT AND FATAL
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 4: Error policy...")

	r.SetStrict(true)
	_ = r.Add("profiles.missing") // logged, not returned

	r.SetFatal(true)
	if err := r.Add("profiles.missing"); errors.Is(err, layered.ErrPropertyNotFound) {
		log.Printf("✅ Fatal mode returned: %v", err)
	}

	fmt.Print(r.Debug())
}

// createInitialConfigFile writes the file layer of the example.
func createInitialConfigFile() error {
	r := layered.New(layered.WithSources(layered.Source{
		"host":          "localhost",
		"port":          8080,
		"log_level":     "info",
		"feature_flags": map[string]any{"enable_metrics": true},
		"profiles": map[string]any{
			"debug": map[string]any{
				"log_level":     "debug",
				"feature_flags": map[string]any{"enable_metrics": true, "enable_tracing": true},
			},
		},
	}))
	return r.Save(configFilePath)
}

// printCurrentState decodes and displays the typed config state.
func printCurrentState(r *layered.Resolver, title string) {
	var cfg AppConfig
	if err := r.Scan("", &cfg); err != nil {
		log.Fatalf("❌ Scan failed: %v", err)
	}

	fmt.Println("   --------------------------------------------------")
	fmt.Printf("             %s\n", title)
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("     Sources:          %d\n", r.Len())
	fmt.Printf("     Server Host:      %s\n", cfg.Host)
	fmt.Printf("     Server Port:      %d\n", cfg.Port)
	fmt.Printf("     Server Log Level: %s\n", cfg.LogLevel)
	fmt.Printf("     Feature Flags:    %v\n", cfg.FeatureFlags)
	fmt.Println("   --------------------------------------------------")
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oarkflow/guard"
	"github.com/oarkflow/guard/stores"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "convert":
		handleConvert()
	case "validate":
		handleValidate()
	case "stats":
		handleStats()
	case "check":
		handleCheck()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("guard-config - Configuration tool for guard")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  guard-config convert <input> <output>            - Convert between formats")
	fmt.Println("  guard-config validate <file>                     - Validate configuration")
	fmt.Println("  guard-config stats <file>                        - Show configuration statistics")
	fmt.Println("  guard-config check <file> <role> <action>        - Dry-run a decision against the fallback table")
	fmt.Println()
	fmt.Println("Supported formats: .yaml, .yml, .json")
}

func handleConvert() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: guard-config convert <input> <output>")
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[2])
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := saveConfig(cfg, os.Args[3]); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Converted %s -> %s\n", os.Args[2], os.Args[3])
}

func handleValidate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: guard-config validate <file>")
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[2])
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if unknown := cfg.UnknownPermissionKeys(); len(unknown) > 0 {
		fmt.Println("Warning: permission keys outside the canonical set (they resolve to false):")
		for _, k := range unknown {
			fmt.Printf("  %s\n", k)
		}
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Version: %d\n", cfg.Version)
	fmt.Printf("  Policy entries: %d\n", len(cfg.Policy))
	fmt.Printf("  Fallback roles: %d\n", len(cfg.FallbackRoles))
}

func handleStats() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: guard-config stats <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	stat, _ := os.Stat(filename)

	fmt.Println("Configuration Statistics")
	fmt.Println("========================")
	if stat != nil {
		fmt.Printf("File size: %d bytes\n", stat.Size())
	}
	fmt.Printf("Version: %d\n", cfg.Version)
	fmt.Println()

	fmt.Println("Components:")
	fmt.Printf("  Policy entries: %d\n", len(cfg.Policy))
	fmt.Printf("  Fallback roles: %d\n", len(cfg.FallbackRoles))
	fmt.Println()

	if len(cfg.FallbackRoles) > 0 {
		totalPerms := 0
		granted := 0
		for _, r := range cfg.FallbackRoles {
			totalPerms += len(r.Permissions)
			for _, v := range r.Permissions {
				if v {
					granted++
				}
			}
		}
		fmt.Println("Fallback Role Details:")
		fmt.Printf("  Total permission entries: %d\n", totalPerms)
		fmt.Printf("  Granted entries:          %d\n", granted)
		fmt.Printf("  Avg per role:             %.1f\n", float64(totalPerms)/float64(len(cfg.FallbackRoles)))
		fmt.Println()
	}

	override := cfg.OverridePermission
	if override == "" {
		override = guard.DefaultOverridePermission
	}
	fmt.Println("Engine Configuration:")
	fmt.Printf("  Role cache TTL:        %dms\n", cfg.RoleCacheTTL)
	fmt.Printf("  Override permission:   %s\n", override)
	fmt.Printf("  Decision cache:        enabled=%v ttl=%dms\n", cfg.DecisionCache.Enabled, cfg.DecisionCache.TTL)
}

// handleCheck evaluates a decision using only the config's fallback table,
// which is what production would see if the remote store went down.
func handleCheck() {
	if len(os.Args) < 5 {
		fmt.Println("Usage: guard-config check <file> <role> <action>")
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[2])
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// an always-empty source forces the fallback path
	eng, _, err := guard.NewFromConfig(stores.NewMemoryRoleSource(), cfg, nil)
	if err != nil {
		fmt.Printf("Error building engine: %v\n", err)
		os.Exit(1)
	}

	d := eng.ExplainRequest(context.Background(), &guard.CheckRequest{
		SubjectID: "dry-run",
		Role:      os.Args[3],
		Action:    os.Args[4],
	})

	fmt.Printf("Decision: allowed=%v reason=%s\n", d.Allowed, d.Reason)
	fmt.Printf("  Required: %v\n", d.Required)
	fmt.Printf("  Missing:  %v\n", d.Missing)
	for _, line := range d.Trace {
		fmt.Printf("  %s\n", line)
	}
	if !d.Allowed {
		os.Exit(2)
	}
}

func loadConfig(filename string) (*guard.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	loader := guard.NewConfigLoader()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return loader.LoadYAML(data)
	case ".json":
		return loader.LoadJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", filename)
	}
}

func saveConfig(cfg *guard.Config, filename string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = cfg.ToYAML()
	case ".json":
		data, err = cfg.ToJSON()
	default:
		return fmt.Errorf("unsupported format: %s", filename)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

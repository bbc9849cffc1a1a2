// cmd/autoinstaller/main.go - headless front end for building a selection record.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/autoinstaller/pkg/catalog"
	"github.com/windowsadmins/autoinstaller/pkg/config"
	"github.com/windowsadmins/autoinstaller/pkg/drives"
	"github.com/windowsadmins/autoinstaller/pkg/logging"
	"github.com/windowsadmins/autoinstaller/pkg/record"
	"github.com/windowsadmins/autoinstaller/pkg/selection"
	"github.com/windowsadmins/autoinstaller/pkg/version"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("autoinstaller", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", config.ConfigPath, "Path to Config.yaml.")
	catalogPath := flags.String("catalog", "", "Catalog source to load instead of the configured one.")
	outputPath := flags.String("output", "", "Where to write the selection record instead of the configured path.")
	isoPath := flags.String("iso", "", "Windows ISO image to install from.")
	drive := flags.String("drive", "", "Target removable drive identifier.")
	selectAll := flags.Bool("select-all", false, "Select every software package in the catalog.")
	listCatalog := flags.Bool("list", false, "List the catalog with the current selection and exit.")
	listDrives := flags.Bool("list-drives", false, "List removable drives and exit.")
	preview := flags.Bool("preview", false, "Print the selected configuration without saving it.")
	checkCatalog := flags.Bool("check-catalog", false, "Validate the catalog source and exit.")
	showConfig := flags.Bool("show-config", false, "Display the current configuration and exit.")
	writeConfig := flags.Bool("write-config", false, "Write the effective configuration to --config and exit.")
	versionFlag := flags.Bool("version", false, "Print the version and exit.")

	var selections []string
	flags.StringArrayVar(&selections, "select", nil, "Select a package as category/id (repeatable).")

	var verbosity int
	flags.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *versionFlag {
		if verbosity > 0 {
			version.FprintFull(stdout)
		} else {
			version.Fprint(stdout)
		}
		return exitOK
	}

	cfg, err := config.LoadConfigFrom(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *outputPath != "" {
		cfg.SelectionPath = *outputPath
	}
	if verbosity > 0 {
		cfg.Verbose = true
		if verbosity >= 2 {
			cfg.Debug = true
		}
	}

	if *showConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to render configuration: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Current configuration:\n%s", data)
		return exitOK
	}

	if *writeConfig {
		if err := config.SaveConfigTo(*configPath, cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to write configuration: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Configuration written to %s\n", *configPath)
		return exitOK
	}

	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(stderr, "Error initializing logger: %v\n", err)
		return exitError
	}
	defer logging.CloseLogger()
	if cfg.Verbose {
		fmt.Fprintf(stdout, "Log session %s in %s\n", logging.GetSessionID(), logging.GetCurrentLogDir())
	}

	if *listDrives {
		return printDrives(stdout, stderr)
	}

	if *checkCatalog {
		return checkCatalogSource(cfg.CatalogPath, stdout, stderr)
	}

	cat := catalog.Load(cfg.CatalogPath)
	mgr := selection.New(cat, record.FileSink{Path: cfg.SelectionPath})

	mgr.SetISOPath(*isoPath)
	mgr.SetDrive(*drive)
	if *selectAll {
		mgr.SelectAll()
	}
	for _, s := range selections {
		key, err := catalog.ParseKey(s)
		if err == nil {
			err = mgr.Toggle(key.Category, key.Software, true)
		}
		if err != nil {
			fmt.Fprintf(stderr, "Invalid --select %q: %v\n", s, err)
			return exitUsage
		}
	}

	if *listCatalog {
		printCatalog(stdout, mgr)
		return exitOK
	}

	if *preview {
		fmt.Fprint(stdout, mgr.Preview())
		return exitOK
	}

	rec, err := mgr.Commit()
	switch {
	case errors.Is(err, selection.ErrMissingISO):
		fmt.Fprintln(stderr, "Select a Windows 11 ISO file with --iso.")
		return exitUsage
	case err != nil:
		fmt.Fprintf(stderr, "Failed to save the selection: %v\n", err)
		return exitError
	}

	fmt.Fprintf(stdout, "Configuration saved to %s (%d packages).\n", cfg.SelectionPath, len(rec.Software))
	fmt.Fprintln(stdout, "The install commands will run during the unattended Windows setup.")
	return exitOK
}

func printCatalog(w io.Writer, mgr *selection.Manager) {
	for _, cat := range mgr.Catalog().Categories() {
		fmt.Fprintln(w, cat.Label())
		for _, e := range cat.Entries {
			mark := " "
			if selected, _ := mgr.IsSelected(cat.ID, e.ID); selected {
				mark = "x"
			}
			line := fmt.Sprintf("  [%s] %s/%s  %s", mark, cat.ID, e.ID, e.DisplayName)
			if e.Description != "" {
				line += " - " + e.Description
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printDrives(stdout, stderr io.Writer) int {
	list, err := drives.List()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to list drives: %v\n", err)
		return exitError
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout, "No removable drives found.")
		return exitOK
	}
	for _, d := range list {
		fmt.Fprintf(stdout, "%s\t%s\t%d\n", d.ID, d.Label, d.Size)
	}
	return exitOK
}

func checkCatalogSource(path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Catalog source unavailable, the built-in catalog would be used: %v\n", err)
		return exitError
	}
	cat, err := catalog.Parse(data)
	if err != nil {
		fmt.Fprintf(stderr, "Catalog %s rejected: %v\n", path, err)
		return exitError
	}
	fmt.Fprintf(stdout, "Catalog %s OK: %d categories, %d entries\n", path, len(cat.Categories()), cat.Len())
	return exitOK
}

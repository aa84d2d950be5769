package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"schoolphoto-ingest/ingest"
)

func main() {
	var configPath string
	var dbPath string
	var strict bool
	var onDuplicate string
	var archiveDir string
	var errorDir string
	var debug bool

	flag.StringVar(&configPath, "config", "", "YAML config file path.")
	flag.StringVar(&dbPath, "db", "schoolphoto.db", "SQLite database path.")
	flag.BoolVar(&strict, "strict", false, "Abort the import when any school name cannot be matched.")
	flag.StringVar(&onDuplicate, "on-duplicate", "", "Duplicate report-date policy: supersede or reject.")
	flag.StringVar(&archiveDir, "archive-dir", "", "Move successfully imported files here.")
	flag.StringVar(&errorDir, "error-dir", "", "Move failed files here.")
	flag.BoolVar(&debug, "debug", false, "Enable debug logs.")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: schoolphoto-ingest [flags] report.xlsx...")
		os.Exit(2)
	}

	visited := map[string]bool{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})

	// Base config from file (optional)
	fileCfg := &ingest.FileConfig{}
	if configPath != "" {
		cfg, err := ingest.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
		fileCfg = cfg
	}

	// Merge config + CLI overrides
	finalDB := fileCfg.DB
	if finalDB == "" || visited["db"] {
		finalDB = dbPath
	}

	finalMode := ingest.EntityMode(fileCfg.EntityMode)
	if visited["strict"] {
		if strict {
			finalMode = ingest.EntityModeStrict
		} else {
			finalMode = ingest.EntityModeCreate
		}
	}

	switch finalMode {
	case "", ingest.EntityModeCreate, ingest.EntityModeStrict, ingest.EntityModeLenient:
	default:
		fmt.Fprintf(os.Stderr, "unknown entity_mode value %q\n", finalMode)
		os.Exit(2)
	}

	finalOnDuplicate := ingest.DuplicatePolicy(fileCfg.OnDuplicate)
	if visited["on-duplicate"] {
		finalOnDuplicate = ingest.DuplicatePolicy(onDuplicate)
	}
	switch finalOnDuplicate {
	case "", ingest.DuplicateSupersede, ingest.DuplicateReject:
	default:
		fmt.Fprintf(os.Stderr, "unknown -on-duplicate value %q\n", finalOnDuplicate)
		os.Exit(2)
	}

	finalArchiveDir := fileCfg.ArchiveDir
	if visited["archive-dir"] {
		finalArchiveDir = archiveDir
	}
	finalErrorDir := fileCfg.ErrorDir
	if visited["error-dir"] {
		finalErrorDir = errorDir
	}
	finalDebug := fileCfg.Debug
	if visited["debug"] {
		finalDebug = debug
	}

	log := logrus.New()
	if finalDebug {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := ingest.OpenDB(finalDB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if len(fileCfg.ManagerAliases) > 0 {
		if err := ingest.SeedManagerAliases(db, fileCfg.ManagerAliases); err != nil {
			log.Fatalf("seed manager aliases: %v", err)
		}
	}

	importer := ingest.NewImporter(db, ingest.ImporterConfig{
		EntityMode:   finalMode,
		OnDuplicate:  finalOnDuplicate,
		NameMappings: fileCfg.SchoolNameMappings,
		Logger:       log,
	})

	failed := 0
	for _, path := range flag.Args() {
		result, err := importer.ImportFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: import failed: %v\n", result.FileName, err)
			for _, name := range result.UnmatchedSchools {
				fmt.Fprintf(os.Stderr, "  unmatched school: %s\n", name)
			}
			if finalErrorDir != "" {
				if _, mvErr := ingest.MoveFileToDir(path, finalErrorDir); mvErr != nil {
					log.Warnf("move to error dir: %v", mvErr)
				}
			}
			continue
		}

		fmt.Printf("%s: imported report %d (%s)\n",
			result.FileName, result.ReportID, result.ReportDate.Format("2006-01-02"))
		keys := make([]string, 0, len(result.Stats))
		for k := range result.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %d\n", k, result.Stats[k])
		}
		if result.DroppedRows > 0 {
			fmt.Printf("  dropped rows: %d\n", result.DroppedRows)
		}
		for _, w := range result.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		if finalArchiveDir != "" {
			if _, mvErr := ingest.MoveFileToDir(path, finalArchiveDir); mvErr != nil {
				log.Warnf("move to archive dir: %v", mvErr)
			}
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

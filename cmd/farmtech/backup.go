package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/farmtech/irrigation/internal/backup"
	"github.com/farmtech/irrigation/internal/config"
)

func runBackup(args []string) int {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	output := fs.String("output", "", "archive path (default <data_dir>/backups/farmtech-backup-<time>.tar.gz)")
	withConfig := fs.Bool("with-config", true, "include the configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	archive := *output
	if archive == "" {
		archive = filepath.Join(v.GetString("server.data_dir"), "backups", backup.DefaultArchiveName(time.Now()))
	}
	cfgFile := ""
	if *withConfig {
		cfgFile = v.ConfigFileUsed()
	}

	if err := backup.Backup(context.Background(), v.GetString("database.path"), cfgFile, archive); err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		return 1
	}
	fmt.Println(archive)
	return 0
}

func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	target := fs.String("target", ".", "directory to restore into")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: farmtech restore [-target dir] [-force] <archive.tar.gz>")
		return 2
	}

	m, err := backup.Restore(context.Background(), fs.Arg(0), *target, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		return 1
	}
	if m != nil {
		fmt.Printf("restored %s (version %s, created %s) into %s\n",
			m.Database, m.Version, m.CreatedAt.Format(time.RFC3339), *target)
	} else {
		fmt.Printf("restored into %s\n", *target)
	}
	return 0
}

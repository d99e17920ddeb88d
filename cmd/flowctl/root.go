package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/SiteBot/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowctl",
		Short:         "flowctl checks SiteBot tenant flow files",
		Long:          `flowctl validates tenant YAML files the way the server does before publishing, and renders flows as Mermaid diagrams.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(), newGraphCmd())
	return root
}

// loadTenantFiles expands each argument, a file or a directory of YAML files.
func loadTenantFiles(paths []string) ([]*store.TenantFile, error) {
	var files []*store.TenantFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			dirFiles, err := store.LoadTenantDir(p)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}
		tf, err := store.LoadTenantFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, tf)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no tenant files found in %s", filepath.Join(paths...))
	}
	return files, nil
}

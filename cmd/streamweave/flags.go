package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func validateCompileOptions(opts compileOptions) error {
	if strings.TrimSpace(opts.PlanPath) == "" {
		return fmt.Errorf("plan file is required")
	}

	if err := checkFile(opts.PlanPath, "plan"); err != nil {
		return err
	}

	if strings.TrimSpace(opts.ConfigPath) != "" {
		if err := checkFile(opts.ConfigPath, "config"); err != nil {
			return err
		}
	}

	return nil
}

func checkFile(path, label string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s path: %w", label, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%s file does not exist: %w", label, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s path %s is a directory", label, abs)
	}

	return nil
}

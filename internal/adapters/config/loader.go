// Package config provides the configuration loader for weld.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the name of the configuration file looked up by the CLI.
const DefaultFilename = "weld.yaml"

// defaultStagingDir is used when staging is enabled without a directory.
const defaultStagingDir = ".weld"

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	logger ports.Logger
}

// NewLoader creates a new FileConfigLoader.
func NewLoader(logger ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{logger: logger}
}

// Load reads the configuration at path. A missing file yields an empty config.
func (l *FileConfigLoader) Load(path string) (*domain.Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("no config file, using flags only", "path", path)
		return &domain.Config{}, nil
	}
	return cfg, err
}

// Load reads a configuration file from the given path. Relative paths in the
// file are resolved against the file's directory.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", path)
	}

	var file Weldfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", path)
	}
	if file.Version != "" && file.Version != "1" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unsupported config version"), "version", file.Version)
	}

	for _, pattern := range slices.Concat(file.Include, file.Exclude) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, zerr.With(errors.Join(domain.ErrInvalidPattern, err), "pattern", pattern)
		}
	}

	root := filepath.Dir(path)
	cfg := &domain.Config{
		Module:                    resolvePath(root, file.Module),
		Output:                    resolvePath(root, file.Output),
		References:                resolvePaths(root, file.References),
		ReferenceDirs:             resolvePaths(root, file.ReferenceDirs),
		SearchPaths:               resolvePaths(root, file.SearchPaths),
		Unmanaged:                 file.Unmanaged,
		Unmanaged32:               file.Unmanaged32,
		Unmanaged64:               file.Unmanaged64,
		Include:                   file.Include,
		Exclude:                   file.Exclude,
		Preload:                   file.Preload,
		CreateTemporaryAssemblies: file.CreateTemporaryAssemblies,
		DisableCompression:        file.DisableCompression,
		StageResources:            file.StageResources,
		StagingDir:                resolvePath(root, file.StagingDir),
	}
	if cfg.StageResources && cfg.StagingDir == "" {
		cfg.StagingDir = filepath.Join(root, defaultStagingDir)
	}
	return cfg, nil
}

func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func resolvePaths(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	res := make([]string, len(paths))
	for i, p := range paths {
		res[i] = resolvePath(root, p)
	}
	return res
}

// Package config resolves the settings shared by every rstrtr verb: where
// the control file lives and how supervisor events are rendered.
package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultControlPath is the control file location when nothing else is
	// configured: hidden, relative to the working directory the supervisor
	// runs in.
	DefaultControlPath = "./.rstrtr"

	envControl = "RSTRTR_CONTROL"
	envTmpDir  = "RSTRTR_TMP_DIR"
)

// LogFormat selects how the run command renders supervisor events.
type LogFormat string

const (
	LogFormatAuto LogFormat = "auto"
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Settings carries the resolved configuration for one invocation.
type Settings struct {
	// ControlPath is the control file path after temp-dir derivation.
	ControlPath string
	// TmpDir records whether the path was derived under os.TempDir().
	TmpDir bool
	// LogFormat selects event rendering for the run verb.
	LogFormat LogFormat
}

// File mirrors the optional yaml configuration document.
type File struct {
	Control   string `yaml:"control"`
	TmpDir    *bool  `yaml:"tmpDir"`
	LogFormat string `yaml:"logFormat"`
}

// Flags holds the raw flag values bound by the CLI. Empty/false values mean
// "not set" and defer to the environment, the config file, then defaults.
type Flags struct {
	Control    string
	ControlSet bool
	TmpDir     bool
	TmpDirSet  bool
	LogFormat  string
	ConfigFile string
}

// Resolve merges flags, environment, and the optional config file into a
// Settings value. Precedence is flags over environment over file over
// defaults, matching how the other verbs expect to agree on the control path.
func Resolve(flags Flags, cwd string) (Settings, error) {
	settings := Settings{
		ControlPath: DefaultControlPath,
		LogFormat:   LogFormatText,
	}

	if flags.ConfigFile != "" {
		file, err := LoadFile(flags.ConfigFile)
		if err != nil {
			return Settings{}, err
		}
		if file.Control != "" {
			settings.ControlPath = file.Control
		}
		if file.TmpDir != nil {
			settings.TmpDir = *file.TmpDir
		}
		if file.LogFormat != "" {
			format, err := parseLogFormat(file.LogFormat)
			if err != nil {
				return Settings{}, fmt.Errorf("%s: %w", flags.ConfigFile, err)
			}
			settings.LogFormat = format
		}
	}

	if v := os.Getenv(envControl); v != "" {
		settings.ControlPath = v
	}
	if v := os.Getenv(envTmpDir); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Settings{}, fmt.Errorf("parse %s=%q: %w", envTmpDir, v, err)
		}
		settings.TmpDir = enabled
	}

	if flags.ControlSet {
		settings.ControlPath = flags.Control
	}
	if flags.TmpDirSet {
		settings.TmpDir = flags.TmpDir
	}
	if flags.LogFormat != "" {
		format, err := parseLogFormat(flags.LogFormat)
		if err != nil {
			return Settings{}, err
		}
		settings.LogFormat = format
	}

	if settings.TmpDir {
		settings.ControlPath = TempControlPath(cwd)
	}

	return settings, nil
}

// LoadFile reads a yaml configuration file, rejecting unknown keys.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc File
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", path, err)
	}
	return &doc, nil
}

// TempControlPath derives a control file path under the OS temp directory
// keyed by a stable hash of cwd, so concurrent supervisors in different
// working directories do not share a mailbox.
func TempControlPath(cwd string) string {
	h := fnv.New64a()
	h.Write([]byte(cwd))
	return filepath.Join(os.TempDir(), fmt.Sprintf("rstrtr.%d", h.Sum64()))
}

func parseLogFormat(value string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(value))) {
	case LogFormatAuto:
		return LogFormatAuto, nil
	case LogFormatText:
		return LogFormatText, nil
	case LogFormatJSON:
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q (want auto, text, or json)", value)
	}
}

// Package detect finds which source config file a component carries and
// exports the result for later pipeline steps.
package detect

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
)

// Keys written to the env file.
const (
	KeyHasSrcConfigFile  = "hasSrcConfigFile"
	KeyHasComponentYAML  = "hasComponentYaml"
	KeySrcConfigFileType = "srcConfigFileType"
)

// Opts configures detection.
type Opts struct {
	// BasePath is the component source root.
	BasePath string
	// EnvFile receives the detection result. Defaults to ".env".
	EnvFile string
	// Logger for debug output.
	Logger *slog.Logger
}

// Result is the detection outcome.
type Result struct {
	HasSrcConfigFile bool
	HasComponentYAML bool
	FileType         descriptor.FileType
}

// Env renders the result as env file entries.
func (r *Result) Env() map[string]string {
	return map[string]string{
		KeyHasSrcConfigFile:  strconv.FormatBool(r.HasSrcConfigFile),
		KeyHasComponentYAML:  strconv.FormatBool(r.HasComponentYAML),
		KeySrcConfigFileType: string(r.FileType),
	}
}

// Run detects the source config file under BasePath and writes the env file.
func Run(opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.BasePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	ft, ok, err := descriptor.Detect(opts.BasePath)
	if err != nil {
		return nil, fmt.Errorf("detecting source config file: %w", err)
	}

	res := &Result{
		HasSrcConfigFile: ok,
		HasComponentYAML: ok && ft == descriptor.ComponentYAML,
		FileType:         ft,
	}

	logger.Debug("detected source config file", "found", ok, "file_type", ft)

	if err := godotenv.Write(res.Env(), envFile); err != nil {
		return nil, fmt.Errorf("writing env file %s: %w", envFile, err)
	}

	return res, nil
}

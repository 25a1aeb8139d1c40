package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileOutput appends one rendered line per record to files on disk.
//
// Both the path and the line are format templates, so records can be routed
// by their own fields: NewFileOutput("{parent/child}-{source}.log", "{message}").
// Files are opened lazily in append mode and kept open until Close. A record
// whose fields do not satisfy the templates is dropped with a warning.
type FileOutput struct {
	path   []Token
	line   []Token
	files  map[string]*os.File
	logger *slog.Logger
}

func NewFileOutput(pathFormat, lineFormat string, logger *slog.Logger) (*FileOutput, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path, err := ParseFormat(pathFormat)
	if err != nil {
		return nil, fmt.Errorf("bad path format %q: %w", pathFormat, err)
	}
	line, err := ParseFormat(lineFormat)
	if err != nil {
		return nil, fmt.Errorf("bad line format %q: %w", lineFormat, err)
	}
	return &FileOutput{
		path:   path,
		line:   line,
		files:  make(map[string]*os.File),
		logger: logger,
	}, nil
}

func (o *FileOutput) Name() string { return "file" }

func (o *FileOutput) Feed(record map[string]any) error {
	path, err := Render(o.path, record)
	if err != nil {
		o.logger.Warn("record_dropped", "output", "file", "reason", "path_format", "error", err.Error())
		return nil
	}

	line, err := Render(o.line, record)
	if err != nil {
		o.logger.Warn("record_dropped", "output", "file", "reason", "line_format", "error", err.Error())
		return nil
	}

	file, ok := o.files[path]
	if !ok {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %q: %w", path, err)
			}
		}
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open %q: %w", path, err)
		}
		o.logger.Info("file_opened", "output", "file", "path", path)
		o.files[path] = file
	}

	if _, err := file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write to %q: %w", path, err)
	}
	return nil
}

func (o *FileOutput) Close() error {
	var first error
	for path, file := range o.files {
		if err := file.Close(); err != nil && first == nil {
			first = fmt.Errorf("failed to close %q: %w", path, err)
		}
	}
	o.files = make(map[string]*os.File)
	return first
}

package listener

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reviewsheet/internal"
	"reviewsheet/internal/config"
	"reviewsheet/internal/pipeline"
)

// Inputs are moved into these subdirectories of the watch dir once handled.
const (
	doneDir   = "done"
	emptyDir  = "empty"
	failedDir = "failed"
)

// Service watches a drop directory for saved bundle dumps (.json) and page
// snapshots (.html) and exports each one. A file name starting with a
// platform id ("viator-...", "gyg_...") selects that platform; otherwise
// the file content decides.
type Service struct {
	svc *pipeline.Service
	cfg config.Config
	log zerolog.Logger
}

func NewService(svc *pipeline.Service, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{svc: svc, cfg: cfg, log: log}
}

type CycleResult struct {
	Seen     int
	Exported int
	Empty    int
	Failed   int
}

func (s *Service) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.WatchDir, 0o755); err != nil {
		return err
	}
	for {
		res, err := s.RunCycle(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("watch cycle error")
		} else if res.Seen > 0 {
			s.log.Info().
				Int("seen", res.Seen).
				Int("exported", res.Exported).
				Int("empty", res.Empty).
				Int("failed", res.Failed).
				Msg("watch cycle done")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

// RunCycle handles every pending file once, oldest name first.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	entries, err := os.ReadDir(s.cfg.WatchDir)
	if err != nil {
		return res, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json", ".html", ".htm":
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, nil
		}
		res.Seen++
		dest, err := s.handleFile(ctx, name)
		switch {
		case errors.Is(err, pipeline.ErrNothingFound):
			res.Empty++
			s.log.Warn().Str("file", name).Msg("nothing found")
			dest = emptyDir
		case err != nil:
			if ctx.Err() != nil {
				// cancelled mid-run: leave the file for the next start
				return res, nil
			}
			res.Failed++
			s.log.Error().Err(err).Str("file", name).Msg("export failed")
			dest = failedDir
		default:
			res.Exported++
		}
		if err := s.archive(name, dest); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) handleFile(ctx context.Context, name string) (string, error) {
	path := filepath.Join(s.cfg.WatchDir, name)
	platform := platformFromName(name)

	src, err := pipeline.SourceForFile("auto", path, platform)
	if err != nil {
		return "", err
	}
	run, err := s.svc.Run(ctx, pipeline.RunRequest{Platform: platform, Source: src})
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	outDir := filepath.Join(s.cfg.OutputDir, "watch")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	switch s.cfg.WatchFormat {
	case "xlsx":
		err = pipeline.ExportRecordsToXLSX(run.Records, filepath.Join(outDir, base+".xlsx"))
	default:
		err = os.WriteFile(filepath.Join(outDir, base+".tsv"), []byte(run.Table), 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return doneDir, nil
}

func (s *Service) archive(name, sub string) error {
	dir := filepath.Join(s.cfg.WatchDir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(s.cfg.WatchDir, name), filepath.Join(dir, name))
}

func platformFromName(name string) internal.Platform {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	if i := strings.IndexAny(base, "-_ "); i > 0 {
		base = base[:i]
	}
	if p, ok := internal.ParsePlatform(base); ok {
		return p
	}
	return ""
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"reviewsheet/internal"
	"reviewsheet/internal/catalog"
	"reviewsheet/internal/config"
	"reviewsheet/internal/listener"
	"reviewsheet/internal/observability"
	"reviewsheet/internal/pipeline"
	"reviewsheet/internal/server"
)

// exitNothingFound tells scripts an empty run apart from a failure.
const exitNothingFound = 2

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	log.Logger = logger
	metrics := observability.NewMetrics()

	dir, err := loadDirectory(cfg)
	must(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "-", "bundle dump (.json) or saved page (.html); - reads JSON from stdin")
		inType := fs.String("type", "auto", "auto|json|html")
		platformFlag := fs.String("platform", "", "airbnb|freetour|getyourguide|guruwalk|viator|google (default: from input)")
		city := fs.String("city", "", "city code that overrides resolution (du, rv, pu, st, zd, zg)")
		out := fs.String("out", "", "output path (.tsv or .xlsx); empty writes TSV to stdout")
		propose := fs.Bool("propose", false, "print the proposed city and exit")
		preview := fs.Bool("preview", false, "print an aligned preview to stderr")
		width := fs.Int("width", 120, "preview width in terminal cells")
		_ = fs.Parse(os.Args[2:])

		platform, err := parsePlatformFlag(*platformFlag)
		must(err)
		src, err := sourceFor(*inType, *input, platform)
		must(err)

		svc := pipeline.NewService(cfg, dir, logger, metrics)
		if *propose {
			p, err := svc.Propose(ctx, pipeline.RunRequest{Platform: platform, Source: src})
			must(err)
			fmt.Println(p.City)
			return
		}

		res, err := svc.Run(ctx, pipeline.RunRequest{
			Platform:  platform,
			Source:    src,
			Overrides: pipeline.Overrides{City: *city},
		})
		dumpMetrics(cfg, metrics)
		if errors.Is(err, pipeline.ErrNothingFound) {
			fmt.Fprintln(os.Stderr, "warning: no reviews found, nothing exported")
			os.Exit(exitNothingFound)
		}
		must(err)

		if *preview {
			must(pipeline.RenderPreview(os.Stderr, res.Records, *width))
		}
		must(deliver(res, *out))
		if res.Stats.Dropped > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d of %d reviews skipped, see log\n", res.Stats.Dropped, res.Stats.Input)
		}
	case "serve":
		svc := pipeline.NewService(cfg, dir, logger, metrics)
		srv := server.NewServer(cfg, svc, logger, metrics)
		must(srv.ListenAndServe(ctx))
	case "watch":
		svc := pipeline.NewService(cfg, dir, logger, metrics)
		w := listener.NewService(svc, cfg, logger)
		err := w.Run(ctx)
		dumpMetrics(cfg, metrics)
		must(err)
	case "platforms":
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLITERAL\tGUIDE\tDEFAULT RATING\tCITY\tTOUR MAP\tQUOTE REVIEW")
		for _, p := range pipeline.Policies() {
			city := "resolve"
			if !p.ResolveCity {
				city = "fixed " + p.DefaultCity
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%t\t%t\n", p.Platform, p.Literal, p.ResolveGuide, dash(p.DefaultRating), city, p.MapTour, p.QuoteReview)
		}
		must(tw.Flush())
	case "directory":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "validate and print this directory file instead of the active one")
		_ = fs.Parse(os.Args[2:])
		if *file != "" {
			dir, err = catalog.LoadFile(*file)
			must(err)
		}
		printDirectory(os.Stdout, dir)
	default:
		usage()
		os.Exit(1)
	}
}

func loadDirectory(cfg config.Config) (*catalog.Directory, error) {
	if strings.TrimSpace(cfg.DirectoryFile) == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.DirectoryFile)
}

func parsePlatformFlag(v string) (internal.Platform, error) {
	if strings.TrimSpace(v) == "" {
		return "", nil
	}
	p, ok := internal.ParsePlatform(v)
	if !ok {
		return "", fmt.Errorf("%w: %q", pipeline.ErrUnknownPlatform, v)
	}
	return p, nil
}

func sourceFor(inType, input string, platform internal.Platform) (pipeline.BundleSource, error) {
	if input != "-" {
		return pipeline.SourceForFile(inType, input, platform)
	}
	blob, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	if inType == "html" {
		return pipeline.HTMLSource{Platform: platform, HTML: blob}, nil
	}
	return pipeline.JSONSource{Blob: blob}, nil
}

func deliver(res pipeline.RunResult, out string) error {
	if out == "" {
		_, err := io.WriteString(os.Stdout, res.Table+"\n")
		return err
	}
	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		if err := pipeline.ExportRecordsToXLSX(res.Records, out); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(res.Table), 0o644); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "exported %d reviews platform=%s output=%s\n", len(res.Records), res.Platform, out)
	return nil
}

func dumpMetrics(cfg config.Config, m *observability.Metrics) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("metrics textfile not written")
	}
}

func printDirectory(w io.Writer, dir *catalog.Directory) {
	fmt.Fprintf(w, "directory version %s\n\nguides:\n", dash(dir.Version))
	for _, g := range dir.Guides() {
		fmt.Fprintf(w, "  %s: %s\n", g.Name, strings.Join(g.Variants, ", "))
	}
	fmt.Fprintln(w, "cities:")
	for _, c := range dir.Cities() {
		fmt.Fprintf(w, "  %s: %s\n", c.Code, strings.Join(c.Keywords, ", "))
	}
	fmt.Fprintln(w, "tours:")
	for _, t := range dir.Tours() {
		fmt.Fprintf(w, "  %s: %s\n", t.Code, strings.Join(t.Keywords, ", "))
	}
	if prefixes := dir.StripPrefixes(); len(prefixes) > 0 {
		fmt.Fprintf(w, "strip prefixes: %s\n", strings.Join(prefixes, " | "))
	}
}

func dash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func usage() {
	fmt.Println("usage: reviewsheet <command>")
	fmt.Println("commands:")
	fmt.Println("  run --input=dump.json|page.html|- [--type=auto|json|html] [--platform=...] [--city=zg] [--out=reviews.tsv|reviews.xlsx] [--propose] [--preview]")
	fmt.Println("  serve            local HTTP endpoint for the browser extension (HTTP_ADDR)")
	fmt.Println("  watch            export every dump dropped into WATCH_DIR")
	fmt.Println("  platforms        list platform policies")
	fmt.Println("  directory [--file=dir.yaml]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// The gorushi tool fetches a single URL, decodes its HTML into a DOM, and
// prints the resulting tree, exercising the full urlref/fetch/entity/markup
// pipeline from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kojima/gorushi/entity"
	"github.com/kojima/gorushi/fetch"
	"github.com/kojima/gorushi/internal/poolstats"
	"github.com/kojima/gorushi/internal/telemetry"
	"github.com/kojima/gorushi/markup"
	"github.com/kojima/gorushi/urlref"
)

func main() {
	var errExit bool
	defer func() {
		if errExit {
			os.Exit(1)
		}
	}()

	httpVersion := flag.String("http-version", "1.1", "HTTP version to speak: 1.0 or 1.1")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gorushi [-http-version 1.0|1.1] <url>")
		errExit = true
		return
	}

	ctx := context.Background()
	logger, shutdown, err := telemetry.Setup(ctx, "gorushi")
	if err != nil {
		slog.ErrorContext(ctx, "telemetry setup failed", "error", err)
		errExit = true
		return
	}
	defer shutdown(ctx)
	slog.SetDefault(logger)

	if err := run(ctx, flag.Arg(0), *httpVersion); err != nil {
		logger.ErrorContext(ctx, "fetch failed", "error", err)
		errExit = true
	}
}

func run(ctx context.Context, rawURL, httpVersion string) error {
	ref, err := urlref.Parse(rawURL)
	if err != nil {
		return err
	}

	f := fetch.New(fetch.WithHTTPVersion(httpVersion))
	maybeServeDebugMetrics(f)

	body, err := f.Fetch(ctx, ref)
	if err != nil {
		return err
	}

	if ref.ViewSource {
		fmt.Println(body)
		return nil
	}

	tree := markup.Build(body, entity.NewDefaultMatcher())
	printNode(tree.Root(), tree, 0)
	return nil
}

// maybeServeDebugMetrics exposes f's pool and cache occupancy on a debug
// HTTP endpoint when GORUSHI_DEBUG_ADDR is set, for local inspection while
// driving the tool against a slow or flaky origin.
func maybeServeDebugMetrics(f *fetch.Fetcher) {
	addr := os.Getenv("GORUSHI_DEBUG_ADDR")
	if addr == "" {
		return
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(poolstats.NewCollector(f, "gorushi"))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		slog.Warn("debug metrics listener exiting", "error", http.ListenAndServe(addr, mux))
	}()
}

func printNode(n *markup.Node, tree *markup.Tree, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case markup.KindText:
		fmt.Printf("%s%q\n", indent, n.Text)
	case markup.KindElement:
		fmt.Printf("%s<%s>\n", indent, n.Tag)
		for i := range n.Children {
			printNode(tree.Child(n, i), tree, depth+1)
		}
	}
}

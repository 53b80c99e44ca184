// Copyright 2025 Harvestra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	corpus "github.com/harvestra/corpus"
	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/cache"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "corpus",
		Usage: "Document retrieval engine with multi-source fan-out and tiered caching",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Fetch one document by ID and print its content",
				ArgsUsage: "<id>",
				Action:    getCommand,
				Flags:     engineFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search every configured source and print the merged ranking",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Print engine statistics",
				Action: statsCommand,
				Flags:  engineFlags(),
			},
			{
				Name:      "seed",
				Usage:     "Write sample corporate documents into a directory",
				ArgsUsage: "<dir>",
				Action:    seedCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "docs",
			Aliases: []string{"d"},
			Usage:   "Directory of documents to serve as the file source",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Base URL of a remote knowledge-base API source",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Bearer token for the API source",
			EnvVars: []string{"CORPUS_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Persistent cache directory (in-memory if empty)",
		},
		&cli.StringFlag{
			Name:  "eviction",
			Usage: "Cache eviction policy (lru, lfu, ttl)",
			Value: "lru",
		},
		&cli.DurationFlag{
			Name:  "source-timeout",
			Usage: "Per-source deadline during fan-out",
			Value: 5 * time.Second,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.BoolFlag{
			Name:  "warm",
			Usage: "Index every source's documents during startup",
		},
	}
}

func buildEngine(c *cli.Context) (*corpus.Engine, error) {
	cfg := corpus.DefaultConfig()
	cfg.SourceTimeout = c.Duration("source-timeout")
	cfg.CacheDir = c.String("cache-dir")
	cfg.EvictionPolicy = cache.Policy(c.String("eviction"))
	cfg.WarmIndex = c.Bool("warm")
	cfg.AI = ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)

	if dir := c.String("docs"); dir != "" {
		cfg.FileSources = append(cfg.FileSources, corpus.FileSource{Name: "files", Dir: dir})
	}
	if u := c.String("api-url"); u != "" {
		cfg.APISources = append(cfg.APISources, corpus.APISource{
			Name:    "kb",
			BaseURL: u,
			APIKey:  c.String("api-key"),
		})
	}

	engine, err := corpus.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(c.Context); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

func getCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("document ID is required")
	}

	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	content, err := engine.GetDocument(c.Context, id)
	if err != nil {
		return err
	}
	fmt.Println(content)
	return nil
}

func searchCommand(c *cli.Context) error {
	queryText := strings.Join(c.Args().Slice(), " ")
	if queryText == "" {
		return fmt.Errorf("query is required")
	}

	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.SearchDocuments(c.Context, queryText, c.Int("limit"))
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, hit := range hits {
		fmt.Printf("%2d. %-40s score=%.3f sources=%s\n",
			i+1, hit.Document.Title, hit.Score, strings.Join(hit.Sources, ","))
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Documents:        %d\n", stats.TotalDocuments)
	fmt.Printf("Sources healthy:  %d\n", stats.SourcesAvailable)
	fmt.Printf("Cache hit rate:   %.1f%%\n", stats.CacheHitRate*100)
	fmt.Printf("Avg response:     %.1fms\n", stats.AvgResponseMillis)
	return nil
}

func seedCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("target directory is required")
	}

	n, err := corpus.SeedSampleDocuments(dir)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintf(os.Stderr, "%s is not empty, nothing written\n", dir)
		return nil
	}
	fmt.Fprintf(os.Stderr, "wrote %d sample documents to %s\n", n, dir)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

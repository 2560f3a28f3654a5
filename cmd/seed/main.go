// Package main provides a tool to seed a journal with a directory of
// images.
//
// Each image file becomes a picture dated by its modification time, so
// an existing photo collection imports in chronological order.
//
// Usage:
//
//	DATA_PATH=~/snapline go run ./cmd/seed --dir ./photos
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/config"
	"github.com/snapline/snapline-server/internal/logger"
	"github.com/snapline/snapline-server/internal/service"
	"github.com/snapline/snapline-server/internal/store"
	"github.com/snapline/snapline-server/internal/timeline"
)

var (
	dir    = flag.String("dir", "", "Directory of image files to import")
	tags   = flag.String("tags", "", "Comma-separated tags to apply to every imported picture")
	dryRun = flag.Bool("dry-run", false, "List files without importing")
)

func main() {
	flag.Parse()

	if *dir == "" {
		log.Fatal("--dir is required")
	}

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	files, err := collectImages(*dir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *dir, err)
	}
	if len(files) == 0 {
		log.Fatalf("No image files found in %s", *dir)
	}

	fmt.Printf("Found %d image files\n", len(files))
	if *dryRun {
		for _, f := range files {
			fmt.Println(" ", f)
		}
		return
	}

	lg := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, err := store.New(filepath.Join(cfg.Storage.BasePath, "db"), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	blobs, err := blob.NewStorage(filepath.Join(cfg.Storage.BasePath, "pictures"))
	if err != nil {
		log.Fatalf("Failed to open blob storage: %v", err)
	}

	tl := timeline.NewService(st, blobs, cfg.Journal.People, lg.Logger)
	pictures := service.NewPictureService(st, blobs, tl, cfg.Journal.FeedSize, lg.Logger)
	tagService := service.NewTagService(st, lg.Logger)

	ctx := context.Background()
	imported := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}

		p, err := pictures.Upload(ctx, data, info.ModTime().UTC(), 0)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}

		if *tags != "" {
			if _, err := tagService.AddTags(ctx, p.AddedOrder, *tags); err != nil {
				log.Printf("tagging %s failed: %v", path, err)
			}
		}

		imported++
		fmt.Printf("imported %s as order %d (date %s)\n",
			filepath.Base(path), p.AddedOrder, p.Date.Format("2006-01-02"))
	}

	fmt.Printf("Done: %d of %d files imported\n", imported, len(files))
}

// collectImages returns image file paths in a directory, oldest first
// by modification time.
func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		fi, errI := os.Stat(files[i])
		fj, errJ := os.Stat(files[j])
		if errI != nil || errJ != nil {
			return files[i] < files[j]
		}
		return fi.ModTime().Before(fj.ModTime())
	})
	return files, nil
}

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one image of a folder run.
type BatchItem struct {
	Image     string           `yaml:"image" json:"image"`
	Error     string           `yaml:"error,omitempty" json:"error,omitempty"`
	Helmet    *HelmetReport    `yaml:"helmet,omitempty" json:"helmet,omitempty"`
	Headlight *HeadlightReport `yaml:"headlight,omitempty" json:"headlight,omitempty"`
}

// BatchReport summarises a folder run. Items keep the sorted folder order.
type BatchReport struct {
	Dir       string      `yaml:"dir" json:"dir"`
	OutputDir string      `yaml:"output_dir" json:"output_dir"`
	Processed int         `yaml:"processed" json:"processed"`
	Failed    int         `yaml:"failed" json:"failed"`
	Items     []BatchItem `yaml:"items" json:"items"`
}

// ListImages returns the files directly inside dir whose extension, compared
// case-insensitively, is in exts. The result is sorted by name.
//
// A missing folder is an error, and so is a folder without any matching file
// (wrapping ErrNoImages).
func ListImages(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("folder not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}

	accept := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		accept[e] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if accept[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// HelmetBatch runs Helmet on every image in dir. Each image gets its own
// subdirectory of outDir named after the file stem. Per-image failures are
// recorded in the report and do not stop the run; only a cancelled context
// or an unusable folder returns an error.
func (r *Runner) HelmetBatch(ctx context.Context, dir, outDir string) (*BatchReport, error) {
	return r.batch(ctx, dir, outDir, func(path, stem string) (BatchItem, error) {
		rep, err := r.Helmet(path, filepath.Join(outDir, stem))
		return BatchItem{Helmet: rep}, err
	})
}

// HeadlightBatch runs Headlight on every image in dir, writing all artifacts
// into outDir with the file stem as prefix.
func (r *Runner) HeadlightBatch(ctx context.Context, dir, outDir string) (*BatchReport, error) {
	return r.batch(ctx, dir, outDir, func(path, stem string) (BatchItem, error) {
		rep, err := r.headlight(path, outDir, stem)
		return BatchItem{Headlight: rep}, err
	})
}

func (r *Runner) batch(ctx context.Context, dir, outDir string, run func(path, stem string) (BatchItem, error)) (*BatchReport, error) {
	paths, err := ListImages(dir, r.cfg.Batch.Extensions)
	if err != nil {
		return nil, err
	}
	stems := uniqueStems(paths)

	items := make([]BatchItem, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Batch.Workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.log.Printf("Processing %s", path)
			item, err := run(path, stems[i])
			item.Image = absPath(path)
			if err != nil {
				r.log.Printf("%s: %v", path, err)
				item.Error = err.Error()
			}
			items[i] = item
			// Decoded images are not needed again once processed.
			r.cache.Evict(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &BatchReport{
		Dir:       absPath(dir),
		OutputDir: absPath(outDir),
		Items:     items,
	}
	for _, it := range items {
		if it.Error != "" {
			rep.Failed++
		} else {
			rep.Processed++
		}
	}
	if _, err := writeReport(outDir, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// uniqueStems maps each path to its file stem, appending the extension when
// two files share a stem ("a.jpg", "a.png" -> "a_jpg", "a_png").
func uniqueStems(paths []string) []string {
	count := make(map[string]int, len(paths))
	for _, p := range paths {
		count[fileStem(p)]++
	}
	stems := make([]string, len(paths))
	for i, p := range paths {
		stem := fileStem(p)
		if count[stem] > 1 {
			stem += "_" + strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
		}
		stems[i] = stem
	}
	return stems
}

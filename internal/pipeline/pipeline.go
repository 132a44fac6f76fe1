// Package pipeline tessellates scene entities concurrently and applies their
// planar post-processing. One Output is produced per entity, in input order.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/geomkernel/internal/config"
	"github.com/Faultbox/geomkernel/internal/logger"
	"github.com/Faultbox/geomkernel/internal/scene"
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Options configures Run.
type Options struct {
	Tessellation tessellate.Options
	Offset       planar.OffsetOptions
	Simplify     config.SimplifyConfig
	// Workers bounds concurrent jobs; zero uses GOMAXPROCS.
	Workers int
	// Cache is optional and may be shared between runs.
	Cache *tessellate.Cache
	// Logger defaults to logger.Named("pipeline").
	Logger *zap.Logger
}

// FromConfig builds Options from a loaded configuration. A cache is created
// when the config enables it.
func FromConfig(cfg *config.Config) Options {
	opts := Options{
		Tessellation: cfg.Tessellation,
		Offset:       cfg.Offset,
		Simplify:     cfg.Simplify,
		Workers:      cfg.Pipeline.Workers,
	}
	if cfg.Pipeline.Cache {
		opts.Cache = tessellate.NewCache()
	}
	return opts
}

// Output is the processed form of one entity.
type Output struct {
	Name         string
	Kind         string
	Construction bool
	Result       tessellate.Result
	// Outline is the XY projection after simplification; nil for surfaces
	// and when no planar operation applies.
	Outline *planar.Polyline
	// Offset is the offset outline when the entity requests one.
	Offset  *planar.Polyline
	Elapsed time.Duration
}

// Run processes every entity. The first failing job cancels the rest and
// its error is returned. Cancellation of ctx is observed between jobs; a job
// that has started runs to completion.
func Run(ctx context.Context, entities []scene.Entity, opts Options) ([]Output, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Named("pipeline")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if err := opts.Tessellation.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	outputs := make([]Output, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entities {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("entity %s: panic: %v", entities[i].Name, r)
				}
			}()
			out, err := process(entities[i], opts)
			if err != nil {
				return err
			}
			outputs[i] = out
			logJob(log, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait returns nil when ctx was cancelled before any job failed.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("entities", len(entities)),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)),
	}
	if opts.Cache != nil {
		hits, misses := opts.Cache.Stats()
		fields = append(fields, zap.Int("cache_hits", hits), zap.Int("cache_misses", misses))
	}
	log.Info("pipeline finished", fields...)
	return outputs, nil
}

func logJob(log *zap.Logger, out Output) {
	fields := []zap.Field{
		zap.String("entity", out.Name),
		zap.Stringer("kind", out.Result.Kind),
		zap.Duration("elapsed", out.Elapsed),
	}
	switch {
	case out.Result.Polyline != nil:
		fields = append(fields, zap.Int("points", out.Result.Polyline.Len()))
	case out.Result.Mesh != nil:
		fields = append(fields,
			zap.Int("triangles", out.Result.Mesh.TriangleCount()),
			zap.Int("degenerate", out.Result.Mesh.Degenerate))
	}
	if out.Result.Truncated() {
		log.Warn("sample budget exhausted, result truncated", fields...)
		return
	}
	log.Debug("tessellated", fields...)
}

// process tessellates one entity and runs its planar operations.
func process(e scene.Entity, opts Options) (Output, error) {
	start := time.Now()
	tessOpts := e.Overrides.Apply(opts.Tessellation)

	var (
		res tessellate.Result
		err error
	)
	if opts.Cache != nil {
		res, err = opts.Cache.Tessellate(e.Geometry, tessOpts)
	} else {
		res, err = tessellate.Tessellate(e.Geometry, tessOpts)
	}
	if err != nil {
		return Output{}, fmt.Errorf("entity %s: %w", e.Name, err)
	}

	out := Output{Name: e.Name, Kind: e.Kind, Construction: e.Construction, Result: res}
	if res.Polyline != nil {
		if err := applyPlanar(&out, e.Planar, opts); err != nil {
			return Output{}, fmt.Errorf("entity %s: %w", e.Name, err)
		}
	}
	out.Elapsed = time.Since(start)
	return out, nil
}

// applyPlanar projects a sampled curve onto XY and applies the entity's
// simplify and offset requests, falling back to the configured defaults.
func applyPlanar(out *Output, ops scene.PlanarOps, opts Options) error {
	tol := ops.Simplify
	if tol <= 0 {
		tol = opts.Simplify.Tolerance
	}
	angle := ops.MergeAngle
	if angle <= 0 {
		angle = opts.Simplify.MergeAngle
	}
	if ops.Offset == nil && tol <= 0 && angle <= 0 {
		return nil
	}

	pl := out.Result.Polyline
	outline := planar.Simplify(planar.FromVec3(pl.Points, pl.Closed), tol, angle)
	out.Outline = &outline

	if ops.Offset != nil {
		off, err := planar.Offset(outline, *ops.Offset, opts.Offset)
		if err != nil {
			return err
		}
		out.Offset = &off
	}
	return nil
}

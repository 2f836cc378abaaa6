package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/photo-cleaner/internal/cluster"
	"github.com/kozaktomas/photo-cleaner/internal/constants"
	"github.com/kozaktomas/photo-cleaner/internal/fingerprint"
	"github.com/kozaktomas/photo-cleaner/internal/media"
	"github.com/kozaktomas/photo-cleaner/internal/quality"
	"github.com/kozaktomas/photo-cleaner/internal/sampler"
)

func (e *Engine) analyze(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.New()
	logger := e.logger.With("run_id", runID)

	images, err := e.store.ListAssets(ctx, media.KindImage)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	videos, err := e.store.ListAssets(ctx, media.KindVideo)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	logger.Info("analysis started", "images", len(images), "videos", len(videos))

	photos, err := e.analyzeImages(ctx, images)
	if err != nil {
		return nil, err
	}
	e.setProgress(constants.ImagePhaseWeight)

	videoBytes, err := e.sizeVideos(ctx, videos)
	if err != nil {
		return nil, err
	}

	e.setProgress(constants.ClusteringProgress)
	candidates := photos
	if e.opts.ExcludeFailedFingerprints {
		candidates = make([]*cluster.Photo, 0, len(photos))
		for _, p := range photos {
			if !p.SampleFailed {
				candidates = append(candidates, p)
			}
		}
	}
	clusters := cluster.Group(candidates)
	logger.Debug("clustering finished", "clusters", len(clusters), "candidates", len(candidates))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.setProgress(constants.AggregationProgress)

	return newResult(runID, started, photos, clusters, len(videos), videoBytes), nil
}

// analyzeImages samples every image with a bounded worker pool. The returned
// slice keeps the listing order, which clustering depends on.
func (e *Engine) analyzeImages(ctx context.Context, images []media.Asset) ([]*cluster.Photo, error) {
	photos := make([]*cluster.Photo, len(images))
	if len(images) == 0 {
		return photos, nil
	}

	total := float64(len(images))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, asset := range images {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			photo := e.analyzeImage(gctx, asset)
			if err := gctx.Err(); err != nil {
				return err
			}
			photos[i] = photo
			n := done.Add(1)
			e.setProgress(float64(n) / total * constants.ImagePhaseWeight)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return photos, nil
}

// analyzeImage never fails: a quality sample failure yields the default tier
// and a fingerprint sample failure yields the zero fingerprint.
func (e *Engine) analyzeImage(ctx context.Context, asset media.Asset) *cluster.Photo {
	photo := &cluster.Photo{
		Asset:       asset,
		Quality:     quality.DefaultTier,
		Fingerprint: fingerprint.Zero,
		Size:        e.store.ByteSize(ctx, asset),
	}

	grays, errs := e.sampler.SampleEach(ctx, asset,
		sampler.Request{Width: constants.QualitySampleSize, Height: constants.QualitySampleSize, Mode: sampler.Fit},
		sampler.Request{Width: constants.FingerprintSampleWidth, Height: constants.FingerprintSampleHeight, Mode: sampler.Exact},
	)

	if err := errs[0]; err != nil {
		e.logger.Debug("quality sample failed", "asset", asset.ID, "error", err)
	} else {
		photo.Quality, photo.Sharpness = quality.Assess(grays[0])
	}

	err := errs[1]
	if err == nil {
		photo.Fingerprint, err = fingerprint.DifferenceHash(grays[1])
	}
	if err != nil {
		e.logger.Debug("fingerprint sample failed", "asset", asset.ID, "error", err)
		photo.Fingerprint = fingerprint.Zero
		photo.SampleFailed = true
	}

	return photo
}

func (e *Engine) sizeVideos(ctx context.Context, videos []media.Asset) (int64, error) {
	var total int64
	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		total += e.store.ByteSize(ctx, video)
		e.setProgress(constants.ImagePhaseWeight +
			float64(i+1)/float64(len(videos))*constants.VideoPhaseWeight)
	}
	return total, nil
}

package service

import (
	"camera-ingest/config"
	"camera-ingest/constant"
	"camera-ingest/pkg/media"
	"camera-ingest/pkg/media/backends"
	"camera-ingest/pkg/traffic"
	"fmt"
	"time"
)

// Components are the domain services built from configuration. They need
// neither the database nor the queue.
type Components struct {
	Backend   media.Backend
	Directory *Directory
	Recorder  *Recorder
	Extractor *Extractor
	Uploader  *Uploader
	Pipeline  *Pipeline
	Composer  *Composer
	Defaults  PipelineOptions
}

func NewComponents(cfg *config.Config) (*Components, error) {
	client, err := traffic.NewClient(traffic.Config{
		BaseURL:  cfg.Traffic.BaseURL,
		APIKey:   cfg.Traffic.APIKey,
		Timeout:  cfg.Traffic.Timeout,
		CacheTTL: cfg.Traffic.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	backend, err := backends.New(cfg.Pipeline.MediaBackend)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Pipeline.Timezone, err)
	}

	recorder := NewRecorder(backend, RecorderConfig{
		ScratchDir: cfg.Pipeline.ScratchDir,
		DefaultFPS: cfg.Pipeline.DefaultFPS,
		Grace:      cfg.Pipeline.RecordGrace,
		Location:   location,
	})
	extractor := NewExtractor(backend, cfg.Pipeline.ScratchDir)
	uploader := NewUploader(cfg.Storage, UploaderConfig{
		Bucket:          cfg.MinIOBucket,
		BufferPrefix:    cfg.Pipeline.BufferPrefix,
		InferencePrefix: cfg.Pipeline.InferencePrefix,
		CachePrefix:     cfg.Pipeline.CachePrefix,
		MetadataKeyMode: constant.MetadataKeyMode(cfg.Pipeline.MetadataKeyMode),
		Retries:         cfg.Pipeline.UploadRetries,
		Concurrency:     cfg.Pipeline.UploadConcurrency,
	})

	return &Components{
		Backend:   backend,
		Directory: NewDirectory(client),
		Recorder:  recorder,
		Extractor: extractor,
		Uploader:  uploader,
		Pipeline: NewPipeline(recorder, extractor, uploader, PipelineConfig{
			ScratchDir: cfg.Pipeline.ScratchDir,
			KeepLocal:  cfg.Pipeline.KeepLocal,
		}),
		Composer: NewComposer(CoordinateResolver{}),
		Defaults: PipelineOptions{
			RecordDuration: time.Duration(cfg.Pipeline.RecordSeconds) * time.Second,
			ExtractFPS:     cfg.Pipeline.ExtractFPS,
			ExtractSeconds: cfg.Pipeline.ExtractSeconds,
		},
	}, nil
}

package service

import (
	"context"
	"time"

	"ai-sceneguide-be/internal/dto"
)

type IHealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
}

type storageProbe interface {
	Kind() string
	Ping(ctx context.Context) error
}

type HealthSources struct {
	Storage    storageProbe
	Providers  func() []string
	Extractors func() []string
	Corpus     func() int
	Events     func() map[string]int64
}

type healthService struct {
	src HealthSources
}

func NewHealthService(src HealthSources) IHealthService {
	return &healthService{src: src}
}

func (s *healthService) Check(ctx context.Context) *dto.HealthResponse {
	res := &dto.HealthResponse{
		Status:     "ok",
		Providers:  []string{},
		Extractors: []string{},
		Events:     map[string]int64{},
	}

	if s.src.Storage != nil {
		res.StorageBackend = s.src.Storage.Kind()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		res.StorageHealthy = s.src.Storage.Ping(pingCtx) == nil
	}
	if !res.StorageHealthy {
		res.Status = "degraded"
	}
	if s.src.Providers != nil {
		res.Providers = s.src.Providers()
	}
	if s.src.Extractors != nil {
		res.Extractors = s.src.Extractors()
	}
	if s.src.Corpus != nil {
		res.CorpusDocuments = s.src.Corpus()
	}
	if s.src.Events != nil {
		res.Events = s.src.Events()
	}
	return res
}

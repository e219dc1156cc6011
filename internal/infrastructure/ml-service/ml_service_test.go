package ml_service

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/internal/proto"
	"github.com/DRSN-tech/image-search/pkg/e"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type fakeMLClient struct {
	mu             sync.Mutex
	loadCalls      atomic.Int32
	vectorizeCalls atomic.Int32

	loadErrs []error // ошибки первых вызовов LoadModel, затем успех
	vectorFn func(req *proto.VectorizeRequest) (*proto.VectorizeResponse, error)
}

func (f *fakeMLClient) LoadModel(_ context.Context, _ *proto.LoadModelRequest, _ ...grpc.CallOption) (*proto.LoadModelResponse, error) {
	call := f.loadCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if int(call) <= len(f.loadErrs) {
		return nil, f.loadErrs[call-1]
	}
	return &proto.LoadModelResponse{Loaded: true, VectorSize: 3, ModelVersion: "clip-v1"}, nil
}

func (f *fakeMLClient) VectorizeImage(_ context.Context, req *proto.VectorizeRequest, _ ...grpc.CallOption) (*proto.VectorizeResponse, error) {
	f.vectorizeCalls.Add(1)
	return f.vectorFn(req)
}

func newTestService(client *fakeMLClient, maxRetries int) *MLService {
	return NewMLService(client, &cfg.MLServiceCfg{
		ModelName:     "test-model",
		Device:        "cpu",
		MaxConcurrent: 4,
		MaxRetries:    maxRetries,
	}, nopLogger{})
}

func TestEnsureLoadedRunsOnce(t *testing.T) {
	client := &fakeMLClient{}
	svc := newTestService(client, 3)

	const goroutines = 10
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.EnsureLoaded(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := client.loadCalls.Load(); got != 1 {
		t.Errorf("expected exactly one LoadModel call, got %d", got)
	}
	if !svc.Loaded() {
		t.Error("expected loaded state")
	}
}

func TestEnsureLoadedRetryableAfterFailure(t *testing.T) {
	client := &fakeMLClient{loadErrs: []error{errors.New("ml-service unavailable")}}
	svc := newTestService(client, 3)

	if err := svc.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected error on first load")
	}
	if svc.Loaded() {
		t.Fatal("failed load must not mark the model loaded")
	}

	if err := svc.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("expected successful retry, got %v", err)
	}
	if !svc.Loaded() {
		t.Error("expected loaded state after retry")
	}
}

func TestVectorizeReturnsNormalizedEmbedding(t *testing.T) {
	client := &fakeMLClient{
		vectorFn: func(_ *proto.VectorizeRequest) (*proto.VectorizeResponse, error) {
			return &proto.VectorizeResponse{Vector: []float32{3, 0, 4}, ModelVersion: "clip-v1"}, nil
		},
	}
	svc := newTestService(client, 3)

	emb, err := svc.Vectorize(context.Background(), &domain.Image{Data: []byte("img"), MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := emb.Norm(); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected unit norm, got %g", got)
	}
}

func TestVectorizeRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client := &fakeMLClient{
		vectorFn: func(_ *proto.VectorizeRequest) (*proto.VectorizeResponse, error) {
			if calls.Add(1) < 3 {
				return nil, status.Error(codes.Unavailable, "try again")
			}
			return &proto.VectorizeResponse{Vector: []float32{1, 0, 0}}, nil
		},
	}
	svc := newTestService(client, 3)

	if _, err := svc.Vectorize(context.Background(), &domain.Image{Data: []byte("img")}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestVectorizeDoesNotRetryInvalidArgument(t *testing.T) {
	var calls atomic.Int32
	client := &fakeMLClient{
		vectorFn: func(_ *proto.VectorizeRequest) (*proto.VectorizeResponse, error) {
			calls.Add(1)
			return nil, status.Error(codes.InvalidArgument, "corrupt image")
		},
	}
	svc := newTestService(client, 3)

	if _, err := svc.Vectorize(context.Background(), &domain.Image{Data: []byte("img")}); !errors.Is(err, e.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("invalid argument must not be retried, got %d attempts", got)
	}
}

func TestVectorizeRejectsWrongVectorSize(t *testing.T) {
	client := &fakeMLClient{
		vectorFn: func(_ *proto.VectorizeRequest) (*proto.VectorizeResponse, error) {
			return &proto.VectorizeResponse{Vector: []float32{1, 0}}, nil // размер 2 вместо 3
		},
	}
	svc := newTestService(client, 1)

	if _, err := svc.Vectorize(context.Background(), &domain.Image{Data: []byte("img")}); !errors.Is(err, e.ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed on size mismatch, got %v", err)
	}
}

func TestVectorizeBatchKeepsOrder(t *testing.T) {
	client := &fakeMLClient{
		vectorFn: func(req *proto.VectorizeRequest) (*proto.VectorizeResponse, error) {
			switch string(req.ImageData) {
			case "a":
				return &proto.VectorizeResponse{Vector: []float32{1, 0, 0}}, nil
			case "b":
				return &proto.VectorizeResponse{Vector: []float32{0, 1, 0}}, nil
			default:
				return &proto.VectorizeResponse{Vector: []float32{0, 0, 1}}, nil
			}
		},
	}
	svc := newTestService(client, 1)

	images := []*domain.Image{
		{Data: []byte("a")},
		{Data: []byte("b")},
		{Data: []byte("c")},
	}

	embeddings, err := svc.VectorizeBatch(context.Background(), images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embeddings))
	}
	if embeddings[0][0] != 1 || embeddings[1][1] != 1 || embeddings[2][2] != 1 {
		t.Errorf("embeddings out of order: %v", embeddings)
	}
}

func TestVectorizeBatchAllOrNothing(t *testing.T) {
	client := &fakeMLClient{
		vectorFn: func(req *proto.VectorizeRequest) (*proto.VectorizeResponse, error) {
			if string(req.ImageData) == "bad" {
				return nil, status.Error(codes.Internal, "inference failed")
			}
			return &proto.VectorizeResponse{Vector: []float32{1, 0, 0}}, nil
		},
	}
	svc := newTestService(client, 1)

	images := []*domain.Image{
		{Data: []byte("ok")},
		{Data: []byte("bad")},
		{Data: []byte("ok")},
	}

	if _, err := svc.VectorizeBatch(context.Background(), images); !errors.Is(err, e.ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed for the whole batch, got %v", err)
	}
}

func TestVectorizeBatchEmptyInput(t *testing.T) {
	client := &fakeMLClient{}
	svc := newTestService(client, 1)

	embeddings, err := svc.VectorizeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embeddings != nil {
		t.Errorf("expected nil for empty batch, got %v", embeddings)
	}
	if got := client.loadCalls.Load(); got != 0 {
		t.Errorf("empty batch must not load the model, got %d calls", got)
	}
}

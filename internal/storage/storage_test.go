package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"go-ultrasound-inspector/pkg/models"
)

type uploadedBlob struct {
	container   string
	data        []byte
	contentType string
	metadata    map[string]*string
}

type fakeBlobClient struct {
	mu         sync.Mutex
	blobs      map[string]uploadedBlob
	failOn     string
	createErr  error
	containers []string
}

func newFakeBlobClient() *fakeBlobClient {
	return &fakeBlobClient{blobs: make(map[string]uploadedBlob)}
}

func (f *fakeBlobClient) CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers = append(f.containers, containerName)
	return azblob.CreateContainerResponse{}, f.createErr
}

func (f *fakeBlobClient) UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	if f.failOn != "" && strings.HasSuffix(blobName, f.failOn) {
		return azblob.UploadBufferResponse{}, errors.New("service unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	b := uploadedBlob{container: containerName, data: append([]byte(nil), buffer...), metadata: o.Metadata}
	if o.HTTPHeaders != nil && o.HTTPHeaders.BlobContentType != nil {
		b.contentType = *o.HTTPHeaders.BlobContentType
	}
	f.blobs[blobName] = b
	return azblob.UploadBufferResponse{}, nil
}

func testRecord() *ArchiveRecord {
	ts := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	return &ArchiveRecord{
		RequestID: "req-123",
		Timestamp: ts,
		Filename:  "scan.png",
		Format:    "png",
		MIMEType:  "image/png",
		Image:     []byte("png-bytes"),
		Analysis: &models.Analysis{
			RequestID:   "req-123",
			Timestamp:   ts,
			Provider:    "gemini",
			Model:       "gemini-1.5-flash",
			Result:      models.AnalysisResult{Findings: "none", Summary: "normal", Recommendation: "routine"},
			RawResponse: "findings: none\nsummary: normal\nrecommendation: routine",
		},
	}
}

func TestBlobPrefix(t *testing.T) {
	if got := BlobPrefix(testRecord()); got != "2026/03/09/req-123" {
		t.Errorf("Unexpected prefix %s", got)
	}
}

func TestAzureArchiver_Archive(t *testing.T) {
	client := newFakeBlobClient()
	archiver := NewAzureArchiverWithClient(client, "uploads")

	if err := archiver.Archive(context.Background(), testRecord()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	img, ok := client.blobs["2026/03/09/req-123/image.png"]
	if !ok {
		t.Fatalf("Expected image blob, got %v", client.blobs)
	}
	if img.container != "uploads" || img.contentType != "image/png" || string(img.data) != "png-bytes" {
		t.Errorf("Unexpected image blob %+v", img)
	}
	if img.metadata["request_id"] == nil || *img.metadata["request_id"] != "req-123" {
		t.Error("Expected request_id metadata")
	}

	doc, ok := client.blobs["2026/03/09/req-123/analysis.json"]
	if !ok {
		t.Fatal("Expected analysis blob")
	}
	if doc.contentType != "application/json" {
		t.Errorf("Unexpected content type %s", doc.contentType)
	}
	var decoded models.Analysis
	if err := json.Unmarshal(doc.data, &decoded); err != nil {
		t.Fatalf("Analysis blob is not JSON: %v", err)
	}
	if decoded.Result.Summary != "normal" {
		t.Errorf("Unexpected archived summary %q", decoded.Result.Summary)
	}
	var raw struct {
		RawResponse string `json:"raw_response"`
	}
	if err := json.Unmarshal(doc.data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw.RawResponse != "findings: none\nsummary: normal\nrecommendation: routine" {
		t.Errorf("Expected raw model text in archive, got %q", raw.RawResponse)
	}
}

func TestAzureArchiver_Errors(t *testing.T) {
	client := newFakeBlobClient()
	client.failOn = "analysis.json"
	archiver := NewAzureArchiverWithClient(client, "uploads")

	err := archiver.Archive(context.Background(), testRecord())
	if err == nil || !strings.Contains(err.Error(), "analysis.json") {
		t.Errorf("Expected upload error naming the blob, got %v", err)
	}

	if err := archiver.Archive(context.Background(), &ArchiveRecord{}); err == nil {
		t.Error("Expected error for record without request id")
	}
}

func TestEnsureContainer(t *testing.T) {
	client := newFakeBlobClient()
	if err := EnsureContainer(context.Background(), client, "uploads"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(client.containers) != 1 || client.containers[0] != "uploads" {
		t.Errorf("Unexpected containers %v", client.containers)
	}

	client.createErr = errors.New("forbidden")
	if err := EnsureContainer(context.Background(), client, "uploads"); err == nil {
		t.Error("Expected error to be returned")
	}
}

type recordingArchiver struct {
	mu      sync.Mutex
	records []*ArchiveRecord
	err     error
	delay   time.Duration
	closed  bool
}

func (r *recordingArchiver) Archive(ctx context.Context, record *ArchiveRecord) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return r.err
}

func (r *recordingArchiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestAsyncArchiver_DrainsOnClose(t *testing.T) {
	next := &recordingArchiver{delay: 10 * time.Millisecond}
	archiver := NewAsyncArchiver(next, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		if err := archiver.Archive(ctx, testRecord()); err != nil {
			t.Fatalf("Expected record to be queued, got %v", err)
		}
	}
	// A finished request must not cancel its queued write
	cancel()

	if err := archiver.Close(); err != nil {
		t.Fatalf("Expected no error on close, got %v", err)
	}

	next.mu.Lock()
	defer next.mu.Unlock()
	if len(next.records) != 5 {
		t.Errorf("Expected 5 archived records after drain, got %d", len(next.records))
	}
	if !next.closed {
		t.Error("Expected wrapped archiver to be closed")
	}
	if err := archiver.Archive(context.Background(), testRecord()); !errors.Is(err, ErrArchiveClosed) {
		t.Errorf("Expected ErrArchiveClosed after close, got %v", err)
	}
}

func TestAsyncArchiver_ReportsFailures(t *testing.T) {
	next := &recordingArchiver{err: errors.New("disk full")}

	var mu sync.Mutex
	var failed []string
	archiver := NewAsyncArchiver(next, 1, func(record *ArchiveRecord, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, record.RequestID)
	})

	if err := archiver.Archive(context.Background(), testRecord()); err != nil {
		t.Fatalf("Expected record to be queued, got %v", err)
	}
	archiver.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != "req-123" {
		t.Errorf("Expected one failure for req-123, got %v", failed)
	}
	if stats := archiver.Stats(); stats.CompletedJobs != 1 {
		t.Errorf("Expected 1 completed job, got %d", stats.CompletedJobs)
	}
}

func TestNoopArchiver(t *testing.T) {
	var a Archiver = NoopArchiver{}
	if err := a.Archive(context.Background(), testRecord()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

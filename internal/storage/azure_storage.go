package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"golang.org/x/sync/errgroup"

	"go-ultrasound-inspector/pkg/models"
)

// BlobClient is the subset of *azblob.Client used by the archive
type BlobClient interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

type azureArchiver struct {
	client    BlobClient
	container string
}

// NewAzureArchiver creates an archiver writing to the given storage account container,
// creating the container when it is missing
func NewAzureArchiver(ctx context.Context, accountName, accountKey, container string) (Archiver, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	if err := EnsureContainer(ctx, client, container); err != nil {
		return nil, err
	}

	return NewAzureArchiverWithClient(client, container), nil
}

// NewAzureArchiverWithClient creates an archiver on an existing blob client
func NewAzureArchiverWithClient(client BlobClient, container string) Archiver {
	return &azureArchiver{client: client, container: container}
}

// EnsureContainer creates the archive container if it does not exist yet
func EnsureContainer(ctx context.Context, client BlobClient, container string) error {
	_, err := client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", container, err)
	}
	return nil
}

// archivedAnalysis is the analysis.json document. It keeps the raw model text,
// which the API responses leave out, so extraction can be checked later.
type archivedAnalysis struct {
	*models.Analysis
	RawResponse string `json:"raw_response"`
}

// BlobPrefix returns the folder a record is stored under: yyyy/mm/dd/<request id>
func BlobPrefix(record *ArchiveRecord) string {
	return path.Join(record.Timestamp.UTC().Format("2006/01/02"), record.RequestID)
}

// Archive uploads the image and the analysis JSON side by side
func (s *azureArchiver) Archive(ctx context.Context, record *ArchiveRecord) error {
	if record == nil || record.RequestID == "" {
		return fmt.Errorf("archive record requires a request id")
	}

	doc := archivedAnalysis{Analysis: record.Analysis}
	if record.Analysis != nil {
		doc.RawResponse = record.Analysis.RawResponse
	}
	analysis, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	prefix := BlobPrefix(record)
	metadata := map[string]*string{"request_id": &record.RequestID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.upload(gctx, path.Join(prefix, "image."+record.Format), record.Image, record.MIMEType, metadata)
	})
	g.Go(func() error {
		return s.upload(gctx, path.Join(prefix, "analysis.json"), analysis, "application/json", metadata)
	})
	return g.Wait()
}

func (s *azureArchiver) upload(ctx context.Context, name string, data []byte, contentType string, metadata map[string]*string) error {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("upload %s failed: %w", name, err)
	}
	return nil
}

func (s *azureArchiver) Close() error {
	return nil
}

// Copyright 2026 BlobPortal
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"blobportal/platform/shared/logger"
)

// AzureConfig selects the storage account and the authentication method.
// Exactly one of ConnectionString, AccountKey, or UseDefaultCredential must be
// set; AccountName is required unless a connection string is given.
type AzureConfig struct {
	AccountName          string
	AccountKey           string
	ConnectionString     string
	UseDefaultCredential bool
}

// AzureAccessor implements Accessor against an Azure Blob Storage account.
type AzureAccessor struct {
	client        *azblob.Client
	serviceClient *service.Client
	accountName   string
	sharedKeyCred *azblob.SharedKeyCredential
	log           *logger.Logger
}

// NewAzureAccessor builds an accessor for the configured account and verifies
// connectivity with a service properties call.
func NewAzureAccessor(ctx context.Context, cfg AzureConfig) (*AzureAccessor, error) {
	a := &AzureAccessor{
		accountName: cfg.AccountName,
		log:         logger.New("storage"),
	}

	var err error
	switch {
	case cfg.ConnectionString != "":
		a.client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, newStorageError("Connect", "", "", "failed to create client from connection string", err)
		}
		a.serviceClient, err = service.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, newStorageError("Connect", "", "", "failed to create service client from connection string", err)
		}
		// Extract the shared key so SAS generation works under connection
		// string auth too.
		if name, key, ok := parseConnectionString(cfg.ConnectionString); ok {
			if a.accountName == "" {
				a.accountName = name
			}
			if cred, credErr := azblob.NewSharedKeyCredential(name, key); credErr == nil {
				a.sharedKeyCred = cred
			}
		}

	case cfg.AccountKey != "":
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, newStorageError("Connect", "", "", "failed to create shared key credential", credErr)
		}
		a.sharedKeyCred = cred
		a.client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, newStorageError("Connect", "", "", "failed to create client", err)
		}
		a.serviceClient, err = service.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, newStorageError("Connect", "", "", "failed to create service client", err)
		}

	case cfg.UseDefaultCredential:
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, newStorageError("Connect", "", "", "failed to create Azure credential", credErr)
		}
		a.client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, newStorageError("Connect", "", "", "failed to create client", err)
		}
		a.serviceClient, err = service.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, newStorageError("Connect", "", "", "failed to create service client", err)
		}

	default:
		return nil, newStorageError("Connect", "", "", "no authentication method provided", nil)
	}

	if _, err := a.serviceClient.GetProperties(ctx, nil); err != nil {
		return nil, newStorageError("Connect", "", "", "failed to verify Azure Blob connectivity", err)
	}

	a.log.Info("", "connected to Azure Blob Storage", map[string]interface{}{
		"account": a.accountName,
	})
	return a, nil
}

// ListContainers returns every container in the account, metadata included.
func (a *AzureAccessor) ListContainers(ctx context.Context) ([]ContainerRecord, error) {
	includeMetadata := service.ListContainersInclude{Metadata: true}
	pager := a.serviceClient.NewListContainersPager(&service.ListContainersOptions{
		Include: includeMetadata,
	})

	records := make([]ContainerRecord, 0)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, newStorageError("ListContainers", "", "", "failed to list containers", err)
		}
		for _, item := range resp.ContainerItems {
			if item == nil || item.Name == nil {
				continue
			}
			rec := ContainerRecord{
				Name:     *item.Name,
				Metadata: fromAzureMetadata(item.Metadata),
			}
			if p := item.Properties; p != nil {
				rec.LastModified = timeValue(p.LastModified)
				rec.ETag = stringValue((*string)(p.ETag))
				rec.PublicAccess = publicAccessLevel((*string)(p.PublicAccess))
				rec.HasImmutabilityPolicy = boolValue(p.HasImmutabilityPolicy)
				rec.HasLegalHold = boolValue(p.HasLegalHold)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// ListBlobs returns the flat blob listing of one container, scoped to prefix
// when given. Metadata, tags, and soft-deleted blobs are included so callers
// can filter without issuing per-blob property calls.
func (a *AzureAccessor) ListBlobs(ctx context.Context, containerName, prefix string) ([]BlobRecord, error) {
	containerClient := a.serviceClient.NewContainerClient(containerName)

	pager := containerClient.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
		Prefix: &prefix,
		Include: container.ListBlobsInclude{
			Metadata: true,
			Tags:     true,
			Deleted:  true,
		},
	})

	records := make([]BlobRecord, 0)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, newStorageError("ListBlobs", containerName, "", "failed to list blobs", err)
		}
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			rec := BlobRecord{
				Name:          *item.Name,
				ContainerName: containerName,
				Metadata:      fromAzureMetadata(item.Metadata),
				Tags:          fromBlobTags(item.BlobTags),
				Deleted:       boolValue(item.Deleted),
			}
			if p := item.Properties; p != nil {
				rec.LastModified = timeValue(p.LastModified)
				rec.ETag = stringValue((*string)(p.ETag))
				rec.ContentLength = int64Value(p.ContentLength)
				rec.ContentType = stringValue(p.ContentType)
				if p.AccessTier != nil {
					rec.AccessTier = AccessTier(string(*p.AccessTier))
				}
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// GetContainerProperties fetches the current properties of one container.
func (a *AzureAccessor) GetContainerProperties(ctx context.Context, containerName string) (ContainerRecord, error) {
	containerClient := a.serviceClient.NewContainerClient(containerName)

	resp, err := containerClient.GetProperties(ctx, nil)
	if err != nil {
		return ContainerRecord{}, newStorageError("GetContainerProperties", containerName, "", "failed to get container properties", err)
	}

	return ContainerRecord{
		Name:                  containerName,
		LastModified:          timeValue(resp.LastModified),
		ETag:                  stringValue((*string)(resp.ETag)),
		PublicAccess:          publicAccessLevel((*string)(resp.BlobPublicAccess)),
		Metadata:              fromAzureMetadata(resp.Metadata),
		HasImmutabilityPolicy: boolValue(resp.HasImmutabilityPolicy),
		HasLegalHold:          boolValue(resp.HasLegalHold),
	}, nil
}

// SearchBlobs lists one container and applies the structured criteria
// client-side. Sorting and truncation are left to the aggregating caller.
func (a *AzureAccessor) SearchBlobs(ctx context.Context, containerName string, criteria SearchCriteria) ([]BlobRecord, error) {
	blobs, err := a.ListBlobs(ctx, containerName, "")
	if err != nil {
		return nil, err
	}
	return FilterBlobs(blobs, criteria), nil
}

// UploadBlob writes a full blob from a buffer.
func (a *AzureAccessor) UploadBlob(ctx context.Context, containerName, blobName string, input UploadInput) error {
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if len(input.Metadata) > 0 {
		opts.Metadata = toAzureMetadata(input.Metadata)
	}
	if len(input.Tags) > 0 {
		opts.Tags = input.Tags
	}

	if _, err := a.client.UploadBuffer(ctx, containerName, blobName, input.Data, opts); err != nil {
		return newStorageError("UploadBlob", containerName, blobName, "failed to upload blob", err)
	}
	return nil
}

// DeleteBlob deletes a blob. With a soft-delete retention policy on the
// account this is recoverable via UndeleteBlob.
func (a *AzureAccessor) DeleteBlob(ctx context.Context, containerName, blobName string) error {
	if _, err := a.client.DeleteBlob(ctx, containerName, blobName, nil); err != nil {
		return newStorageError("DeleteBlob", containerName, blobName, "failed to delete blob", err)
	}
	return nil
}

// UndeleteBlob restores a soft-deleted blob.
func (a *AzureAccessor) UndeleteBlob(ctx context.Context, containerName, blobName string) error {
	blobClient := a.serviceClient.NewContainerClient(containerName).NewBlobClient(blobName)
	if _, err := blobClient.Undelete(ctx, nil); err != nil {
		return newStorageError("UndeleteBlob", containerName, blobName, "failed to undelete blob", err)
	}
	return nil
}

// CopyBlob starts a server-side copy. The copy is asynchronous on the backend;
// completion is visible through the destination blob's listing entry.
func (a *AzureAccessor) CopyBlob(ctx context.Context, input CopyInput) error {
	sourceURL := fmt.Sprintf("%s/%s/%s",
		strings.TrimSuffix(a.serviceClient.URL(), "/"), input.SourceContainer, input.SourceBlob)

	destClient := a.serviceClient.NewContainerClient(input.DestContainer).NewBlobClient(input.DestBlob)
	if _, err := destClient.StartCopyFromURL(ctx, sourceURL, nil); err != nil {
		return newStorageError("CopyBlob", input.DestContainer, input.DestBlob, "failed to copy blob", err)
	}
	return nil
}

// CreateContainer creates a new container.
func (a *AzureAccessor) CreateContainer(ctx context.Context, containerName string) error {
	if _, err := a.client.CreateContainer(ctx, containerName, nil); err != nil {
		return newStorageError("CreateContainer", containerName, "", "failed to create container", err)
	}
	return nil
}

// DeleteContainer deletes a container and everything in it.
func (a *AzureAccessor) DeleteContainer(ctx context.Context, containerName string) error {
	if _, err := a.client.DeleteContainer(ctx, containerName, nil); err != nil {
		return newStorageError("DeleteContainer", containerName, "", "failed to delete container", err)
	}
	return nil
}

// SetBlobTier moves a blob to the given access tier.
func (a *AzureAccessor) SetBlobTier(ctx context.Context, containerName, blobName string, tier AccessTier) error {
	blobClient := a.serviceClient.NewContainerClient(containerName).NewBlobClient(blobName)
	if _, err := blobClient.SetTier(ctx, blob.AccessTier(tier), nil); err != nil {
		return newStorageError("SetBlobTier", containerName, blobName, "failed to set access tier", err)
	}
	return nil
}

// SetBlobMetadata replaces the blob's metadata wholesale.
func (a *AzureAccessor) SetBlobMetadata(ctx context.Context, containerName, blobName string, metadata map[string]string) error {
	blobClient := a.serviceClient.NewContainerClient(containerName).NewBlobClient(blobName)
	if _, err := blobClient.SetMetadata(ctx, toAzureMetadata(metadata), nil); err != nil {
		return newStorageError("SetBlobMetadata", containerName, blobName, "failed to set metadata", err)
	}
	return nil
}

// SetBlobTags replaces the blob's tags wholesale.
func (a *AzureAccessor) SetBlobTags(ctx context.Context, containerName, blobName string, tags map[string]string) error {
	blobClient := a.serviceClient.NewContainerClient(containerName).NewBlobClient(blobName)
	if _, err := blobClient.SetTags(ctx, tags, nil); err != nil {
		return newStorageError("SetBlobTags", containerName, blobName, "failed to set tags", err)
	}
	return nil
}

// BlobSASURL generates a signed URL for one blob. Requires shared key
// credentials; DefaultAzureCredential auth cannot sign account SAS tokens.
func (a *AzureAccessor) BlobSASURL(ctx context.Context, containerName, blobName string, input SASInput) (string, error) {
	if a.sharedKeyCred == nil {
		return "", newStorageError("BlobSASURL", containerName, blobName, "account key required for SAS generation", nil)
	}

	perms := sas.BlobPermissions{}
	for _, p := range input.Permissions {
		switch p {
		case 'r':
			perms.Read = true
		case 'w':
			perms.Write = true
		case 'd':
			perms.Delete = true
		case 'c':
			perms.Create = true
		}
	}

	expiry := input.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	signatureValues := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     time.Now().Add(-10 * time.Minute),
		ExpiryTime:    time.Now().Add(expiry),
		Permissions:   perms.String(),
		ContainerName: containerName,
		BlobName:      blobName,
	}

	sasQueryParams, err := signatureValues.SignWithSharedKey(a.sharedKeyCred)
	if err != nil {
		return "", newStorageError("BlobSASURL", containerName, blobName, "failed to generate SAS token", err)
	}

	return fmt.Sprintf("%s/%s/%s?%s",
		strings.TrimSuffix(a.serviceClient.URL(), "/"),
		containerName, blobName, sasQueryParams.Encode()), nil
}

// parseConnectionString pulls the account name and key out of an Azure storage
// connection string.
func parseConnectionString(connectionString string) (accountName, accountKey string, ok bool) {
	for _, part := range strings.Split(connectionString, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch key {
		case "AccountName":
			accountName = value
		case "AccountKey":
			accountKey = value
		}
	}
	return accountName, accountKey, accountName != "" && accountKey != ""
}

// Pointer unwrapping helpers for the SDK's optional fields.

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func int64Value(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func publicAccessLevel(s *string) PublicAccessLevel {
	if s == nil {
		return PublicAccessNone
	}
	switch strings.ToLower(*s) {
	case "blob":
		return PublicAccessBlob
	case "container":
		return PublicAccessContainer
	}
	return PublicAccessNone
}

func fromAzureMetadata(metadata map[string]*string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = stringValue(v)
	}
	return out
}

func toAzureMetadata(metadata map[string]string) map[string]*string {
	if metadata == nil {
		return nil
	}
	out := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		v := v
		out[k] = &v
	}
	return out
}

func fromBlobTags(tags *container.BlobTags) map[string]string {
	if tags == nil || len(tags.BlobTagSet) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags.BlobTagSet))
	for _, tag := range tags.BlobTagSet {
		if tag == nil || tag.Key == nil {
			continue
		}
		out[*tag.Key] = stringValue(tag.Value)
	}
	return out
}

// Verify AzureAccessor implements Accessor.
var _ Accessor = (*AzureAccessor)(nil)

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
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// StorageError wraps a failed storage operation with the HTTP status code and
// the service error code reported by the backend, when available.
type StorageError struct {
	Op         string
	Container  string
	Blob       string
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

func (e *StorageError) Error() string {
	target := e.Container
	if e.Blob != "" {
		target = e.Container + "/" + e.Blob
	}
	if e.Cause != nil {
		return fmt.Sprintf("storage.%s %s: %s (cause: %v)", e.Op, target, e.Message, e.Cause)
	}
	return fmt.Sprintf("storage.%s %s: %s", e.Op, target, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// newStorageError builds a StorageError around cause, extracting the status
// and error codes from the Azure response error when present.
func newStorageError(op, containerName, blobName, message string, cause error) *StorageError {
	se := &StorageError{
		Op:        op,
		Container: containerName,
		Blob:      blobName,
		Message:   message,
		Cause:     cause,
	}
	var respErr *azcore.ResponseError
	if errors.As(cause, &respErr) {
		se.StatusCode = respErr.StatusCode
		se.Code = respErr.ErrorCode
	}
	return se
}

// IsNotFound reports whether err represents a missing container or blob.
func IsNotFound(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		switch bloberror.Code(se.Code) {
		case bloberror.ContainerNotFound, bloberror.BlobNotFound, bloberror.ResourceNotFound:
			return true
		}
	}
	return bloberror.HasCode(err,
		bloberror.ContainerNotFound,
		bloberror.BlobNotFound,
		bloberror.ResourceNotFound,
	)
}

// StatusCode returns the HTTP status carried by err, or 0 when err carries
// none.
func StatusCode(err error) int {
	var se *StorageError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// ErrorCode returns the service error code carried by err, or "".
func ErrorCode(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ErrorCode
	}
	return ""
}

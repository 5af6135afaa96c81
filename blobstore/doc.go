// Package blobstore abstracts where snapshot blobs live.
//
// Implementations:
//   - LocalStore: local file system with temp-file-then-rename commits
//     and mmap-backed reads
//   - MemoryStore: in-memory store for tests
//   - minio.Store: any S3-compatible object storage via the MinIO client
//   - s3.Store: AWS S3 via the AWS SDK, optionally paired with a DynamoDB
//     commit pointer for atomic manifest updates
//
// The persistence layer treats all of these identically, so the store's
// concurrency contract does not depend on the storage medium.
package blobstore

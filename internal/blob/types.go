// Package blob selects a blob store backend and adapts it to the snapshot
// persistence slot.
package blob

import (
	"chvcore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
	// DefaultPresignExpiry is the download URL lifetime used when none is given.
	DefaultPresignExpiry = core.DefaultPresignExpiry
)

var (
	// ErrNotFound is wrapped by Get and Head for missing keys.
	ErrNotFound = core.ErrNotFound
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
)

package blob

import (
	"context"
	"fmt"

	"chvcore/internal/infra/blob/fs"
	memorystore "chvcore/internal/infra/blob/memory"
	infraS3 "chvcore/internal/infra/blob/s3"
)

// S3Config re-exports the infra S3 configuration type.
type S3Config = infraS3.Config

// Options selects and configures a blob backend.
type Options struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open constructs the configured blob store. An empty driver selects fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverFilesystem:
		return fs.New(opts.FSRoot)
	case DriverS3:
		return infraS3.New(ctx, opts.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", opts.Driver)
	}
}

package apperr

import "errors"

var (
	// ErrNotFound indicates a lookup that matched no item.
	ErrNotFound = errors.New("not found")

	// ErrAssetDeleteUnsupported indicates an attempt to delete an asset
	// whose backing file is still on disk. Asset deletion goes through the
	// content pool, which this core does not integrate; failing loudly here
	// avoids orphaning the on-disk asset.
	ErrAssetDeleteUnsupported = errors.New("asset deletion is not supported")

	// ErrClosed indicates a call against a database whose run loop has stopped.
	ErrClosed = errors.New("content database is closed")
)

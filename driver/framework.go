package driver

import (
	"io"

	"github.com/ardnew/axififo/platform"
)

// FileOperations opens files on a registered device.
type FileOperations interface {
	Open() (io.ReadWriteCloser, error)
}

// Handle identifies a device registered with a Framework.
type Handle int

// Framework publishes a device so that clients can open it.
type Framework interface {
	// Register reserves a device called name served by ops.
	Register(name string, ops FileOperations) (Handle, error)

	// CreateNode makes the registered device reachable and returns the path
	// clients open.
	CreateNode(h Handle) (string, error)

	// Teardown removes the node, if any, and the registration.
	Teardown(h Handle) error
}

// Releaser is implemented by discovery collaborators that hold mappings
// until their scope ends.
type Releaser interface {
	Release() error
}

// Remover is implemented by discovery collaborators that release the mapping
// of a single resource when its device departs.
type Remover interface {
	Remove(res platform.Resource) error
}

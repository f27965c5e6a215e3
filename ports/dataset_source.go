package ports

import (
	"context"

	"vardrill/domain/drill"
)

// DatasetSource loads the rows a session drills into.
type DatasetSource interface {
	ReadDataset(ctx context.Context) (*drill.Dataset, error)
}

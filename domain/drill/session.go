package drill

import (
	"time"

	"vardrill/domain/core"
)

// SessionSnapshot is the persisted state of one drill session. Only the
// path is stored; every derived number is recomputed from the dataset.
type SessionSnapshot struct {
	SessionID      core.SessionID `json:"session_id"`
	DatasetVersion string         `json:"dataset_version"`
	Outcome        string         `json:"outcome"`
	Stack          FilterStack    `json:"stack"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

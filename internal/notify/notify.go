package notify

import (
	"context"

	"github.com/google/uuid"
)

// Event describes a terminal pipeline outcome for one document.
type Event struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Items      int       `json:"items,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Notifier delivers pipeline outcome events to an external sink. Delivery
// is best effort: the pipeline logs failures and moves on.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

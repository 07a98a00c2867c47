package export

import (
	"context"

	"clarify/internal/core"
)

// Ports for outbound adapters.
type (
	// BadgeWriter appends one awarded badge to an external record.
	BadgeWriter interface {
		AppendBadge(ctx context.Context, b core.Badge) (rowRef string, err error)
	}
)

// Header is the column layout every badge writer uses.
var Header = []string{"Issued At", "Badge ID", "Group ID", "Tier", "Description"}

// Row renders a badge in Header order.
func Row(b core.Badge) []string {
	return []string{
		b.IssuedAt.UTC().Format("2006-01-02 15:04:05"),
		b.ID,
		b.GroupID,
		string(b.Tier),
		b.Description,
	}
}

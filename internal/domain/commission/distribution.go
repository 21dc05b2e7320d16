package commission

import (
	"strings"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// PathSeparator separates level names in a distribution path
const PathSeparator = ">"

// Distribution places a Book in the sales hierarchy
type Distribution struct {
	shared.BaseEntity
	BookID           uuid.UUID `json:"book_id"`
	DistributionPath string    `json:"distribution_path"` // e.g. "North Zone > Team A > John"
}

// NewDistribution creates a new distribution for a book
func NewDistribution(bookID uuid.UUID, path string) (*Distribution, error) {
	if bookID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BOOK", "Book ID cannot be empty")
	}
	if len(path) > 500 {
		return nil, shared.NewDomainError("INVALID_DISTRIBUTION_PATH", "Distribution path cannot exceed 500 characters")
	}
	return &Distribution{
		BaseEntity:       shared.NewBaseEntity(),
		BookID:           bookID,
		DistributionPath: path,
	}, nil
}

// Levels returns the trimmed level names of the path, in order
func (d *Distribution) Levels() []string {
	if d.DistributionPath == "" {
		return nil
	}
	parts := strings.Split(d.DistributionPath, PathSeparator)
	levels := make([]string, len(parts))
	for i, p := range parts {
		levels[i] = strings.TrimSpace(p)
	}
	return levels
}

// Level1Value returns the first segment of the path, the attribution key
// commissions are grouped by. Returns "" when the first segment is empty.
func (d *Distribution) Level1Value() string {
	levels := d.Levels()
	if len(levels) == 0 {
		return ""
	}
	return levels[0]
}

// HasAttribution reports whether the distribution can carry a commission
func (d *Distribution) HasAttribution() bool {
	return d.Level1Value() != ""
}

package turso

import (
	"database/sql"

	"github.com/emiliopalmerini/soilstab/internal/ports"
)

// Repositories holds all turso repository implementations as port interfaces.
type Repositories struct {
	History ports.HistoryRepository
}

// NewRepositories creates all turso repository implementations from a database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		History: NewHistoryRepository(db),
	}
}

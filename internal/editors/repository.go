package editors

import "context"

// Repository defines read access to the editor allow-list.
type Repository interface {
	IsEditor(ctx context.Context, tgUserID int64) (bool, error)
}

package outbox

import "gorm.io/gorm/clause"

func lockSkipLocked() clause.Locking {
	return clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}
}

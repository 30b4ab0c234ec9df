package counter

import "time"

// IDCounter holds the last identifier number handed out per prefix.
type IDCounter struct {
	Prefix    string `gorm:"primaryKey;size:32"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (IDCounter) TableName() string {
	return "worker_id_counters"
}

package domain

import "time"

// Customer is a client record. Its tasks reference it through Task.CustomerID;
// deleting a customer deletes those tasks.
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:160;not null"`
	Email     string    `json:"email" gorm:"size:191;not null;uniqueIndex"`
	Phone     string    `json:"phone" gorm:"size:40"`
	Address   string    `json:"address" gorm:"type:text"`
	Notes     string    `json:"notes" gorm:"size:500"`
	IsActive  bool      `json:"is_active" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"<-:create"`
	UpdatedAt time.Time `json:"updated_at"`
}

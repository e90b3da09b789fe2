package models

import "time"

type User struct {
	ID           string     `json:"id" bson:"_id"`
	HashedID     string     `json:"hashedId" bson:"hashedId"` // pseudonymous uuid, not an identity
	Role         string     `json:"role" bson:"role"`
	IsActive     bool       `json:"isActive" bson:"isActive"`
	MessageCount int        `json:"messageCount" bson:"messageCount"`
	LastActivity *time.Time `json:"lastActivity,omitempty" bson:"lastActivity,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
}

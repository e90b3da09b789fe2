package models

import "time"

// ChannelTypes are the communication sources the pipeline ingests from.
var ChannelTypes = []string{"jira", "chat", "meeting", "discord"}

func IsChannelType(t string) bool {
	for _, ct := range ChannelTypes {
		if ct == t {
			return true
		}
	}
	return false
}

type Channel struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Type       string    `json:"type" bson:"type"`
	ExternalID string    `json:"externalId" bson:"externalId"`
	IsActive   bool      `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

type ChannelListResponse struct {
	Channels []*Channel `json:"channels"`
	Total    int        `json:"total"`
	Query    string     `json:"query,omitempty"`
}

// Package model defines shared data structures for the match service.
package model

import (
	"encoding/json"
	"time"
)

// NamedTag is the relational shape of a tag row (position category, meal,
// experience, environment, accommodation) as delivered by the posting CRUD
// service. It is converted to a flat string by the document transformer.
type NamedTag struct {
	Name string `json:"name"`
}

// Unit is the posting owner attached to a RawWorkPost.
type Unit struct {
	ID       string `json:"id,omitempty"`
	UserID   string `json:"userId,omitempty"`
	UnitName string `json:"unitName,omitempty"`
	City     string `json:"city"`
}

// RawWorkPost mirrors the posting record as the CRUD service persists it
// (relations still nested). It is stored as JSONB in work_post_feed and is
// the input of document.Transform.
type RawWorkPost struct {
	ID                 string     `json:"id"`
	PositionName       string     `json:"positionName"`
	AverageWorkHours   int        `json:"averageWorkHours"`
	MinDuration        int        `json:"minDuration"`
	RecruitCount       int        `json:"recruitCount,omitempty"`
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	PositionCategories []NamedTag `json:"positionCategories"`
	Accommodations     []NamedTag `json:"accommodations"`
	Meals              []NamedTag `json:"meals"`
	Experiences        []NamedTag `json:"experiences"`
	Environments       []NamedTag `json:"environments"`
	Unit               Unit       `json:"unit"`
}

// WorkDocument is the flat, immutable matching snapshot of a posting.
// Re-created (same ID) whenever the posting is updated.
type WorkDocument struct {
	ID                 string    `json:"id"`
	PositionName       string    `json:"positionName"`
	UnitName           string    `json:"unitName"`
	City               string    `json:"city"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	AverageWorkHours   int       `json:"averageWorkHours"`
	MinDuration        int       `json:"minDuration"`
	RecruitCount       int       `json:"recruitCount"`
	PositionCategories []string  `json:"positionCategories"`
	Accommodations     []string  `json:"accommodations"`
	Meals              []string  `json:"meals"`
	Experiences        []string  `json:"experiences"`
	Environments       []string  `json:"environments"`
}

// Filter is a subscriber's matching criteria. Every field is optional;
// absence means wildcard. A filter with zero effective constraints is
// rejected at compile time.
type Filter struct {
	City               *string    `json:"city,omitempty"`
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	ApplicantCount     *int       `json:"applicantCount,omitempty"`
	AverageWorkHours   *int       `json:"averageWorkHours,omitempty"`
	MinDuration        *int       `json:"minDuration,omitempty"`
	PositionCategories []string   `json:"positionCategories,omitempty"`
	Accommodations     []string   `json:"accommodations,omitempty"`
	Meals              []string   `json:"meals,omitempty"`
	Experiences        []string   `json:"experiences,omitempty"`
	Environments       []string   `json:"environments,omitempty"`
}

// Subscription is a stored filter subscription owned by a helper profile.
type Subscription struct {
	ID              string    `json:"id"`
	HelperProfileID string    `json:"helperProfileId"`
	Name            *string   `json:"name"`
	Filter          Filter    `json:"filters"`
	CreatedAt       time.Time `json:"createdAt"`
}

// MatchResult records that a document matched a subscription. Unique per
// (WorkPostID, SubscriptionID) pair; append-only.
type MatchResult struct {
	WorkPostID      string `json:"workPostId"`
	SubscriptionID  string `json:"subscriptionId"`
	HelperProfileID string `json:"helperProfileId"`
}

// NotificationData is the structured payload carried by a notification.
type NotificationData struct {
	WorkPostID   string `json:"workPostId"`
	UnitName     string `json:"unitName"`
	PositionName string `json:"positionName"`
}

// Notification is a persisted, per-recipient message.
type Notification struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NotificationInput is the per-posting message rendered once and then
// persisted for every matched recipient.
type NotificationInput struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Data    NotificationData `json:"data"`
}

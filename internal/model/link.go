package model

import "time"

// Link is one entry in a profile's ordered list of displayed URLs, entered by
// hand in the dashboard or imported from a GitHub repository.
//
// Order is the sole display sort key. It is assigned as the collection size at
// append time and never renumbered on delete, so gaps (and, under concurrent
// imports, duplicates) are expected; ties are broken by insertion order.
type Link struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profileId"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Stacks      []string  `json:"stacks"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Package models defines the payloads exchanged with the scrum-planning API.
package models

// Link is a relation-tagged navigation link embedded in every resource.
type Link struct {
	Rel string `json:"rel"`
	URI string `json:"uri"`
}

// ItemEnvelope wraps a single resource in a response body.
type ItemEnvelope[T any] struct {
	Item T `json:"item"`
}

// ItemsEnvelope wraps a resource collection in a response body.
type ItemsEnvelope[T any] struct {
	Items []T `json:"items"`
}

package store

import "time"

// Kind is the pipeline step a history record describes.
type Kind string

const (
	KindDownload Kind = "download"
	KindFlash    Kind = "flash"
)

// Record is one completed download or flash.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Hardware  string    `json:"hardware"`
	Repo      string    `json:"repo"`
	Tag       string    `json:"tag"`
	Variant   string    `json:"variant,omitempty"`
	Asset     string    `json:"asset"`
	Path      string    `json:"path,omitempty"`
	Hash      string    `json:"hash,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

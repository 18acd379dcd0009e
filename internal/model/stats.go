package model

import "time"

// GithubStats is the small statistics payload shown as counters on the
// home page.
type GithubStats struct {
	CommitCount    int `json:"commitCount"`
	Collaborations int `json:"collaborations"`
	JoinedYear     int `json:"joinedYear"`
}

// Snapshot is the most recently fetched GithubStats held for display.
// FetchedAt is zero until the first successful fetch.
type Snapshot struct {
	GithubStats
	FetchedAt time.Time `json:"fetchedAt"`
}

// PollStatus describes the poller as seen by a reader at one instant.
//
// Refreshing mirrors the loading indicator the stats counter shows while a
// fetch is outstanding. LastError is diagnostic only: the snapshot is kept
// as-is when a fetch fails.
type PollStatus struct {
	Snapshot    Snapshot  `json:"snapshot"`
	Refreshing  bool      `json:"refreshing"`
	LastError   string    `json:"lastError,omitempty"`
	LastAttempt time.Time `json:"lastAttempt"`
	LastSuccess time.Time `json:"lastSuccess"`
}

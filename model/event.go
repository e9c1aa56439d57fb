package model

import "time"

// Update is pushed to websocket clients whenever an event schedule is (re)fetched.
type Update struct {
	Event     string     `json:"event"`
	Name      string     `json:"name"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Sessions  int        `json:"sessions"`
	Schedule  Collection `json:"schedule"`
}

// EventInfo describes one configured event.
type EventInfo struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Source   string `json:"source"`
}

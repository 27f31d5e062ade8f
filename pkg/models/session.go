package models

import "time"

// Session is one daemon run as recorded in the journal
type Session struct {
	ID              string     `json:"id"`
	AppID           string     `json:"appId"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	Count           uint64     `json:"count"`
	Feet            float64    `json:"feet"`
	Landmark        string     `json:"landmark,omitempty"`
	ForegroundCount int        `json:"foregroundCount"`
}

// Active reports whether the session has not been closed
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

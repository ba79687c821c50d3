package domain

import (
	"encoding/xml"
	"errors"
)

// ErrSnapshotNotFound is returned when no snapshot was written for a user.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// SessionSnapshot is the record written when a user logs out.
type SessionSnapshot struct {
	XMLName     xml.Name          `xml:"session" json:"-"`
	UserID      int64             `xml:"user,attr" json:"userId"`
	Username    string            `xml:"username" json:"username"`
	Email       string            `xml:"email" json:"email"`
	LoggedInAt  int64             `xml:"loggedInAt" json:"loggedInAt"`
	LoggedOutAt int64             `xml:"loggedOutAt" json:"loggedOutAt"`
	Games       []SnapshotGameRef `xml:"games>game" json:"games"`
}

// SnapshotGameRef is a game rating captured in a SessionSnapshot.
type SnapshotGameRef struct {
	GameID int64   `xml:"id,attr" json:"gameId"`
	Name   string  `xml:"name" json:"name"`
	Rating float64 `xml:"rating" json:"rating"`
}

// NewSessionSnapshot captures user at logout time.
// The password hash is never part of a snapshot.
func NewSessionSnapshot(user *User, loggedInAt, loggedOutAt int64) *SessionSnapshot {
	snapshot := &SessionSnapshot{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		LoggedInAt:  loggedInAt,
		LoggedOutAt: loggedOutAt,
		Games:       make([]SnapshotGameRef, 0, len(user.Games)),
	}

	for _, game := range user.Games {
		snapshot.Games = append(snapshot.Games, SnapshotGameRef{
			GameID: game.GameID,
			Name:   game.Name,
			Rating: game.UserRating,
		})
	}

	return snapshot
}

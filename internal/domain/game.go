package domain

import (
	"errors"
	"strings"
)

// ErrGameNotFound is returned when the catalogue has no game with the requested ID.
var ErrGameNotFound = errors.New("game not found")

// GenreSeparator joins genre names when a game is stored in the cache.
const GenreSeparator = ", "

// Game is a cached entry of the remote game catalogue.
type Game struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	BackgroundImage string   `json:"backgroundImage,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Released        string   `json:"released,omitempty"`
	Developer       string   `json:"developer,omitempty"`
	Rating          float64  `json:"rating"`
}

// GenreList returns the genres as a single comma separated string.
func (g Game) GenreList() string {
	return strings.Join(g.Genres, GenreSeparator)
}

package model

type MovieID = int64

// Movie is a candidate of a voting round. JSON tags follow the catalog API
// the client forwards movies from.
type Movie struct {
	ID         MovieID `json:"id" validate:"required"`
	Title      string  `json:"title" validate:"required"`
	PosterPath string  `json:"poster_path"`
	Overview   string  `json:"overview"`
	Rating     float64 `json:"vote_average"`
}

// SameMovies reports whether two candidate lists are equal element-wise.
func SameMovies(a, b []Movie) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

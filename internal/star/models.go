package star

type Star struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Magnitude    float64 `json:"magnitude"`
	Distance     float64 `json:"distance"` // light-years
	SpectralType string  `json:"spectral_type"`
}

type CreateStarRequest struct {
	Name         string
	Magnitude    float64
	Distance     float64
	SpectralType string
}

// DuplicateGroup is a name shared by more than one star.
type DuplicateGroup struct {
	Name  string
	Count int
}

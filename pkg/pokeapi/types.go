package pokeapi

// NamedResource is one entry of a listing page: a display name plus the
// absolute URL of its detail resource.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NamedResourceList is a page of the /pokemon listing.
type NamedResourceList struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// Sprites holds the image locations of a Pokemon. Only the default front
// sprite is consumed; upstream sends null for a few entries.
type Sprites struct {
	FrontDefault *string `json:"front_default"`
}

// Pokemon is the subset of the detail resource the grid needs.
type Pokemon struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Sprites *Sprites `json:"sprites"`
}

// ImageURL returns the default front sprite, or "" when upstream has none.
func (p *Pokemon) ImageURL() string {
	if p == nil || p.Sprites == nil || p.Sprites.FrontDefault == nil {
		return ""
	}
	return *p.Sprites.FrontDefault
}

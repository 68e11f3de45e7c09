package model

type FacetValue struct {
	ID           string  `json:"id"`
	Value        string  `json:"value"`
	ColorHex     *string `json:"color_hex"`
	SortOrder    int     `json:"sort_order"`
	ProductCount int     `json:"product_count"`
}

type FacetGroup struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	SortOrder    int          `json:"sort_order"`
	ProductCount int          `json:"product_count"`
	Values       []FacetValue `json:"values"`
}

type FacetSection struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	SortOrder int          `json:"sort_order"`
	Groups    []FacetGroup `json:"groups"`
}

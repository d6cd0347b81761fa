package domain

// Gift is one entry of the platform gift catalog.
type Gift struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	IconURL      string `json:"icon_url"`
	ComboEnabled bool   `json:"combo_enabled"`
}

// GiftCatalog is the cached gift reference document.
type GiftCatalog struct {
	Version string `json:"version"`
	Gifts   []Gift `json:"gifts"`
}

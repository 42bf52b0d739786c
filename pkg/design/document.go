package design

import "encoding/json"

// Element is one asset placement inside a compositor document. Position and
// size fields are percentages of the output canvas.
type Element struct {
	AssetURL      string  `json:"assetUrl"`
	XPercent      float64 `json:"x_percent"`
	YPercent      float64 `json:"y_percent"`
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
	Rotation      float64 `json:"rotation"`
	Scale         float64 `json:"scale"`
}

// Document is the compositor input parsed out of a stored design blob.
type Document struct {
	Elements []Element `json:"elements"`
}

// ParseDocument extracts the element list from a stored design blob. The
// second return is false when the blob carries no elements key.
func ParseDocument(stored string) (Document, bool) {
	var doc Document
	if err := json.Unmarshal([]byte(stored), &doc); err != nil {
		return Document{}, false
	}
	if doc.Elements == nil {
		return Document{}, false
	}
	return doc, true
}

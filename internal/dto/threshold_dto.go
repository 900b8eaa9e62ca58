package dto

// ThresholdsResponse mirrors the live confidence thresholds.
type ThresholdsResponse struct {
	HighScore     float64 `json:"high_score"`
	HighMargin    float64 `json:"high_margin"`
	MediumScore   float64 `json:"medium_score"`
	MediumMargin  float64 `json:"medium_margin"`
	NearTieMargin float64 `json:"near_tie_margin"`
}

// UpdateThresholdsRequest replaces all five values at once; there is no
// partial update because the ordering constraints span fields.
type UpdateThresholdsRequest struct {
	HighScore     float64 `json:"high_score" validate:"required,gt=0,lte=1"`
	HighMargin    float64 `json:"high_margin" validate:"required,gt=0,lte=1"`
	MediumScore   float64 `json:"medium_score" validate:"required,gt=0,lte=1"`
	MediumMargin  float64 `json:"medium_margin" validate:"required,gt=0,lte=1"`
	NearTieMargin float64 `json:"near_tie_margin" validate:"required,gt=0,lte=1"`
}

type ReloadResponse struct {
	SnapshotVersion string `json:"snapshot_version"`
	PrototypeCount  int    `json:"prototype_count"`
	Categories      int    `json:"categories"`
}

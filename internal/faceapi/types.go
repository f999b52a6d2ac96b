package faceapi

// HealthStatus is the body of the analysis service's liveness endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AnalysisResult is the analysis service's answer for one photo.
// The client does not validate it beyond decoding.
type AnalysisResult struct {
	Success           bool             `json:"success"`
	FaceShape         string           `json:"face_shape"`
	LandmarksDetected int              `json:"landmarks_detected"`
	Recommendations   []Recommendation `json:"recommendations"`
	AnalysisDetails   *AnalysisDetails `json:"analysis_details,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// Recommendation is one suggested glasses style. Order within a result is display order.
type Recommendation struct {
	Style       string  `json:"style"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence"`
}

// AnalysisDetails carries the measurements the classification was based on.
type AnalysisDetails struct {
	Measurements Measurements `json:"measurements"`
	Ratios       Ratios       `json:"ratios"`
}

type Measurements struct {
	FaceWidth      float64 `json:"face_width"`
	FaceLength     float64 `json:"face_length"`
	JawWidth       float64 `json:"jaw_width"`
	CheekboneWidth float64 `json:"cheekbone_width"`
	ForeheadWidth  float64 `json:"forehead_width"`
}

type Ratios struct {
	FaceRatio       float64 `json:"face_ratio"`
	JawToCheek      float64 `json:"jaw_to_cheek"`
	ForeheadToCheek float64 `json:"forehead_to_cheek"`
}

// errorResponse is the body the analysis service sends with non-2xx statuses.
type errorResponse struct {
	Error string `json:"error"`
}

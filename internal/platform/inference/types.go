package inference

import (
	"strconv"
	"strings"
)

// ClassNames maps a class index to its label. The server sends JSON object
// keys, so indices arrive as strings.
type ClassNames map[string]string

// Lookup returns the label for idx, or "" when the model has none.
func (n ClassNames) Lookup(idx int) string {
	return strings.TrimSpace(n[strconv.Itoa(idx)])
}

// Classification is the top-1 result of the disease classifier.
type Classification struct {
	Top1     *int       `json:"top1"`
	Top1Conf float64    `json:"top1conf"`
	Names    ClassNames `json:"names"`
}

// Box is one detection in pixel coordinates of the submitted image.
type Box struct {
	XYXY  [4]float64 `json:"xyxy"`
	Class int        `json:"cls"`
	Conf  float64    `json:"conf"`
}

// Detection is the fetal detector output.
type Detection struct {
	Boxes []Box      `json:"boxes"`
	Names ClassNames `json:"names"`
}

package domain

import (
	"bytes"
	"encoding/json"
	"image"
	"strconv"
	"strings"
	"time"
)

// Healthiness values accepted from the model
const (
	Healthy   = "healthy"
	Unhealthy = "unhealthy"
)

// UploadedImage is the raw upload as received from a client
type UploadedImage struct {
	Filename string
	Data     []byte
}

// DecodedImage is an upload that decoded successfully. Raw keeps the original
// bytes so the model and the result page see exactly what the user sent.
type DecodedImage struct {
	Image    image.Image
	Format   string // jpeg, png, gif, webp
	Raw      []byte
	Filename string
}

// MIMEType returns the content type matching the detected format
func (d *DecodedImage) MIMEType() string {
	return "image/" + d.Format
}

// FreeText is a nutrition value the model may send as a string ("450 kcal"),
// a bare number (450), a list (["A", "C"]) or even an object. All are kept
// as text.
type FreeText string

func (t *FreeText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = FreeText(s)
	case '[':
		var items []FreeText
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item != "" {
				parts = append(parts, string(item))
			}
		}
		*t = FreeText(strings.Join(parts, ", "))
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = FreeText(buf.String())
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*t = FreeText(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = FreeText(n.String())
	}
	return nil
}

func (t FreeText) String() string {
	return string(t)
}

// Nutrition holds the per-serving estimate. Values carry their own units.
type Nutrition struct {
	Calories FreeText `json:"calories"`
	Protein  FreeText `json:"protein"`
	Carbs    FreeText `json:"carbs"`
	Fat      FreeText `json:"fat"`
	Fiber    FreeText `json:"fiber"`
	Vitamins FreeText `json:"vitamins"`
	Minerals FreeText `json:"minerals"`
}

// Recommendation is a healthier alternative suggested by the model
type Recommendation struct {
	Name        string   `json:"name"`
	Calories    FreeText `json:"calories"`
	Description string   `json:"description"`
}

// NutritionResult is the parsed model answer
type NutritionResult struct {
	FoodName        string           `json:"food_name"`
	Nutrition       Nutrition        `json:"nutrition"`
	Healthiness     string           `json:"healthiness"`
	Reasoning       string           `json:"reasoning"`
	Recommendations []Recommendation `json:"recommendations"`
}

// IsHealthy reports whether the model judged the food healthy
func (r *NutritionResult) IsHealthy() bool {
	return strings.EqualFold(r.Healthiness, Healthy)
}

// Profile field names, shared by the web form, the Telegram caption parser and
// the WebSocket payload.
const (
	ProfileWeight   = "weight"
	ProfileHeight   = "height"
	ProfileAge      = "age"
	ProfileGender   = "gender"
	ProfileActivity = "activity"
)

// ProfileFields lists the recognised profile keys in display order
var ProfileFields = []string{ProfileWeight, ProfileHeight, ProfileAge, ProfileGender, ProfileActivity}

// UserProfile maps profile field names to their raw text. An absent key means
// "use the default"; a present key is parsed as given.
type UserProfile map[string]string

// AnalysisOutcome is everything the presentation layer needs for one analysis
type AnalysisOutcome struct {
	ID                string           `json:"id"`
	Result            *NutritionResult `json:"result"`
	DailyNeeds        *int             `json:"daily_needs,omitempty"`
	PercentageOfNeeds *float64         `json:"percentage_of_needs,omitempty"`
	ImageBase64       string           `json:"image_data"`
	ImageMIME         string           `json:"image_mime"`
	Filename          string           `json:"filename"`
	CreatedAt         time.Time        `json:"created_at"`
}

package models

// Activity is a candidate activity from the static catalog
type Activity struct {
	ID              int      `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	DurationMinutes int      `json:"duration_minutes" yaml:"duration_minutes"`
	AlignedValues   []string `json:"aligned_values" yaml:"aligned_values"`
	Description     string   `json:"description" yaml:"description"`
	Category        string   `json:"category" yaml:"category"`
	Emoji           string   `json:"emoji" yaml:"emoji"`
}

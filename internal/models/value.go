package models

// CoreValue is a user-defined life priority used to tag tasks and activities
type CoreValue struct {
	ID        int64  `json:"-"`
	ValueName string `json:"value_name"`
}

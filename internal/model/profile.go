package model

import "time"

// Profile is the developer profile aggregate. There is at most one per user,
// so the owning UserID doubles as the natural lookup key.
//
// OPTIONAL FIELDS:
// Plain strings with `omitempty` rather than *string. A profile field is
// either set to something meaningful or absent; there is no case where an
// empty string carries information, so the zero value is the "unset" marker.
type Profile struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	User           *UserSummary      `json:"user,omitempty"` // filled on reads, never stored
	Company        string            `json:"company,omitempty"`
	Website        string            `json:"website,omitempty"`
	Location       string            `json:"location,omitempty"`
	Bio            string            `json:"bio,omitempty"`
	Status         string            `json:"status,omitempty"`
	Skills         []string          `json:"skills"`
	GitHubUsername string            `json:"githubusername,omitempty"`
	Social         Social            `json:"social"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Social holds the profile's social network links.
type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// ExperienceEntry is one job in a profile's work history.
type ExperienceEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	From        Date   `json:"from"`
	To          *Date  `json:"to,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
}

// EducationEntry is one school in a profile's education history.
type EducationEntry struct {
	ID           string `json:"id"`
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         Date   `json:"from"`
	To           *Date  `json:"to,omitempty"`
	Current      bool   `json:"current"`
	Description  string `json:"description,omitempty"`
}

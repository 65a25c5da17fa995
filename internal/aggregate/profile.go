package aggregate

import (
	"strings"
	"time"

	"github.com/sakif/devconnector/internal/model"
)

// ProfileFields lists every profile attribute a client may submit.
//
// A nil field is absent and leaves the stored value alone; a non-nil field
// overwrites it. Blank strings count as absent, so sending "" never clears
// a value. Use Present to build these from raw request strings.
//
// Experience and education are deliberately missing: they change only
// through AddExperience/AddEducation and their Remove counterparts.
type ProfileFields struct {
	Company        *string
	Website        *string
	Location       *string
	Bio            *string
	Status         *string
	GitHubUsername *string
	Skills         *string // comma separated, e.g. "go, sql , docker"

	YouTube   *string
	Facebook  *string
	Twitter   *string
	Instagram *string
	LinkedIn  *string
}

// Present returns a pointer to the trimmed value, or nil when s is blank.
func Present(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SplitSkills turns "js, node , react" into ["js" "node" "react"].
// Empty segments ("a,,b") are dropped.
func SplitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}

// UpsertProfile creates a profile for userID when existing is nil, or
// sparse-merges fields on top of existing otherwise.
func UpsertProfile(existing *model.Profile, userID string, fields ProfileFields, now time.Time) model.Profile {
	var p model.Profile
	if existing != nil {
		p = *existing
	} else {
		p = model.Profile{
			ID:         newID(),
			Skills:     []string{},
			Experience: []model.ExperienceEntry{},
			Education:  []model.EducationEntry{},
			CreatedAt:  now,
		}
	}
	p.UserID = userID

	apply(&p.Company, fields.Company)
	apply(&p.Website, fields.Website)
	apply(&p.Location, fields.Location)
	apply(&p.Bio, fields.Bio)
	apply(&p.Status, fields.Status)
	apply(&p.GitHubUsername, fields.GitHubUsername)
	if v := fields.Skills; v != nil && strings.TrimSpace(*v) != "" {
		p.Skills = SplitSkills(*v)
	}

	apply(&p.Social.YouTube, fields.YouTube)
	apply(&p.Social.Facebook, fields.Facebook)
	apply(&p.Social.Twitter, fields.Twitter)
	apply(&p.Social.Instagram, fields.Instagram)
	apply(&p.Social.LinkedIn, fields.LinkedIn)

	p.UpdatedAt = now
	return p
}

func apply(dst *string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = s
	}
}

// AddExperience assigns the entry a fresh id and puts it first.
// Well-formedness (title, company, from) is checked by the caller.
func AddExperience(profile model.Profile, entry model.ExperienceEntry) model.Profile {
	entry.ID = newID()
	profile.Experience = prepend(profile.Experience, entry)
	return profile
}

// RemoveExperience drops the entry with the given id. An unknown id is not
// an error; the profile comes back unchanged.
func RemoveExperience(profile model.Profile, entryID string) model.Profile {
	kept, removed := without(profile.Experience, func(e model.ExperienceEntry) bool {
		return e.ID == entryID
	})
	if removed {
		profile.Experience = kept
	}
	return profile
}

// AddEducation assigns the entry a fresh id and puts it first.
func AddEducation(profile model.Profile, entry model.EducationEntry) model.Profile {
	entry.ID = newID()
	profile.Education = prepend(profile.Education, entry)
	return profile
}

// RemoveEducation mirrors RemoveExperience, including the silent no-op.
func RemoveEducation(profile model.Profile, entryID string) model.Profile {
	kept, removed := without(profile.Education, func(e model.EducationEntry) bool {
		return e.ID == entryID
	})
	if removed {
		profile.Education = kept
	}
	return profile
}

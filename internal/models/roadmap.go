package models

import "encoding/json"

// Course is a verified supplementary resource attached to a career pathway.
type Course struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SchoolPathway is one roadmap entry for school students: an academic field
// suggestion without salary or course data.
type SchoolPathway struct {
	Title     string   `json:"title"`
	Skills    []string `json:"skills"`
	Reasoning string   `json:"reasoning"`
}

// CareerPathway is one roadmap entry for college students and passouts.
// Courses is always present, possibly empty, and replaces the transient
// courses_to_find search queries the generator was asked for.
type CareerPathway struct {
	Title     string   `json:"title"`
	Skills    []string `json:"skills"`
	Salary    string   `json:"salary"`
	Growth    string   `json:"growth"`
	Reasoning string   `json:"reasoning"`
	Courses   []Course `json:"courses"`
}

// RoadmapArtifact is the structured career-guidance output for a session.
// Exactly one of the three fields is populated: SchoolPathways for
// school_student sessions, CareerPathways for everyone else, or Error when
// synthesis could not produce a valid roadmap.
type RoadmapArtifact struct {
	SchoolPathways []SchoolPathway
	CareerPathways []CareerPathway
	Error          string
}

// IsError reports whether the artifact records a failed synthesis.
func (a *RoadmapArtifact) IsError() bool {
	return a != nil && a.Error != ""
}

// MarshalJSON renders the artifact in the wire shape clients consume:
// {"roadmap": [...]} for either variant, or {"error": "..."} on failure.
func (a RoadmapArtifact) MarshalJSON() ([]byte, error) {
	if a.Error != "" {
		return json.Marshal(map[string]string{"error": a.Error})
	}
	if a.SchoolPathways != nil {
		return json.Marshal(map[string][]SchoolPathway{"roadmap": a.SchoolPathways})
	}
	pathways := a.CareerPathways
	if pathways == nil {
		pathways = []CareerPathway{}
	}
	return json.Marshal(map[string][]CareerPathway{"roadmap": pathways})
}

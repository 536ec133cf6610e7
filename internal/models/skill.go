package models

// Skill is a teachable skill referenced by trades and user profiles.
// Skill CRUD is external; this service only resolves names for
// notification payloads and match scoring.
type Skill struct {
	Base     `bson:",inline"`
	Name     string `bson:"name" json:"name"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
}

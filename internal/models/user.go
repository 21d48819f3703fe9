package models

import (
	"errors"
	"strings"
	"time"
)

// SkillLevel is the self-reported playing level of a user.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
	SkillPro          SkillLevel = "Pro"
)

// DefaultBio is assigned to freshly signed up players.
const DefaultBio = "New player ready to hit!"

// Valid reports whether s is one of the known skill levels.
func (s SkillLevel) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillPro:
		return true
	}
	return false
}

// User is a registered player. PhoneNumber doubles as the login credential.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	SkillLevel  SkillLevel `json:"skill_level"`
	Bio         string     `json:"bio,omitempty"`
	Location    string     `json:"location,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
}

// SignupRequest carries the fields a new player provides at registration.
type SignupRequest struct {
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	Location    string     `json:"location,omitempty"`
	SkillLevel  SkillLevel `json:"skill_level,omitempty"`
	Bio         string     `json:"bio,omitempty"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
// Identity fields (id, phone number, join date) cannot be patched.
type ProfilePatch struct {
	Name       *string     `json:"name,omitempty"`
	SkillLevel *SkillLevel `json:"skill_level,omitempty"`
	Bio        *string     `json:"bio,omitempty"`
	Location   *string     `json:"location,omitempty"`
	AvatarURL  *string     `json:"avatar_url,omitempty"`
}

var (
	errEmptyName    = errors.New("name must not be empty")
	errUnknownSkill = errors.New("unknown skill level")
	errEmptyPatch   = errors.New("patch has no fields")
)

// Validate rejects patches that would leave the profile in an invalid state.
func (p ProfilePatch) Validate() error {
	if p.Empty() {
		return errEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return errEmptyName
	}
	if p.SkillLevel != nil && !p.SkillLevel.Valid() {
		return errUnknownSkill
	}
	return nil
}

// Empty reports whether the patch sets no field at all.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.SkillLevel == nil && p.Bio == nil && p.Location == nil && p.AvatarURL == nil
}

// Apply returns u with the patch merged in.
func (p ProfilePatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.SkillLevel != nil {
		u.SkillLevel = *p.SkillLevel
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	return u
}

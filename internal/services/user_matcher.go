package services

import (
	"strings"

	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/samber/lo"
)

type UserMatcher struct {
	canonicalRoles []string
}

func NewUserMatcher(canonicalRoles []string) *UserMatcher {
	roles := lo.FilterMap(canonicalRoles, func(role string, _ int) (string, bool) {
		role = strings.ToLower(strings.TrimSpace(role))
		return role, role != ""
	})
	return &UserMatcher{canonicalRoles: lo.Uniq(roles)}
}

// FindMatching returns the active users whose roles and locations fit the job.
func (m *UserMatcher) FindMatching(jobTitle, jobLocation string, users []entities.User) []entities.User {
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	location := strings.ToLower(strings.TrimSpace(jobLocation))
	titleRoles := m.canonicalRolesIn(title)

	return lo.Filter(users, func(user entities.User, _ int) bool {
		return user.Active &&
			matchesRole(title, titleRoles, user.JobRoles) &&
			matchesLocation(location, user)
	})
}

func (m *UserMatcher) canonicalRolesIn(title string) []string {
	return lo.Filter(m.canonicalRoles, func(role string, _ int) bool {
		return strings.Contains(title, role)
	})
}

// A role matches when it and the title contain one another, or when the title
// names a canonical role the user picked verbatim.
func matchesRole(title string, titleRoles []string, userRoles []string) bool {
	for _, role := range userRoles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if strings.Contains(title, role) || (title != "" && strings.Contains(role, title)) {
			return true
		}
		if lo.Contains(titleRoles, role) {
			return true
		}
	}
	return false
}

func matchesLocation(location string, user entities.User) bool {
	if location == "" || strings.EqualFold(location, entities.RemoteLocation) {
		return true
	}
	if user.PrefersRemote() {
		return true
	}

	for _, preferred := range user.Locations {
		preferred = strings.ToLower(strings.TrimSpace(preferred))
		if preferred == "" {
			continue
		}
		if strings.Contains(location, preferred) || strings.Contains(preferred, location) {
			return true
		}
	}
	return false
}

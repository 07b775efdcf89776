package sim

import (
	"fmt"
	"strings"
)

// Profile names a manufacturer whose CAM payload sizes were measured.
type Profile string

const (
	// ProfileVolkswagen is manufacturer A.
	ProfileVolkswagen Profile = "Volkswagen"
	// ProfileRenault is manufacturer B.
	ProfileRenault Profile = "Renault"
)

// sizeTables holds the fixed byte size of each size class, indexed from class 1.
var sizeTables = map[Profile][]int{
	ProfileVolkswagen: {200, 300, 360, 455},
	ProfileRenault:    {200, 330, 480, 600, 800},
}

// profileAliases maps accepted spellings (lower-cased) to profiles.
var profileAliases = map[string]Profile{
	"volkswagen":    ProfileVolkswagen,
	"manufacturera": ProfileVolkswagen,
	"renault":       ProfileRenault,
	"manufacturerb": ProfileRenault,
}

// ParseProfile resolves a profile name, case-insensitively.
func ParseProfile(name string) (Profile, error) {
	if p, ok := profileAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown profile %q; valid: Volkswagen, Renault", ErrConfiguration, name)
}

// Valid reports whether p is a known profile.
func (p Profile) Valid() bool {
	_, ok := sizeTables[p]
	return ok
}

// SizeClasses returns the number of size classes S of the profile, or 0 if unknown.
func (p Profile) SizeClasses() int {
	return len(sizeTables[p])
}

// SizeBytes maps a 1-based size class to its payload size in bytes.
func (p Profile) SizeBytes(class int) (int, error) {
	table, ok := sizeTables[p]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidProfile, string(p))
	}
	if class < 1 || class > len(table) {
		return 0, fmt.Errorf("%w: class %d, profile %s has %d classes", ErrIndexOutOfRange, class, p, len(table))
	}
	return table[class-1], nil
}

// Sizes returns a copy of the profile's size table in class order.
func (p Profile) Sizes() []int {
	return append([]int(nil), sizeTables[p]...)
}

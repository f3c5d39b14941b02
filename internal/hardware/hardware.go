package hardware

import (
	"fmt"
	"strings"
)

// Type is a supported iRock hardware model.
type Type int

const (
	None Type = iota
	IRock424
	IRock212
	IRock200
	IRock300
	IRock400
)

// All returns the supported models in menu order.
func All() []Type {
	return []Type{IRock424, IRock212, IRock200, IRock300, IRock400}
}

// Repo returns the GitHub repository ("owner/name") that publishes
// firmware for the model. The 200, 300 and 400 share one repository.
func (t Type) Repo() string {
	switch t {
	case IRock424:
		return "Arvernus/iRock-424"
	case IRock212:
		return "Arvernus/iRock-212"
	case IRock200, IRock300, IRock400:
		return "Arvernus/iRock-200-300-400"
	default:
		return ""
	}
}

func (t Type) String() string {
	switch t {
	case IRock424:
		return "iRock 424"
	case IRock212:
		return "iRock 212"
	case IRock200:
		return "iRock 200"
	case IRock300:
		return "iRock 300"
	case IRock400:
		return "iRock 400"
	default:
		return "none"
	}
}

// Slug returns the command-line name of the model, e.g. "irock-424".
func (t Type) Slug() string {
	if t == None {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), " ", "-")
}

// Valid reports whether t is one of the supported models.
func (t Type) Valid() bool {
	return t >= IRock424 && t <= IRock400
}

// Parse accepts a slug ("irock-424"), a display name ("iRock 424") or a
// bare model number ("424").
func Parse(s string) (Type, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, t := range All() {
		number := strings.TrimPrefix(t.Slug(), "irock-")
		if needle == t.Slug() || needle == strings.ToLower(t.String()) || needle == number {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown hardware model %q", s)
}

// RepoFor returns the repository for t, honouring per-model overrides
// keyed by slug.
func RepoFor(t Type, overrides map[string]string) string {
	if repo, ok := overrides[t.Slug()]; ok && repo != "" {
		return repo
	}
	return t.Repo()
}

// Package voters holds the static catalog of simulated voter personas a
// volunteer can practice against.
package voters

import (
	"sort"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = ""
)

// Label is the capitalized form used in reports.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return "Unknown"
	}
}

type Profile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Difficulty    Difficulty `json:"difficulty"`
	Description   string     `json:"description"`
	Age           string     `json:"age"`
	Location      string     `json:"location"`
	Occupation    string     `json:"occupation"`
	Income        string     `json:"income"`
	VotingHistory string     `json:"voting_history"`
	KeyIssues     []string   `json:"key_issues"`
	Skepticism    string     `json:"skepticism"`
	Personality   string     `json:"personality"`
	AssistantID   string     `json:"assistant_id,omitempty"`
}

// Store is a read-only persona lookup.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
}

type MemoryStore struct {
	byID  map[string]Profile
	order []string
}

func NewMemoryStore(profiles []Profile) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, dup := s.byID[p.ID]; !dup {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

func (s *MemoryStore) List() []Profile {
	out := make([]Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// ByDifficulty returns the personas of one difficulty, ordered by id.
func (s *MemoryStore) ByDifficulty(d Difficulty) []Profile {
	var out []Profile
	for _, p := range s.byID {
		if p.Difficulty == d {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DifficultyOf derives a difficulty from the persona id prefix.
// Storage aggregates classify sessions the same way.
func DifficultyOf(profileID string) Difficulty {
	switch {
	case strings.HasPrefix(profileID, "easy-"):
		return DifficultyEasy
	case strings.HasPrefix(profileID, "medium-"):
		return DifficultyMedium
	case strings.HasPrefix(profileID, "hard-"):
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

// DisplayName returns the persona name when known, otherwise the id with its
// difficulty prefix stripped and dashes turned into spaces.
func DisplayName(s Store, profileID string) string {
	if s != nil {
		if p, ok := s.FindByID(profileID); ok && p.Name != "" {
			return p.Name
		}
	}
	name := profileID
	for _, prefix := range []string{"easy-", "medium-", "hard-"} {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	return strings.ReplaceAll(name, "-", " ")
}

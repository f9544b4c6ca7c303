// Package store owns the authoritative race state: the team roster, the
// result rows, and the single current race. Mutations return the domain
// events they want published instead of publishing inline, which keeps the
// store testable without a live socket layer.
package store

import (
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/kemkem23/raceboard/internal/domain"
)

// classNumberPattern extracts the class number embedded in a class label,
// e.g. "รุ่น 3 เวฟ125". Best-effort display metadata; no match means null.
var classNumberPattern = regexp.MustCompile(`รุ่น\s*(\d+)`)

// numberSentinel sorts teams without a number after all numbered teams.
const numberSentinel = 999

// Store holds all primary entities plus the two derived-view caches. Cached
// views are immutable once computed: they are built from deep copies and the
// exact same object is handed to every reader until the next invalidation.
type Store struct {
	mu          sync.Mutex
	classes     []domain.ClassRoster
	results     []*domain.Result
	currentRace *domain.CurrentRace

	leaderboard []domain.RaceClass
	allResults  []domain.ResultRow
}

// New constructs a store from a snapshot. The snapshot is deep-copied so the
// caller cannot alias internal state.
func New(snap domain.Snapshot) *Store {
	c := snap.Clone()
	return &Store{
		classes:     c.Classes,
		results:     c.Results,
		currentRace: c.CurrentRace,
	}
}

func (s *Store) invalidateCaches() {
	s.leaderboard = nil
	s.allResults = nil
}

// CurrentRace returns the race in progress, or nil.
func (s *Store) CurrentRace() *domain.CurrentRace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRace.Clone()
}

// SetCurrentRace replaces the current race wholesale. A nil race clears it.
func (s *Store) SetCurrentRace(race *domain.CurrentRace) (*domain.CurrentRace, []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentRace = race.Clone()
	s.invalidateCaches()

	out := s.currentRace.Clone()
	return out, []domain.Event{{Type: domain.EventRaceUpdated, Data: out}}
}

// UpdateCurrentRaceTimes merges lane times and/or status into the current
// race and mirrors lane time changes into the matching result rows. Returns
// nil with no events when no race is in progress.
func (s *Store) UpdateCurrentRaceTimes(patch domain.RaceTimesPatch) (*domain.CurrentRace, []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	race := s.currentRace
	if race == nil {
		return nil, nil
	}

	if patch.Left != nil && race.Left != nil {
		race.Left.Times.Merge(*patch.Left)
	}
	if patch.Right != nil && race.Right != nil {
		race.Right.Times.Merge(*patch.Right)
	}
	if patch.Status != "" {
		race.Status = patch.Status
	}

	if patch.Left != nil && race.Left != nil && race.Left.Team != nil {
		if r := s.findResult(race.Left.Team.ID); r != nil {
			r.Times.Merge(*patch.Left)
		}
	}
	if patch.Right != nil && race.Right != nil && race.Right.Team != nil {
		if r := s.findResult(race.Right.Team.ID); r != nil {
			r.Times.Merge(*patch.Right)
		}
	}

	s.invalidateCaches()

	out := race.Clone()
	return out, []domain.Event{
		{Type: domain.EventRaceUpdated, Data: out},
		{Type: domain.EventLeaderboardUpdated, Data: s.leaderboardPayloadLocked()},
	}
}

// Leaderboard returns the per-class rankings. Repeated calls between
// mutations return the identical cached object.
func (s *Store) Leaderboard() []domain.RaceClass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Store) leaderboardLocked() []domain.RaceClass {
	if s.leaderboard != nil {
		return s.leaderboard
	}

	classes := make([]domain.RaceClass, 0, len(s.classes))
	for _, cls := range s.classes {
		var entries []domain.LeaderboardEntry
		for _, r := range s.results {
			if r.ClassName != cls.ClassName {
				continue
			}
			team := s.rosterTeamLocked(cls, r.TeamID)
			if team == nil {
				team = &domain.Team{ID: r.TeamID, Name: "Unknown", ClassName: r.ClassName}
			}
			entries = append(entries, domain.LeaderboardEntry{
				Team:      team,
				BestTimes: r.Times.Clone(),
				BestTime:  r.Times.Best(),
			})
		}

		// Ascending best time, null times last, ties keep row order.
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].BestTime, entries[j].BestTime
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a < *b
		})
		for i := range entries {
			entries[i].Rank = i + 1
		}

		classes = append(classes, domain.RaceClass{ClassName: cls.ClassName, Entries: entries})
	}

	s.leaderboard = classes
	return s.leaderboard
}

func (s *Store) rosterTeamLocked(cls domain.ClassRoster, teamID string) *domain.Team {
	for _, t := range cls.Teams {
		if t.ID == teamID {
			return t.Clone()
		}
	}
	return nil
}

// AllResults returns every result joined with its team, sorted by team
// number with unnumbered teams last. Cached like Leaderboard.
func (s *Store) AllResults() []domain.ResultRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allResultsLocked()
}

func (s *Store) allResultsLocked() []domain.ResultRow {
	if s.allResults != nil {
		return s.allResults
	}

	rows := make([]domain.ResultRow, 0, len(s.results))
	for _, r := range s.results {
		team := s.findTeamLocked(r.TeamID)
		if team == nil {
			team = &domain.Team{ID: r.TeamID, Name: "Unknown", ClassName: r.ClassName}
		}
		row := domain.ResultRow{
			ClassName:   r.ClassName,
			Team:        team,
			Times:       r.Times.Clone(),
			ClassNumber: classNumber(r.ClassName),
		}
		if team.Number != 0 {
			n := team.Number
			row.Number = &n
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return numberOrSentinel(rows[i].Number) < numberOrSentinel(rows[j].Number)
	})

	s.allResults = rows
	return s.allResults
}

func numberOrSentinel(n *int) int {
	if n == nil {
		return numberSentinel
	}
	return *n
}

func classNumber(className string) *int {
	m := classNumberPattern.FindStringSubmatch(className)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// Teams returns the full roster across all classes.
func (s *Store) Teams() []*domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	var teams []*domain.Team
	for _, cls := range s.classes {
		for _, t := range cls.Teams {
			teams = append(teams, t.Clone())
		}
	}
	return teams
}

// TeamByID returns the roster team with the given id, or nil.
func (s *Store) TeamByID(id string) *domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTeamLocked(id).Clone()
}

func (s *Store) findTeamLocked(id string) *domain.Team {
	for _, cls := range s.classes {
		for _, t := range cls.Teams {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

func (s *Store) findResult(teamID string) *domain.Result {
	for _, r := range s.results {
		if r.TeamID == teamID {
			return r
		}
	}
	return nil
}

// UpdateTeam applies the editable fields to the roster team and mirrors the
// same changes into a lane of the current race when that team is seated
// there. The reverse direction does not exist: the roster is the single
// source of truth. Returns nil with no events for an unknown id.
func (s *Store) UpdateTeam(id string, fields domain.TeamUpdate) (*domain.Team, []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeamLocked(id)
	if team == nil {
		return nil, nil
	}
	fields.Apply(team)

	if race := s.currentRace; race != nil {
		if race.Left != nil && race.Left.Team != nil && race.Left.Team.ID == id {
			fields.Apply(race.Left.Team)
		}
		if race.Right != nil && race.Right.Team != nil && race.Right.Team.ID == id {
			fields.Apply(race.Right.Team)
		}
	}

	s.invalidateCaches()

	out := team.Clone()
	return out, []domain.Event{
		{Type: domain.EventTeamUpdated, Data: out},
		{Type: domain.EventRaceUpdated, Data: s.currentRace.Clone()},
		{Type: domain.EventLeaderboardUpdated, Data: s.leaderboardPayloadLocked()},
	}
}

// UpdateResults batch-applies partial times to result rows matched by team
// id. Unknown team ids are skipped. Events are emitted only when at least
// one row was touched.
func (s *Store) UpdateResults(updates []domain.ResultUpdate) ([]*domain.Result, []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]*domain.Result, 0, len(updates))
	for _, upd := range updates {
		r := s.findResult(upd.TeamID)
		if r == nil {
			continue
		}
		r.Times.Merge(upd.Times)
		updated = append(updated, r.Clone())
	}

	if len(updated) == 0 {
		return updated, nil
	}

	s.invalidateCaches()
	return updated, []domain.Event{
		{Type: domain.EventLeaderboardUpdated, Data: s.leaderboardPayloadLocked()},
	}
}

func (s *Store) leaderboardPayloadLocked() domain.LeaderboardPayload {
	return domain.LeaderboardPayload{
		Classes:    s.leaderboardLocked(),
		AllResults: s.allResultsLocked(),
	}
}

// Snapshot returns a deep copy of the full state for the persistence layer.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Snapshot{
		Classes:     s.classes,
		Results:     s.results,
		CurrentRace: s.currentRace,
	}.Clone()
}

package domain

// --- Race status ---

type RaceStatus string

const (
	StatusWaiting  RaceStatus = "waiting"
	StatusRunning  RaceStatus = "running"
	StatusFinished RaceStatus = "finished"
)

// --- Model types ---

// Team is a roster entry. The roster is the source of truth for team
// identity; copies embedded in a CurrentRace lane are mirrored from it.
type Team struct {
	ID            string `json:"id" msgpack:"id"`
	Name          string `json:"name" msgpack:"name"`
	Nickname      string `json:"nickname,omitempty" msgpack:"nickname"`
	ContactPerson string `json:"contactPerson,omitempty" msgpack:"contactPerson"`
	Phone         string `json:"phone,omitempty" msgpack:"phone"`
	Amphur        string `json:"amphur,omitempty" msgpack:"amphur"`
	ClassName     string `json:"className" msgpack:"className"`
	Photo         string `json:"photo,omitempty" msgpack:"photo"`
	TentNumber    string `json:"tentNumber,omitempty" msgpack:"tentNumber"`
	Number        int    `json:"number,omitempty" msgpack:"number"`
}

// Clone returns a deep copy.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// RunTime holds the four measured times of one team. Every field is
// independently nullable; nil means "not yet recorded".
type RunTime struct {
	Qualify *float64 `json:"qualify" msgpack:"qualify"`
	Run1    *float64 `json:"run1" msgpack:"run1"`
	Run2    *float64 `json:"run2" msgpack:"run2"`
	Run3    *float64 `json:"run3" msgpack:"run3"`
}

// Merge overwrites fields from p that are set. Unset fields in p leave the
// receiver untouched.
func (r *RunTime) Merge(p RunTime) {
	if p.Qualify != nil {
		r.Qualify = p.Qualify
	}
	if p.Run1 != nil {
		r.Run1 = p.Run1
	}
	if p.Run2 != nil {
		r.Run2 = p.Run2
	}
	if p.Run3 != nil {
		r.Run3 = p.Run3
	}
}

// Best returns the minimum of the recorded times, or nil when none is set.
func (r RunTime) Best() *float64 {
	var best *float64
	for _, v := range []*float64{r.Qualify, r.Run1, r.Run2, r.Run3} {
		if v == nil {
			continue
		}
		if best == nil || *v < *best {
			val := *v
			best = &val
		}
	}
	return best
}

// Clone returns a deep copy.
func (r RunTime) Clone() RunTime {
	c := RunTime{}
	if r.Qualify != nil {
		v := *r.Qualify
		c.Qualify = &v
	}
	if r.Run1 != nil {
		v := *r.Run1
		c.Run1 = &v
	}
	if r.Run2 != nil {
		v := *r.Run2
		c.Run2 = &v
	}
	if r.Run3 != nil {
		v := *r.Run3
		c.Run3 = &v
	}
	return c
}

// LaneEntry is one of the two slots of the current race.
type LaneEntry struct {
	Lane  string  `json:"lane" msgpack:"lane"`
	Team  *Team   `json:"team" msgpack:"team"`
	Times RunTime `json:"times" msgpack:"times"`
}

func (l *LaneEntry) Clone() *LaneEntry {
	if l == nil {
		return nil
	}
	return &LaneEntry{
		Lane:  l.Lane,
		Team:  l.Team.Clone(),
		Times: l.Times.Clone(),
	}
}

// CurrentRace is the single race in progress. At most one exists.
type CurrentRace struct {
	ID        string     `json:"id" msgpack:"id"`
	ClassName string     `json:"className" msgpack:"className"`
	Round     string     `json:"round" msgpack:"round"`
	Status    RaceStatus `json:"status" msgpack:"status"`
	Left      *LaneEntry `json:"left" msgpack:"left"`
	Right     *LaneEntry `json:"right" msgpack:"right"`
}

func (cr *CurrentRace) Clone() *CurrentRace {
	if cr == nil {
		return nil
	}
	return &CurrentRace{
		ID:        cr.ID,
		ClassName: cr.ClassName,
		Round:     cr.Round,
		Status:    cr.Status,
		Left:      cr.Left.Clone(),
		Right:     cr.Right.Clone(),
	}
}

// Result is one row per team per competition class. Results and the current
// race describe the same measurements viewed two ways and are kept in sync
// by the store.
type Result struct {
	TeamID    string  `json:"teamId" msgpack:"teamId"`
	ClassName string  `json:"className" msgpack:"className"`
	Times     RunTime `json:"times" msgpack:"times"`
}

func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	return &Result{TeamID: r.TeamID, ClassName: r.ClassName, Times: r.Times.Clone()}
}

// ClassRoster groups the teams of one competition class.
type ClassRoster struct {
	ClassName string  `json:"className" msgpack:"className"`
	Teams     []*Team `json:"teams" msgpack:"teams"`
}

func (c ClassRoster) Clone() ClassRoster {
	teams := make([]*Team, len(c.Teams))
	for i, t := range c.Teams {
		teams[i] = t.Clone()
	}
	return ClassRoster{ClassName: c.ClassName, Teams: teams}
}

// --- Derived views ---

// LeaderboardEntry is a ranked row of one class leaderboard.
type LeaderboardEntry struct {
	Rank      int      `json:"rank"`
	Team      *Team    `json:"team"`
	BestTimes RunTime  `json:"bestTimes"`
	BestTime  *float64 `json:"bestTime"`
}

// RaceClass is the leaderboard of one competition class.
type RaceClass struct {
	ClassName string             `json:"className"`
	Entries   []LeaderboardEntry `json:"entries"`
}

// ResultRow is the "all results" view: a result joined with its team,
// sorted by team number.
type ResultRow struct {
	Number      *int    `json:"number"`
	ClassNumber *int    `json:"classNumber"`
	ClassName   string  `json:"className"`
	Team        *Team   `json:"team"`
	Times       RunTime `json:"times"`
}

// LeaderboardPayload is the data of a leaderboard:updated event and the body
// of GET /api/leaderboard.
type LeaderboardPayload struct {
	Classes    []RaceClass `json:"classes"`
	AllResults []ResultRow `json:"allResults"`
}

// --- Mutation inputs ---

// TeamUpdate carries the editable team fields. Identity, class membership,
// and the team number are not editable through this path.
type TeamUpdate struct {
	Name          *string `json:"name"`
	Nickname      *string `json:"nickname"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Amphur        *string `json:"amphur"`
	Photo         *string `json:"photo"`
	TentNumber    *string `json:"tentNumber"`
}

// Apply overwrites the fields that are set.
func (u TeamUpdate) Apply(t *Team) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Nickname != nil {
		t.Nickname = *u.Nickname
	}
	if u.ContactPerson != nil {
		t.ContactPerson = *u.ContactPerson
	}
	if u.Phone != nil {
		t.Phone = *u.Phone
	}
	if u.Amphur != nil {
		t.Amphur = *u.Amphur
	}
	if u.Photo != nil {
		t.Photo = *u.Photo
	}
	if u.TentNumber != nil {
		t.TentNumber = *u.TentNumber
	}
}

// RaceTimesPatch is the body of PUT /api/races/current/times.
type RaceTimesPatch struct {
	Left   *RunTime   `json:"left"`
	Right  *RunTime   `json:"right"`
	Status RaceStatus `json:"status"`
}

// ResultUpdate names one result row and a partial set of times.
type ResultUpdate struct {
	TeamID string  `json:"teamId"`
	Times  RunTime `json:"times"`
}

// --- Snapshot ---

// Snapshot is the full persistent state of the store.
type Snapshot struct {
	Classes     []ClassRoster `json:"classes" msgpack:"classes"`
	Results     []*Result     `json:"results" msgpack:"results"`
	CurrentRace *CurrentRace  `json:"currentRace" msgpack:"currentRace"`
}

func (s Snapshot) Clone() Snapshot {
	classes := make([]ClassRoster, len(s.Classes))
	for i, c := range s.Classes {
		classes[i] = c.Clone()
	}
	results := make([]*Result, len(s.Results))
	for i, r := range s.Results {
		results[i] = r.Clone()
	}
	return Snapshot{
		Classes:     classes,
		Results:     results,
		CurrentRace: s.CurrentRace.Clone(),
	}
}

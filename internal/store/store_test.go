package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemkem23/raceboard/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func sptr(s string) *string { return &s }

func seedSnapshot() domain.Snapshot {
	t1 := &domain.Team{ID: "t1", Name: "Rocket", ClassName: "รุ่น 1 เวฟ110", Number: 7}
	t2 := &domain.Team{ID: "t2", Name: "Falcon", ClassName: "รุ่น 1 เวฟ110", Number: 3}
	t3 := &domain.Team{ID: "t3", Name: "Comet", ClassName: "รุ่น 2 เวฟ125", Number: 12}
	t4 := &domain.Team{ID: "t4", Name: "Meteor", ClassName: "รุ่น 2 เวฟ125"}

	return domain.Snapshot{
		Classes: []domain.ClassRoster{
			{ClassName: "รุ่น 1 เวฟ110", Teams: []*domain.Team{t1, t2}},
			{ClassName: "รุ่น 2 เวฟ125", Teams: []*domain.Team{t3, t4}},
		},
		Results: []*domain.Result{
			{TeamID: "t1", ClassName: "รุ่น 1 เวฟ110", Times: domain.RunTime{Qualify: fptr(10.1)}},
			{TeamID: "t2", ClassName: "รุ่น 1 เวฟ110", Times: domain.RunTime{Qualify: fptr(9.8)}},
			{TeamID: "t3", ClassName: "รุ่น 2 เวฟ125"},
			{TeamID: "t4", ClassName: "รุ่น 2 เวฟ125", Times: domain.RunTime{Run1: fptr(11.3)}},
		},
		CurrentRace: &domain.CurrentRace{
			ID:        "race1",
			ClassName: "รุ่น 1 เวฟ110",
			Round:     "รอบคัดเลือก",
			Status:    domain.StatusWaiting,
			Left:      &domain.LaneEntry{Lane: "left", Team: &domain.Team{ID: "t1", Name: "Rocket", ClassName: "รุ่น 1 เวฟ110"}},
			Right:     &domain.LaneEntry{Lane: "right", Team: &domain.Team{ID: "t3", Name: "Comet", ClassName: "รุ่น 2 เวฟ125"}},
		},
	}
}

func TestCurrentRace_ReturnsSeededRace(t *testing.T) {
	st := New(seedSnapshot())

	race := st.CurrentRace()
	require.NotNil(t, race)
	assert.Equal(t, "race1", race.ID)
	assert.Equal(t, domain.StatusWaiting, race.Status)
}

func TestSetCurrentRace_ReplacesWholesale(t *testing.T) {
	st := New(seedSnapshot())

	newRace := &domain.CurrentRace{ID: "race99", ClassName: "TestClass", Round: "Final", Status: domain.StatusRunning}
	updated, events := st.SetCurrentRace(newRace)

	require.NotNil(t, updated)
	assert.Equal(t, "race99", updated.ID)
	assert.Equal(t, newRace, st.CurrentRace())

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRaceUpdated, events[0].Type)
	assert.Equal(t, updated, events[0].Data)
}

func TestSetCurrentRace_AcceptsNilToClear(t *testing.T) {
	st := New(seedSnapshot())

	updated, events := st.SetCurrentRace(nil)

	assert.Nil(t, updated)
	assert.Nil(t, st.CurrentRace())
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRaceUpdated, events[0].Type)
}

func TestUpdateCurrentRaceTimes_MergesTimesAndStatus(t *testing.T) {
	st := New(seedSnapshot())

	updated, events := st.UpdateCurrentRaceTimes(domain.RaceTimesPatch{
		Left:   &domain.RunTime{Qualify: fptr(9.5)},
		Right:  &domain.RunTime{Qualify: fptr(10.2)},
		Status: domain.StatusRunning,
	})

	require.NotNil(t, updated)
	require.NotNil(t, updated.Left.Times.Qualify)
	assert.Equal(t, 9.5, *updated.Left.Times.Qualify)
	require.NotNil(t, updated.Right.Times.Qualify)
	assert.Equal(t, 10.2, *updated.Right.Times.Qualify)
	assert.Equal(t, domain.StatusRunning, updated.Status)

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventRaceUpdated, events[0].Type)
	assert.Equal(t, domain.EventLeaderboardUpdated, events[1].Type)

	// A subsequent read reflects the same values.
	race := st.CurrentRace()
	assert.Equal(t, 9.5, *race.Left.Times.Qualify)
	assert.Equal(t, 10.2, *race.Right.Times.Qualify)
	assert.Equal(t, domain.StatusRunning, race.Status)
}

func TestUpdateCurrentRaceTimes_MirrorsIntoResults(t *testing.T) {
	st := New(seedSnapshot())

	_, _ = st.UpdateCurrentRaceTimes(domain.RaceTimesPatch{
		Left:  &domain.RunTime{Run2: fptr(8.4)},
		Right: &domain.RunTime{Run2: fptr(9.9)},
	})

	for _, row := range st.AllResults() {
		switch row.Team.ID {
		case "t1":
			require.NotNil(t, row.Times.Run2)
			assert.Equal(t, 8.4, *row.Times.Run2)
			// The preexisting qualify time survives a partial merge.
			require.NotNil(t, row.Times.Qualify)
			assert.Equal(t, 10.1, *row.Times.Qualify)
		case "t3":
			require.NotNil(t, row.Times.Run2)
			assert.Equal(t, 9.9, *row.Times.Run2)
		}
	}
}

func TestUpdateCurrentRaceTimes_NoRaceIsNoOp(t *testing.T) {
	st := New(seedSnapshot())
	st.SetCurrentRace(nil)

	updated, events := st.UpdateCurrentRaceTimes(domain.RaceTimesPatch{
		Left: &domain.RunTime{Run1: fptr(1.0)},
	})

	assert.Nil(t, updated)
	assert.Empty(t, events)
}

func TestLeaderboard_CacheIdentity(t *testing.T) {
	st := New(seedSnapshot())

	lb1 := st.Leaderboard()
	lb2 := st.Leaderboard()
	require.NotEmpty(t, lb1)
	assert.True(t, &lb1[0] == &lb2[0], "reads without a mutation must return the same cached object")

	ar1 := st.AllResults()
	ar2 := st.AllResults()
	require.NotEmpty(t, ar1)
	assert.True(t, &ar1[0] == &ar2[0])

	_, _ = st.UpdateResults([]domain.ResultUpdate{{TeamID: "t1", Times: domain.RunTime{Run3: fptr(7.7)}}})

	lb3 := st.Leaderboard()
	ar3 := st.AllResults()
	assert.False(t, &lb1[0] == &lb3[0], "a mutation must produce a fresh leaderboard")
	assert.False(t, &ar1[0] == &ar3[0], "a mutation must produce fresh results")
}

func TestLeaderboard_RankingInvariant(t *testing.T) {
	st := New(seedSnapshot())

	for _, cls := range st.Leaderboard() {
		for i, entry := range cls.Entries {
			assert.Equal(t, i+1, entry.Rank)
			if i == 0 {
				continue
			}
			prev := cls.Entries[i-1]
			if entry.BestTime != nil {
				require.NotNil(t, prev.BestTime, "a null best time must never sort before a recorded one")
				assert.LessOrEqual(t, *prev.BestTime, *entry.BestTime)
			}
		}
	}
}

func TestLeaderboard_BestTimeIsMinimumAcrossRuns(t *testing.T) {
	st := New(seedSnapshot())
	_, _ = st.UpdateResults([]domain.ResultUpdate{
		{TeamID: "t1", Times: domain.RunTime{Run1: fptr(8.2), Run3: fptr(9.0)}},
	})

	for _, cls := range st.Leaderboard() {
		for _, entry := range cls.Entries {
			if entry.Team.ID == "t1" {
				require.NotNil(t, entry.BestTime)
				assert.Equal(t, 8.2, *entry.BestTime)
				return
			}
		}
	}
	t.Fatal("t1 not found in leaderboard")
}

func TestLeaderboard_UnknownTeamGetsSyntheticEntry(t *testing.T) {
	snap := seedSnapshot()
	snap.Results = append(snap.Results, &domain.Result{TeamID: "ghost", ClassName: "รุ่น 1 เวฟ110"})
	st := New(snap)

	var found bool
	for _, cls := range st.Leaderboard() {
		for _, entry := range cls.Entries {
			if entry.Team.ID == "ghost" {
				found = true
				assert.Equal(t, "Unknown", entry.Team.Name)
			}
		}
	}
	assert.True(t, found)
}

func TestAllResults_SortedByTeamNumberWithUnnumberedLast(t *testing.T) {
	st := New(seedSnapshot())

	rows := st.AllResults()
	require.Len(t, rows, 4)

	last := 0
	for i, row := range rows {
		n := 999
		if row.Number != nil {
			n = *row.Number
		}
		assert.GreaterOrEqual(t, n, last, "row %d out of order", i)
		last = n
	}
	// t4 has no number and must sort last.
	assert.Equal(t, "t4", rows[len(rows)-1].Team.ID)
	assert.Nil(t, rows[len(rows)-1].Number)
}

func TestAllResults_ClassNumberExtraction(t *testing.T) {
	snap := seedSnapshot()
	snap.Classes = append(snap.Classes, domain.ClassRoster{
		ClassName: "Open Exhibition",
		Teams:     []*domain.Team{{ID: "t9", Name: "Guest", ClassName: "Open Exhibition", Number: 1}},
	})
	snap.Results = append(snap.Results, &domain.Result{TeamID: "t9", ClassName: "Open Exhibition"})
	st := New(snap)

	for _, row := range st.AllResults() {
		switch row.Team.ID {
		case "t1":
			require.NotNil(t, row.ClassNumber)
			assert.Equal(t, 1, *row.ClassNumber)
		case "t3":
			require.NotNil(t, row.ClassNumber)
			assert.Equal(t, 2, *row.ClassNumber)
		case "t9":
			assert.Nil(t, row.ClassNumber, "a label without an embedded number yields null")
		}
	}
}

func TestTeamByID(t *testing.T) {
	st := New(seedSnapshot())

	team := st.TeamByID("t3")
	require.NotNil(t, team)
	assert.Equal(t, "Comet", team.Name)

	assert.Nil(t, st.TeamByID("nonexistent"))
}

func TestUpdateTeam_AppliesFieldsAndMirrorsIntoRace(t *testing.T) {
	st := New(seedSnapshot())

	team, events := st.UpdateTeam("t1", domain.TeamUpdate{
		Name:       sptr("Rocket Renamed"),
		TentNumber: sptr("A12"),
	})

	require.NotNil(t, team)
	assert.Equal(t, "Rocket Renamed", team.Name)
	assert.Equal(t, "A12", team.TentNumber)

	// The seated lane copy follows the roster.
	race := st.CurrentRace()
	assert.Equal(t, "Rocket Renamed", race.Left.Team.Name)
	assert.Equal(t, "A12", race.Left.Team.TentNumber)
	// The other lane is untouched.
	assert.Equal(t, "Comet", race.Right.Team.Name)

	require.Len(t, events, 3)
	assert.Equal(t, domain.EventTeamUpdated, events[0].Type)
	assert.Equal(t, domain.EventRaceUpdated, events[1].Type)
	assert.Equal(t, domain.EventLeaderboardUpdated, events[2].Type)
}

func TestUpdateTeam_UnknownIDIsNoOp(t *testing.T) {
	st := New(seedSnapshot())

	team, events := st.UpdateTeam("nonexistent", domain.TeamUpdate{Name: sptr("Nobody")})

	assert.Nil(t, team)
	assert.Empty(t, events)
}

func TestUpdateResults_BatchSkipsUnknownTeams(t *testing.T) {
	st := New(seedSnapshot())

	updated, events := st.UpdateResults([]domain.ResultUpdate{
		{TeamID: "t1", Times: domain.RunTime{Run2: fptr(8.888)}},
		{TeamID: "t2", Times: domain.RunTime{Run2: fptr(7.777)}},
		{TeamID: "unknown", Times: domain.RunTime{Run2: fptr(1)}},
	})

	require.Len(t, updated, 2)
	assert.Equal(t, "t1", updated[0].TeamID)
	assert.Equal(t, 8.888, *updated[0].Times.Run2)
	assert.Equal(t, "t2", updated[1].TeamID)

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventLeaderboardUpdated, events[0].Type)
}

func TestUpdateResults_EmptyInputEmitsNothing(t *testing.T) {
	st := New(seedSnapshot())

	updated, events := st.UpdateResults(nil)

	assert.Empty(t, updated)
	assert.Empty(t, events)
}

func TestLeaderboardEvent_CarriesFreshDerivedData(t *testing.T) {
	st := New(seedSnapshot())

	_, events := st.UpdateResults([]domain.ResultUpdate{
		{TeamID: "t3", Times: domain.RunTime{Qualify: fptr(6.5)}},
	})
	require.Len(t, events, 1)

	payload, ok := events[0].Data.(domain.LeaderboardPayload)
	require.True(t, ok)
	assert.NotEmpty(t, payload.Classes)
	assert.NotEmpty(t, payload.AllResults)

	// The event payload is the same cached object the next read returns.
	lb := st.Leaderboard()
	assert.True(t, &payload.Classes[0] == &lb[0])
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	st := New(seedSnapshot())

	snap := st.Snapshot()
	snap.Classes[0].Teams[0].Name = "Tampered"
	snap.CurrentRace.Status = domain.StatusFinished

	assert.Equal(t, "Rocket", st.TeamByID("t1").Name)
	assert.Equal(t, domain.StatusWaiting, st.CurrentRace().Status)
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	snap := seedSnapshot()
	st := New(snap)

	snap.Classes[0].Teams[0].Name = "Tampered"

	assert.Equal(t, "Rocket", st.TeamByID("t1").Name)
}

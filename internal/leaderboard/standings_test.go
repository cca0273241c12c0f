package leaderboard

import (
	"math"
	"testing"

	"github.com/mmynk/bandpoints/internal/models"
)

func member(id, section string, points int64) models.Member {
	return models.Member{ID: id, Name: id, Email: id + "@band.test", Section: section, Role: models.RoleMember, Points: points}
}

func TestSectionStandings(t *testing.T) {
	tests := []struct {
		name         string
		members      []models.Member
		validateFunc func(t *testing.T, got []models.SectionStanding)
	}{
		{
			name: "orders by total with equal totals first",
			members: []models.Member{
				member("a", "trumpets", 50),
				member("b", "flutes", 200),
				member("c", "tubas", 200),
				member("d", "percussion", 0),
			},
			validateFunc: func(t *testing.T, got []models.SectionStanding) {
				if len(got) != 4 {
					t.Fatalf("len = %d, want 4", len(got))
				}
				wantTotals := []int64{200, 200, 50, 0}
				for i, want := range wantTotals {
					if got[i].TotalPoints != want {
						t.Errorf("row %d total = %d, want %d", i, got[i].TotalPoints, want)
					}
				}
				// Equal totals keep enumeration order: flutes comes before tubas.
				if got[0].Section.ID != "flutes" || got[1].Section.ID != "tubas" {
					t.Errorf("tie order = %s, %s; want flutes, tubas", got[0].Section.ID, got[1].Section.ID)
				}
				if math.Abs(got[2].Progress-25.0) > 0.001 {
					t.Errorf("trumpets progress = %v, want 25", got[2].Progress)
				}
				if got[3].Progress != SectionProgressFloor {
					t.Errorf("percussion progress = %v, want floor %v", got[3].Progress, SectionProgressFloor)
				}
			},
		},
		{
			name: "unassigned members are excluded from totals and counts",
			members: []models.Member{
				member("a", "clarinets", 10),
				member("b", models.SectionUnassigned, 999),
				member("c", "clarinets", 5),
			},
			validateFunc: func(t *testing.T, got []models.SectionStanding) {
				if len(got) != 1 {
					t.Fatalf("len = %d, want 1", len(got))
				}
				if got[0].TotalPoints != 15 || got[0].MemberCount != 2 {
					t.Errorf("clarinets = %d points / %d members, want 15 / 2", got[0].TotalPoints, got[0].MemberCount)
				}
			},
		},
		{
			name:    "all zero totals use the floor",
			members: []models.Member{member("a", "tubas", 0), member("b", "flutes", 0)},
			validateFunc: func(t *testing.T, got []models.SectionStanding) {
				for _, row := range got {
					if row.Progress != SectionProgressFloor {
						t.Errorf("%s progress = %v, want %v", row.Section.ID, row.Progress, SectionProgressFloor)
					}
				}
			},
		},
		{
			name:    "no members yields no rows",
			members: nil,
			validateFunc: func(t *testing.T, got []models.SectionStanding) {
				if len(got) != 0 {
					t.Errorf("len = %d, want 0", len(got))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateFunc(t, SectionStandings(tt.members))
		})
	}
}

func TestSectionStandingsStableAcrossCalls(t *testing.T) {
	members := []models.Member{
		member("a", "saxophones", 200),
		member("b", "trombones", 200),
		member("c", "euphoniums", 200),
	}
	first := SectionStandings(members)
	for i := 0; i < 20; i++ {
		again := SectionStandings(members)
		for j := range first {
			if first[j].Section.ID != again[j].Section.ID {
				t.Fatalf("call %d row %d = %s, want %s", i, j, again[j].Section.ID, first[j].Section.ID)
			}
		}
	}
}

func TestSectionRanking(t *testing.T) {
	members := []models.Member{
		member("zed", "tubas", 10),
		member("amy", "tubas", 30),
		member("bob", "tubas", 10),
		member("cat", "flutes", 100),
		member("dan", models.SectionUnassigned, 50),
	}

	got := SectionRanking(members, "tubas")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	wantOrder := []string{"amy", "bob", "zed"}
	for i, id := range wantOrder {
		if got[i].Member.ID != id {
			t.Errorf("rank %d = %s, want %s", i+1, got[i].Member.ID, id)
		}
		if got[i].Rank != i+1 {
			t.Errorf("%s rank = %d, want %d", id, got[i].Rank, i+1)
		}
	}
	if got[0].Progress != 100 {
		t.Errorf("leader progress = %v, want 100", got[0].Progress)
	}

	if rank := RankOf(got, "zed"); rank != 3 {
		t.Errorf("RankOf(zed) = %d, want 3", rank)
	}
	if rank := RankOf(got, "cat"); rank != 0 {
		t.Errorf("RankOf(cat) = %d, want 0", rank)
	}

	if unassigned := SectionRanking(members, models.SectionUnassigned); unassigned != nil {
		t.Errorf("unassigned ranking = %v, want nil", unassigned)
	}
}

func TestSectionRankingNegativeLeader(t *testing.T) {
	got := SectionRanking([]models.Member{member("a", "flutes", -5), member("b", "flutes", -20)}, "flutes")
	for _, row := range got {
		if row.Progress != MemberProgressFloor {
			t.Errorf("%s progress = %v, want %v", row.Member.ID, row.Progress, MemberProgressFloor)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		value, max int64
		floor      float64
		want       float64
	}{
		{50, 100, 10, 50},
		{1, 1000, 5, 5},
		{0, 0, 10, 10},
		{-3, 10, 5, 5},
		{100, 100, 10, 100},
		{150, 100, 10, 100},
	}
	for _, tt := range tests {
		if got := Progress(tt.value, tt.max, tt.floor); math.Abs(got-tt.want) > 0.001 {
			t.Errorf("Progress(%d, %d, %v) = %v, want %v", tt.value, tt.max, tt.floor, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	standings := SectionStandings([]models.Member{
		member("a", "tubas", 10),
		member("b", "tubas", 15),
		member("c", "flutes", -5),
		member("d", models.SectionUnassigned, 40),
	})
	s := Summarize(standings)
	if s.TotalMembers != 3 || s.TotalPoints != 20 || s.SectionCount != 2 {
		t.Errorf("Summarize = %+v, want 3 members / 20 points / 2 sections", s)
	}
}

func TestSearch(t *testing.T) {
	members := []models.Member{
		{ID: "1", Name: "Lucas Langley", Email: "lucas@band.test", Section: "trumpets"},
		{ID: "2", Name: "Kaden Raines", Email: "kr@band.test", Section: "trumpets"},
		{ID: "3", Name: "Mia Flores", Email: "mia@band.test", Section: "flutes"},
	}

	if got := Search(members, ""); len(got) != 3 {
		t.Errorf("empty term matched %d, want 3", len(got))
	}
	if got := Search(members, "TRUMP"); len(got) != 2 {
		t.Errorf("section term matched %d, want 2", len(got))
	}
	if got := Search(members, "mia@"); len(got) != 1 || got[0].ID != "3" {
		t.Errorf("email term matched %v, want [3]", got)
	}
	if got := Search(members, "langley"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("name term matched %v, want [1]", got)
	}
}

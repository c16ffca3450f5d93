package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/woocombine/combine/internal/adapters/repository"
	"github.com/woocombine/combine/internal/domain/model"
)

func newTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.Open(ctx, repository.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	store := repository.NewSQLStore(db, repository.DriverSQLite)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPlayerStorage(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := newTestStore(t)
		ctx := context.Background()

		Convey("When a player is created", func() {
			p, err := store.CreatePlayer(ctx, model.Player{Name: "Ava", AgeGroup: "U10", JerseyNumber: 7})
			So(err, ShouldBeNil)
			So(p.ID, ShouldBeGreaterThan, 0)

			Convey("Then it can be fetched by id and jersey number", func() {
				byID, err := store.GetPlayer(ctx, p.ID)
				So(err, ShouldBeNil)
				So(byID.Name, ShouldEqual, "Ava")

				byNumber, err := store.GetPlayerByNumber(ctx, 7)
				So(err, ShouldBeNil)
				So(byNumber.ID, ShouldEqual, p.ID)
			})

			Convey("And its age group can be updated", func() {
				So(store.UpdatePlayerAgeGroup(ctx, p.ID, "U12"), ShouldBeNil)
				moved, err := store.GetPlayer(ctx, p.ID)
				So(err, ShouldBeNil)
				So(moved.AgeGroup, ShouldEqual, "U12")
			})

			Convey("And its composite score can be persisted", func() {
				So(store.SavePlayerCompositeScore(ctx, p.ID, 71.25), ShouldBeNil)
				scored, err := store.GetPlayer(ctx, p.ID)
				So(err, ShouldBeNil)
				So(scored.CompositeScore, ShouldEqual, 71.25)
			})
		})

		Convey("When a player has no jersey number", func() {
			p, err := store.CreatePlayer(ctx, model.Player{Name: "Ben", AgeGroup: "U10"})
			So(err, ShouldBeNil)

			Convey("Then it round-trips as zero and is not matched by number zero conflicts", func() {
				got, err := store.GetPlayer(ctx, p.ID)
				So(err, ShouldBeNil)
				So(got.JerseyNumber, ShouldEqual, 0)

				_, err = store.GetPlayerByNumber(ctx, 0)
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When a missing player is fetched", func() {
			_, err := store.GetPlayer(ctx, 999)
			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("When players span age groups", func() {
			_, err := store.CreatePlayer(ctx, model.Player{Name: "Ava", AgeGroup: "U10"})
			So(err, ShouldBeNil)
			_, err = store.CreatePlayer(ctx, model.Player{Name: "Ben", AgeGroup: "U12"})
			So(err, ShouldBeNil)

			Convey("Then listing filters by age group and empty means all", func() {
				u10, err := store.ListPlayers(ctx, "U10")
				So(err, ShouldBeNil)
				So(u10, ShouldHaveLength, 1)

				all, err := store.ListPlayers(ctx, "")
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)

				n, err := store.CountPlayers(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})
	})
}

func TestDrillResultStorage(t *testing.T) {
	Convey("Given a store with two players", t, func() {
		store := newTestStore(t)
		ctx := context.Background()

		p1, err := store.CreatePlayer(ctx, model.Player{Name: "Ava", AgeGroup: "U10"})
		So(err, ShouldBeNil)
		p2, err := store.CreatePlayer(ctx, model.Player{Name: "Ben", AgeGroup: "U12"})
		So(err, ShouldBeNil)

		Convey("When a result is saved", func() {
			r := model.DrillResult{ID: "r1", PlayerID: p1.ID, DrillKey: "40m_dash", RawScore: 5.5}
			So(store.SaveDrillResult(ctx, r), ShouldBeNil)

			Convey("Then it can be read back", func() {
				got, err := store.GetDrillResult(ctx, "r1")
				So(err, ShouldBeNil)
				So(got.RawScore, ShouldEqual, 5.5)
			})

			Convey("And saving the same id again updates in place", func() {
				r.RawScore = 5.1
				r.NormalizedScore = 88
				So(store.SaveDrillResult(ctx, r), ShouldBeNil)

				got, err := store.GetDrillResult(ctx, "r1")
				So(err, ShouldBeNil)
				So(got.RawScore, ShouldEqual, 5.1)
				So(got.NormalizedScore, ShouldEqual, 88)
			})

			Convey("And it can be deleted exactly once", func() {
				So(store.DeleteDrillResult(ctx, "r1"), ShouldBeNil)
				So(store.DeleteDrillResult(ctx, "r1"), ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When results exist across cohorts", func() {
			for i, r := range []model.DrillResult{
				{PlayerID: p1.ID, DrillKey: "40m_dash", RawScore: 5.5},
				{PlayerID: p1.ID, DrillKey: "agility", RawScore: 8.0},
				{PlayerID: p2.ID, DrillKey: "40m_dash", RawScore: 6.0},
			} {
				r.ID = fmt.Sprintf("r%d", i)
				So(store.SaveDrillResult(ctx, r), ShouldBeNil)
			}

			Convey("Then listing filters by age group and drill key", func() {
				u10Dash, err := store.ListDrillResults(ctx, "U10", "40m_dash")
				So(err, ShouldBeNil)
				So(u10Dash, ShouldHaveLength, 1)

				u10All, err := store.ListDrillResults(ctx, "U10", "")
				So(err, ShouldBeNil)
				So(u10All, ShouldHaveLength, 2)

				everything, err := store.ListDrillResults(ctx, "", "")
				So(err, ShouldBeNil)
				So(everything, ShouldHaveLength, 3)
			})

			Convey("Then per-player listing returns only that player's results", func() {
				mine, err := store.ListPlayerResults(ctx, p1.ID)
				So(err, ShouldBeNil)
				So(mine, ShouldHaveLength, 2)
			})

			Convey("Then deleting all players cascades to results", func() {
				deleted, err := store.DeleteAllPlayers(ctx)
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 2)

				remaining, err := store.ListDrillResults(ctx, "", "")
				So(err, ShouldBeNil)
				So(remaining, ShouldBeEmpty)
			})
		})
	})
}

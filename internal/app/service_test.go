package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/woocombine/combine/internal/adapters/importer"
	"github.com/woocombine/combine/internal/adapters/repository"
	"github.com/woocombine/combine/internal/app"
	"github.com/woocombine/combine/internal/domain/model"
	"github.com/woocombine/combine/internal/domain/scoring"
)

// newTestService spins up a service over a private in-memory database.
func newTestService(t *testing.T, opts ...app.Option) (*app.Service, *repository.SQLStore) {
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

	svc := app.New(append([]app.Option{app.WithStore(store)}, opts...)...)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, store
}

func mustCreate(t *testing.T, svc *app.Service, name, ageGroup string, jersey int64) model.Player {
	t.Helper()
	p, err := svc.CreatePlayer(context.Background(), name, ageGroup, jersey)
	if err != nil {
		t.Fatalf("create player %s: %v", name, err)
	}
	return p
}

func TestSubmitAndRank(t *testing.T) {
	Convey("Given three U10 players", t, func() {
		svc, _ := newTestService(t)
		ctx := context.Background()

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		p2 := mustCreate(t, svc, "Ben", "U10", 2)
		p3 := mustCreate(t, svc, "Cal", "U10", 3)

		Convey("When the first dash time arrives", func() {
			r, err := svc.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
			So(err, ShouldBeNil)

			Convey("Then a single-member cohort normalizes to the top score", func() {
				So(r.NormalizedScore, ShouldEqual, 100)
			})
		})

		Convey("When all three run the dash at 5, 6 and 7 seconds", func() {
			_, err := svc.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
			So(err, ShouldBeNil)
			_, err = svc.SubmitDrillResult(ctx, p2.ID, "40m_dash", 6.0)
			So(err, ShouldBeNil)
			_, err = svc.SubmitDrillResult(ctx, p3.ID, "40m_dash", 7.0)
			So(err, ShouldBeNil)

			Convey("Then the cohort normalizes to 100, 50 and 0", func() {
				results, err := svc.PlayerResults(ctx, p2.ID)
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 1)
				So(results[0].NormalizedScore, ShouldEqual, 50)
			})

			Convey("And the official composites weight the dash at 30", func() {
				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 3)
				So(ranked[0].PlayerID, ShouldEqual, p1.ID)
				So(ranked[0].CompositeScore, ShouldEqual, 30)
				So(ranked[1].CompositeScore, ShouldEqual, 15)
				So(ranked[2].CompositeScore, ShouldEqual, 0)
				So(ranked[0].Rank, ShouldEqual, 1)
				So(ranked[2].Rank, ShouldEqual, 3)
			})

			Convey("And a slow player's second attempt counts only if better", func() {
				_, err := svc.SubmitDrillResult(ctx, p3.ID, "40m_dash", 5.0)
				So(err, ShouldBeNil)

				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)

				Convey("Then the tie orders by ascending player id", func() {
					So(ranked[0].PlayerID, ShouldEqual, p1.ID)
					So(ranked[0].CompositeScore, ShouldEqual, 30)
					So(ranked[1].PlayerID, ShouldEqual, p3.ID)
					So(ranked[1].CompositeScore, ShouldEqual, 30)
					So(ranked[1].Rank, ShouldEqual, 2)
				})
			})
		})

		Convey("When a result is submitted for an unknown drill", func() {
			_, err := svc.SubmitDrillResult(ctx, p1.ID, "bench_press", 10)
			So(err, ShouldNotBeNil)
		})

		Convey("When a result is submitted for an unknown player", func() {
			_, err := svc.SubmitDrillResult(ctx, 9999, "40m_dash", 5.0)
			So(err, ShouldWrap, repository.ErrNotFound)
		})
	})
}

func TestCorrectionsAndDeletes(t *testing.T) {
	Convey("Given a U10 dash cohort of 5, 6 and 7 seconds", t, func() {
		svc, _ := newTestService(t)
		ctx := context.Background()

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		p2 := mustCreate(t, svc, "Ben", "U10", 2)
		p3 := mustCreate(t, svc, "Cal", "U10", 3)

		r1, err := svc.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
		So(err, ShouldBeNil)
		r2, err := svc.SubmitDrillResult(ctx, p2.ID, "40m_dash", 6.0)
		So(err, ShouldBeNil)
		r3, err := svc.SubmitDrillResult(ctx, p3.ID, "40m_dash", 7.0)
		So(err, ShouldBeNil)

		Convey("When the middle time is corrected to the new best", func() {
			corrected, err := svc.CorrectDrillResult(ctx, r2.ID, 4.0)
			So(err, ShouldBeNil)

			Convey("Then the whole cohort renormalizes around the new envelope", func() {
				So(corrected.NormalizedScore, ShouldEqual, 100)

				first, err := svc.PlayerResults(ctx, p1.ID)
				So(err, ShouldBeNil)
				So(first[0].NormalizedScore, ShouldEqual, 66.67)

				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked[0].PlayerID, ShouldEqual, p2.ID)
				So(ranked[0].CompositeScore, ShouldEqual, 30)
				So(ranked[1].CompositeScore, ShouldEqual, 20)
			})
		})

		Convey("When the slowest result is deleted", func() {
			So(svc.DeleteDrillResult(ctx, r3.ID), ShouldBeNil)

			Convey("Then the cohort renormalizes without it", func() {
				remaining, err := svc.PlayerResults(ctx, p2.ID)
				So(err, ShouldBeNil)
				So(remaining[0].NormalizedScore, ShouldEqual, 0)

				Convey("And the deleted player's composite resets", func() {
					summary, err := svc.PlayerSummary(ctx, p3.ID)
					So(err, ShouldBeNil)
					So(summary.CompositeScore, ShouldEqual, 0)
				})
			})
		})

		Convey("When a nonexistent result is deleted", func() {
			err := svc.DeleteDrillResult(ctx, "no-such-id")
			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("When the same result is corrected twice to the same value", func() {
			_, err := svc.CorrectDrillResult(ctx, r1.ID, 5.5)
			So(err, ShouldBeNil)
			again, err := svc.CorrectDrillResult(ctx, r1.ID, 5.5)
			So(err, ShouldBeNil)

			Convey("Then the second pass is a harmless no-op", func() {
				So(again.RawScore, ShouldEqual, 5.5)
			})
		})
	})
}

func TestTransfer(t *testing.T) {
	Convey("Given players across two age groups", t, func() {
		svc, _ := newTestService(t)
		ctx := context.Background()

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		p2 := mustCreate(t, svc, "Ben", "U10", 2)
		p3 := mustCreate(t, svc, "Cal", "U10", 3)
		p4 := mustCreate(t, svc, "Dev", "U12", 4)

		for _, sub := range []struct {
			playerID int64
			raw      float64
		}{{p1.ID, 5.0}, {p2.ID, 6.0}, {p3.ID, 7.0}} {
			_, err := svc.SubmitDrillResult(ctx, sub.playerID, "40m_dash", sub.raw)
			So(err, ShouldBeNil)
		}
		_, err := svc.SubmitDrillResult(ctx, p4.ID, "40m_dash", 6.0)
		So(err, ShouldBeNil)

		Convey("When the slowest U10 player moves up to U12", func() {
			moved, err := svc.TransferPlayerAgeGroup(ctx, p3.ID, "U12")
			So(err, ShouldBeNil)
			So(moved.AgeGroup, ShouldEqual, "U12")

			Convey("Then the old cohort renormalizes without them", func() {
				results, err := svc.PlayerResults(ctx, p2.ID)
				So(err, ShouldBeNil)
				So(results[0].NormalizedScore, ShouldEqual, 0)
			})

			Convey("Then the new cohort renormalizes with them", func() {
				ranked, err := svc.Rankings(ctx, "U12")
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 2)
				So(ranked[0].PlayerID, ShouldEqual, p4.ID)
				So(ranked[0].CompositeScore, ShouldEqual, 30)
				So(ranked[1].PlayerID, ShouldEqual, p3.ID)
				So(ranked[1].CompositeScore, ShouldEqual, 0)
			})
		})

		Convey("When a player transfers into their current age group", func() {
			same, err := svc.TransferPlayerAgeGroup(ctx, p1.ID, "U10")
			So(err, ShouldBeNil)

			Convey("Then nothing changes", func() {
				So(same.AgeGroup, ShouldEqual, "U10")
				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked[0].CompositeScore, ShouldEqual, 30)
			})
		})
	})
}

func TestWhatIfRankings(t *testing.T) {
	Convey("Given an established U10 dash cohort", t, func() {
		svc, store := newTestService(t)
		ctx := context.Background()

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		p2 := mustCreate(t, svc, "Ben", "U10", 2)

		_, err := svc.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
		So(err, ShouldBeNil)
		_, err = svc.SubmitDrillResult(ctx, p2.ID, "40m_dash", 6.0)
		So(err, ShouldBeNil)
		_, err = svc.SubmitDrillResult(ctx, p2.ID, "vertical_jump", 30.0)
		So(err, ShouldBeNil)

		official, err := svc.Rankings(ctx, "U10")
		So(err, ShouldBeNil)

		Convey("When previewed under the official weights", func() {
			registryWeights := scoring.Profile(svc.Registry().DefaultWeights())
			preview, err := svc.WhatIfRankings(ctx, "U10", registryWeights)
			So(err, ShouldBeNil)

			Convey("Then the preview matches the official board", func() {
				So(preview, ShouldResemble, official)
			})
		})

		Convey("When previewed under dash-only weights", func() {
			preview, err := svc.WhatIfRankings(ctx, "U10", scoring.Profile{"40m_dash": 100})
			So(err, ShouldBeNil)

			Convey("Then the order follows the dash alone", func() {
				So(preview[0].PlayerID, ShouldEqual, p1.ID)
				So(preview[0].CompositeScore, ShouldEqual, 100)
				So(preview[1].CompositeScore, ShouldEqual, 0)
			})

			Convey("And the official scores are untouched", func() {
				after, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(after, ShouldResemble, official)

				stored, err := store.GetPlayer(ctx, p1.ID)
				So(err, ShouldBeNil)
				So(stored.CompositeScore, ShouldEqual, official[0].CompositeScore)
			})
		})

		Convey("When previewed with a zero-weight profile", func() {
			_, err := svc.WhatIfRankings(ctx, "U10", scoring.Profile{"40m_dash": 0})
			So(err, ShouldWrap, scoring.ErrZeroWeightProfile)
		})

		Convey("When previewed without an age group", func() {
			_, err := svc.WhatIfRankings(ctx, "", scoring.Profile{"40m_dash": 100})
			So(err, ShouldWrap, app.ErrInvalidInput)
		})
	})
}

func TestImportResults(t *testing.T) {
	Convey("Given registered players with jersey numbers", t, func() {
		svc, _ := newTestService(t)
		ctx := context.Background()

		p7 := mustCreate(t, svc, "Ava", "U10", 7)
		p12 := mustCreate(t, svc, "Ben", "U10", 12)

		Convey("When a bulk upload references known and unknown numbers", func() {
			summary, err := svc.ImportResults(ctx, []importer.Row{
				{PlayerNumber: 7, DrillKey: "40m_dash", RawScore: 5.5},
				{PlayerNumber: 12, DrillKey: "40m_dash", RawScore: 6.5},
				{PlayerNumber: 99, DrillKey: "40m_dash", RawScore: 6.0},
			})
			So(err, ShouldBeNil)

			Convey("Then known rows apply and the unknown row is reported", func() {
				So(summary.Applied, ShouldEqual, 2)
				So(summary.Skipped, ShouldEqual, 1)
				So(summary.CohortsRecomputed, ShouldEqual, 1)
				So(summary.RowErrors, ShouldHaveLength, 1)
			})

			Convey("Then the touched cohort is recomputed exactly once", func() {
				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked[0].PlayerID, ShouldEqual, p7.ID)
				So(ranked[0].CompositeScore, ShouldEqual, 30)
				So(ranked[1].PlayerID, ShouldEqual, p12.ID)
				So(ranked[1].CompositeScore, ShouldEqual, 0)
			})
		})

		Convey("When the upload is empty", func() {
			summary, err := svc.ImportResults(ctx, nil)
			So(err, ShouldBeNil)
			So(summary.Applied, ShouldEqual, 0)
			So(summary.CohortsRecomputed, ShouldEqual, 0)
		})
	})
}

func TestResetPlayers(t *testing.T) {
	Convey("Given a populated service", t, func() {
		svc, _ := newTestService(t)
		ctx := context.Background()

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		_, err := svc.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
		So(err, ShouldBeNil)

		Convey("When everything is reset", func() {
			deleted, err := svc.ResetPlayers(ctx)
			So(err, ShouldBeNil)
			So(deleted, ShouldEqual, 1)

			Convey("Then no players or results remain", func() {
				players, err := svc.Players(ctx, "")
				So(err, ShouldBeNil)
				So(players, ShouldBeEmpty)

				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked, ShouldBeEmpty)
			})

			Convey("And a result recorded afterwards starts from a fresh cohort", func() {
				p2 := mustCreate(t, svc, "Ben", "U10", 2)
				r, err := svc.SubmitDrillResult(ctx, p2.ID, "40m_dash", 9.0)
				So(err, ShouldBeNil)
				So(r.NormalizedScore, ShouldEqual, 100)
			})
		})
	})
}

func TestCustomConfiguration(t *testing.T) {
	Convey("Given a service with exclude policy and weight overrides", t, func() {
		svc, _ := newTestService(t,
			app.WithMissingDrillPolicy(scoring.MissingExclude),
			app.WithOfficialWeights(map[string]float64{"40m_dash": 50, "vertical_jump": 0}),
		)
		ctx := context.Background()

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		p2 := mustCreate(t, svc, "Ben", "U10", 2)

		_, err := svc.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
		So(err, ShouldBeNil)
		_, err = svc.SubmitDrillResult(ctx, p2.ID, "40m_dash", 6.0)
		So(err, ShouldBeNil)

		Convey("When rankings are computed", func() {
			ranked, err := svc.Rankings(ctx, "U10")
			So(err, ShouldBeNil)

			Convey("Then missing drills are excluded from the average", func() {
				So(ranked[0].PlayerID, ShouldEqual, p1.ID)
				So(ranked[0].CompositeScore, ShouldEqual, 100)
				So(ranked[1].CompositeScore, ShouldEqual, 0)
			})
		})
	})
}

// gateStore wraps a store so a test can hold a recomputation pass open right
// after it snapshots a cohort's results. The gate trips once, on the first
// cohort-scoped listing after arming.
type gateStore struct {
	repository.Store
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gateStore) ListDrillResults(ctx context.Context, ageGroup, drillKey string) ([]model.DrillResult, error) {
	results, err := g.Store.ListDrillResults(ctx, ageGroup, drillKey)

	g.mu.Lock()
	trip := g.armed && drillKey != ""
	if trip {
		g.armed = false
	}
	g.mu.Unlock()
	if trip {
		close(g.entered)
		<-g.release
	}
	return results, err
}

func TestSubmitDuringRecomputePass(t *testing.T) {
	Convey("Given a cohort whose recomputation pass is held open mid-flight", t, func() {
		ctx := context.Background()
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := repository.Open(ctx, repository.DriverSQLite, dsn)
		So(err, ShouldBeNil)
		db.SetMaxOpenConns(1)
		sqlStore := repository.NewSQLStore(db, repository.DriverSQLite)
		t.Cleanup(func() { _ = sqlStore.Close() })

		gate := &gateStore{
			Store:   sqlStore,
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		svc := app.New(app.WithStore(gate))
		So(svc.Start(ctx), ShouldBeNil)
		t.Cleanup(svc.Stop)

		p1 := mustCreate(t, svc, "Ava", "U10", 1)
		p2 := mustCreate(t, svc, "Ben", "U10", 2)
		_, err = svc.SubmitDrillResult(ctx, p1.ID, "vertical_jump", 20.0)
		So(err, ShouldBeNil)

		Convey("When a second player's jump lands during the window", func() {
			gate.mu.Lock()
			gate.armed = true
			gate.mu.Unlock()

			firstDone := make(chan error, 1)
			go func() {
				_, err := svc.SubmitDrillResult(ctx, p1.ID, "vertical_jump", 30.0)
				firstDone <- err
			}()
			<-gate.entered

			secondDone := make(chan error, 1)
			go func() {
				_, err := svc.SubmitDrillResult(ctx, p2.ID, "vertical_jump", 40.0)
				secondDone <- err
			}()
			close(gate.release)
			So(<-firstDone, ShouldBeNil)
			So(<-secondDone, ShouldBeNil)

			Convey("Then every persisted score reflects the full cohort", func() {
				results, err := sqlStore.ListDrillResults(ctx, "U10", "vertical_jump")
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 3)

				normByRaw := make(map[float64]float64, len(results))
				for _, r := range results {
					normByRaw[r.RawScore] = r.NormalizedScore
				}
				So(normByRaw[20.0], ShouldEqual, 0)
				So(normByRaw[30.0], ShouldEqual, 50)
				So(normByRaw[40.0], ShouldEqual, 100)

				top, err := sqlStore.GetPlayer(ctx, p2.ID)
				So(err, ShouldBeNil)
				So(top.CompositeScore, ShouldEqual, 20)
				runner, err := sqlStore.GetPlayer(ctx, p1.ID)
				So(err, ShouldBeNil)
				So(runner.CompositeScore, ShouldEqual, 10)
			})

			Convey("And the rankings need no repair pass to be correct", func() {
				ranked, err := svc.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 2)
				So(ranked[0].PlayerID, ShouldEqual, p2.ID)
				So(ranked[0].CompositeScore, ShouldEqual, 20)
				So(ranked[1].PlayerID, ShouldEqual, p1.ID)
				So(ranked[1].CompositeScore, ShouldEqual, 10)
			})
		})
	})
}

func TestIndexWarmStart(t *testing.T) {
	Convey("Given a service that persisted results and shut down", t, func() {
		ctx := context.Background()
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := repository.Open(ctx, repository.DriverSQLite, dsn)
		So(err, ShouldBeNil)
		db.SetMaxOpenConns(1)
		store := repository.NewSQLStore(db, repository.DriverSQLite)
		defer store.Close()

		first := app.New(app.WithStore(store))
		So(first.Start(ctx), ShouldBeNil)
		p1, err := first.CreatePlayer(ctx, "Ava", "U10", 1)
		So(err, ShouldBeNil)
		p2, err := first.CreatePlayer(ctx, "Ben", "U10", 2)
		So(err, ShouldBeNil)
		_, err = first.SubmitDrillResult(ctx, p1.ID, "40m_dash", 5.0)
		So(err, ShouldBeNil)
		_, err = first.SubmitDrillResult(ctx, p2.ID, "40m_dash", 6.0)
		So(err, ShouldBeNil)
		first.Stop()

		Convey("When a second service starts over the same database", func() {
			second := app.New(app.WithStore(store))
			So(second.Start(ctx), ShouldBeNil)
			defer second.Stop()

			Convey("Then its warmed index keeps bounds consistent for new results", func() {
				p3, err := second.CreatePlayer(ctx, "Cal", "U10", 3)
				So(err, ShouldBeNil)
				_, err = second.SubmitDrillResult(ctx, p3.ID, "40m_dash", 7.0)
				So(err, ShouldBeNil)

				ranked, err := second.Rankings(ctx, "U10")
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 3)
				So(ranked[0].CompositeScore, ShouldEqual, 30)
				So(ranked[1].CompositeScore, ShouldEqual, 15)
				So(ranked[2].CompositeScore, ShouldEqual, 0)
			})
		})
	})
}

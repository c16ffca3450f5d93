package dirtyset_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/woocombine/combine/internal/domain/cohort"
	"github.com/woocombine/combine/internal/domain/dirtyset"
)

func TestSet(t *testing.T) {
	Convey("Given a fresh dirty set", t, func() {
		set := dirtyset.New()
		u10 := cohort.Key{AgeGroup: "U10", DrillKey: "40m_dash"}
		u12 := cohort.Key{AgeGroup: "U12", DrillKey: "agility"}

		Convey("Every cohort starts clean", func() {
			So(set.IsDirty(u10), ShouldBeFalse)
			So(set.Size(), ShouldEqual, 0)
		})

		Convey("When a cohort is marked dirty", func() {
			set.MarkDirty(u10)

			So(set.IsDirty(u10), ShouldBeTrue)
			So(set.IsDirty(u12), ShouldBeFalse)

			Convey("Marking it again changes nothing", func() {
				set.MarkDirty(u10)
				So(set.Size(), ShouldEqual, 1)
			})

			Convey("Marking it clean clears it", func() {
				set.MarkClean(u10)
				So(set.IsDirty(u10), ShouldBeFalse)
			})
		})

		Convey("When multiple age groups are dirty", func() {
			set.MarkDirty(u10)
			set.MarkDirty(u12)

			Convey("Snapshot returns all of them", func() {
				So(set.Snapshot(), ShouldHaveLength, 2)
			})

			Convey("SnapshotAgeGroup filters by age group", func() {
				keys := set.SnapshotAgeGroup("U10")
				So(keys, ShouldHaveLength, 1)
				So(keys[0], ShouldResemble, u10)
			})

			Convey("Reset clears everything", func() {
				set.Reset()
				So(set.Size(), ShouldEqual, 0)
			})
		})
	})
}

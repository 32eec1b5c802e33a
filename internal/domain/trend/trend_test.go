package trend_test

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/okian/outbreak/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

// stepSource cycles through fixed uniform values and always returns a
// fixed normal draw.
type stepSource struct {
	mu      sync.Mutex
	uniform []float64
	normal  float64
	i       int
}

func (s *stepSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.uniform[s.i%len(s.uniform)]
	s.i++
	return v
}

func (s *stepSource) NormFloat64() float64 { return s.normal }

func TestGenerator_Shape(t *testing.T) {
	Convey("Given the default generator", t, func() {
		now := time.Date(2024, 3, 15, 17, 45, 0, 0, time.UTC)
		s := trend.NewGenerator().Generate(now, 150)

		Convey("Then there are thirty daily points ending today", func() {
			So(s.History, ShouldHaveLength, 30)
			So(s.History[29].Date, ShouldEqual, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
			So(s.History[0].Date, ShouldEqual, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
		})

		Convey("And the projection covers the next seven days", func() {
			So(s.Projection, ShouldHaveLength, 7)
			So(s.Projection[0].Date, ShouldEqual, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
		})

		Convey("And every value stays in its domain", func() {
			for _, p := range s.History {
				So(p.Risk, ShouldBeBetweenOrEqual, 0, 1)
				So(p.Cases, ShouldBeGreaterThanOrEqualTo, 0)
			}
			for _, p := range s.Projection {
				So(p.Risk, ShouldBeBetweenOrEqual, 0, 1)
			}
		})
	})
}

func TestGenerator_LocalDay(t *testing.T) {
	Convey("Given a late evening west of UTC", t, func() {
		zone := time.FixedZone("UTC-5", -5*60*60)
		now := time.Date(2024, 3, 15, 22, 30, 0, 0, zone)
		s := trend.NewGenerator().Generate(now, 150)

		Convey("Then the history ends at local midnight of the same day", func() {
			last := s.History[len(s.History)-1].Date
			So(last.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, zone)), ShouldBeTrue)
			So(last.Location(), ShouldEqual, zone)
		})

		Convey("And the projection starts the next local day", func() {
			So(s.Projection[0].Date.Equal(time.Date(2024, 3, 16, 0, 0, 0, 0, zone)), ShouldBeTrue)
		})
	})
}

func TestGenerator_MovingAverage(t *testing.T) {
	Convey("Given a deterministic source", t, func() {
		src := &stepSource{uniform: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, normal: 1}
		s := trend.NewGenerator(trend.WithDays(6), trend.WithSource(src)).Generate(time.Now(), 100)

		Convey("Then the first window-1 averages are undefined", func() {
			So(s.History[0].MovingAverage, ShouldBeNil)
			So(s.History[1].MovingAverage, ShouldBeNil)
		})

		Convey("And later averages cover the trailing window", func() {
			So(*s.History[2].MovingAverage, ShouldAlmostEqual, 0.2, 1e-12)
			So(*s.History[5].MovingAverage, ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("And cases are shifted by one standard deviation", func() {
			So(s.History[0].Cases, ShouldAlmostEqual, 110, 1e-9)
		})

		Convey("And undefined averages serialise as null", func() {
			b, err := json.Marshal(s.History[0])
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"moving_average":null`)
		})
	})
}

func TestGenerator_Projection(t *testing.T) {
	Convey("Given recent risk values", t, func() {
		Convey("When the lifted mean stays below one", func() {
			src := &stepSource{uniform: []float64{0.5}}
			s := trend.NewGenerator(trend.WithSource(src)).Generate(time.Now(), 10)

			Convey("Then the projection is the mean scaled by 1.1", func() {
				for _, p := range s.Projection {
					So(p.Risk, ShouldAlmostEqual, 0.55, 1e-12)
				}
			})
		})

		Convey("When the lifted mean would exceed one", func() {
			src := &stepSource{uniform: []float64{0.99}}
			s := trend.NewGenerator(trend.WithSource(src), trend.WithHorizon(3)).Generate(time.Now(), 10)

			Convey("Then the projection is clipped", func() {
				So(s.Projection, ShouldHaveLength, 3)
				So(s.Projection[0].Risk, ShouldEqual, 1.0)
			})
		})
	})
}

func TestGenerator_Cases(t *testing.T) {
	Convey("Given a large negative normal draw", t, func() {
		src := &stepSource{uniform: []float64{0.5}, normal: -20}
		s := trend.NewGenerator(trend.WithSource(src)).Generate(time.Now(), 50)

		Convey("Then cases are floored at zero", func() {
			So(s.History[0].Cases, ShouldEqual, 0.0)
		})
	})

	Convey("Given a seeded generator", t, func() {
		r := rand.New(rand.NewPCG(1, 2))
		var mu sync.Mutex
		src := &lockedRand{mu: &mu, r: r}
		s := trend.NewGenerator(trend.WithDays(2000), trend.WithSource(src)).Generate(time.Now(), 1000)

		Convey("Then the cases centre on the submitted count", func() {
			var sum float64
			for _, p := range s.History {
				sum += p.Cases
			}
			So(sum/float64(len(s.History)), ShouldAlmostEqual, 1000, 10)
		})
	})
}

type lockedRand struct {
	mu *sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) NormFloat64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.NormFloat64()
}

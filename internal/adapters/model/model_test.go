package model_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/outbreak/internal/adapters/model"
	"github.com/okian/outbreak/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

const header = "features: [new_cases, humidity, population_density, temperature, rainfall]\n"

func TestLoad_BundledTree(t *testing.T) {
	Convey("Given the bundled artifact", t, func() {
		p, err := model.Load(context.Background(), filepath.Join("..", "..", "..", "models", "outbreak_model.yaml"))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("Then each branch reaches its leaf", func() {
			cases := []struct {
				x    [risk.FeatureCount]float64
				want int
			}{
				{[risk.FeatureCount]float64{150, 65, 200, 28, 120}, 1},
				{[risk.FeatureCount]float64{50, 40, 100, 20, 10}, 0},
				{[risk.FeatureCount]float64{50, 80, 900, 20, 10}, 1},
				{[risk.FeatureCount]float64{50, 60, 900, 20, 10}, 0},
				{[risk.FeatureCount]float64{300, 50, 100, 10, 100}, 0},
				{[risk.FeatureCount]float64{300, 50, 100, 10, 200}, 1},
			}
			for _, c := range cases {
				got, err := p.Predict(ctx, c.x)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("And a value equal to the threshold goes left", func() {
			got, err := p.Predict(ctx, [risk.FeatureCount]float64{100, 60, 500, 30, 0})
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 0)
		})
	})
}

func TestLoad_Logistic(t *testing.T) {
	Convey("Given a logistic artifact", t, func() {
		p, err := model.Load(context.Background(), filepath.Join("testdata", "logistic.yaml"))
		So(err, ShouldBeNil)

		Convey("Then large inputs score high and small inputs score low", func() {
			hi, err := p.Predict(context.Background(), [risk.FeatureCount]float64{200, 80, 1000, 35, 300})
			So(err, ShouldBeNil)
			So(hi, ShouldEqual, 1)

			lo, err := p.Predict(context.Background(), [risk.FeatureCount]float64{5, 20, 10, 5, 0})
			So(err, ShouldBeNil)
			So(lo, ShouldEqual, 0)
		})

		Convey("And the score is a probability", func() {
			lm := p.(*model.LogisticModel)
			So(lm.Score([risk.FeatureCount]float64{}), ShouldBeBetween, 0, 1)
		})
	})
}

func TestLoad_Failures(t *testing.T) {
	Convey("Given unusable artifacts", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		write := func(name, body string) string {
			path := filepath.Join(dir, name)
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
			return path
		}

		Convey("When the file does not exist", func() {
			_, err := model.Load(ctx, filepath.Join(dir, "missing.yaml"))

			Convey("Then the model is unavailable and the path is named", func() {
				So(errors.Is(err, risk.ErrModelUnavailable), ShouldBeTrue)
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "missing.yaml")
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := model.Load(cctx, filepath.Join("testdata", "logistic.yaml"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("When the document is not YAML", func() {
			_, err := model.Load(ctx, write("bad.yaml", "kind: [tree"))
			So(errors.Is(err, risk.ErrModelUnavailable), ShouldBeTrue)
		})

		Convey("When the kind is unknown", func() {
			_, err := model.Load(ctx, write("svm.yaml", "kind: svm\n"+header))
			So(errors.Is(err, model.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When features are reordered", func() {
			_, err := model.Load(ctx, write("order.yaml", "kind: tree\nfeatures: [humidity, new_cases, population_density, temperature, rainfall]\n"))
			So(errors.Is(err, model.ErrFeatureMismatch), ShouldBeTrue)
		})

		Convey("When the logistic section is short", func() {
			_, err := model.Load(ctx, write("short.yaml", "kind: logistic\n"+header+"logistic: {coefficients: [1, 2], threshold: 0.5}\n"))
			So(errors.Is(err, model.ErrInvalidLogistic), ShouldBeTrue)
		})

		Convey("When the logistic threshold is out of range", func() {
			_, err := model.Load(ctx, write("thr.yaml", "kind: logistic\n"+header+"logistic: {coefficients: [1, 2, 3, 4, 5], threshold: 1.5}\n"))
			So(errors.Is(err, model.ErrInvalidLogistic), ShouldBeTrue)
		})

		Convey("When tree nodes are malformed", func() {
			bodies := map[string]string{
				"empty":    "tree: {nodes: []}\n",
				"range":    "tree: {nodes: [{feature: 0, threshold: 1, left: 1, right: 9}, {leaf: true}]}\n",
				"cycle":    "tree: {nodes: [{feature: 0, threshold: 1, left: 1, right: 2}, {feature: 1, threshold: 1, left: 0, right: 2}, {leaf: true}]}\n",
				"feature":  "tree: {nodes: [{feature: 7, threshold: 1, left: 1, right: 1}, {leaf: true}]}\n",
				"class":    "tree: {nodes: [{leaf: true, class: 2}]}\n",
				"selfloop": "tree: {nodes: [{feature: 0, threshold: 1, left: 0, right: 0}]}\n",
			}
			for name, body := range bodies {
				_, err := model.Load(ctx, write(name+".yaml", "kind: tree\n"+header+body))
				So(errors.Is(err, model.ErrInvalidTree), ShouldBeTrue)
				So(errors.Is(err, risk.ErrModelUnavailable), ShouldBeTrue)
			}
		})

		Convey("When two splits share a subtree", func() {
			body := "tree: {nodes: [{feature: 0, threshold: 1, left: 1, right: 1}, {leaf: true, class: 1}]}\n"
			p, err := model.Load(ctx, write("dag.yaml", "kind: tree\n"+header+body))

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
				d, err := p.Predict(ctx, [risk.FeatureCount]float64{})
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 1)
			})
		})
	})
}

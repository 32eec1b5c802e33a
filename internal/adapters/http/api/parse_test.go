package api_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/okian/outbreak/internal/adapters/http/api"
	"github.com/okian/outbreak/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseForm(t *testing.T) {
	Convey("Given submitted form values", t, func() {
		values := url.Values{
			"new_cases":          {"150"},
			"humidity":           {" 65 "},
			"population_density": {"200"},
			"temperature":        {"-4.5"},
			"rainfall":           {"0"},
		}

		Convey("When every required field is present", func() {
			in, err := api.ParseForm(values)

			Convey("Then the input is built and coverage is left unset", func() {
				So(err, ShouldBeNil)
				So(in.Features(), ShouldResemble, [risk.FeatureCount]float64{150, 65, 200, -4.5, 0})
				So(in.VaccinationRate, ShouldBeNil)
			})
		})

		Convey("When coverage is supplied", func() {
			values.Set("vaccination_rate", "80")
			in, err := api.ParseForm(values)
			So(err, ShouldBeNil)
			So(*in.VaccinationRate, ShouldEqual, 80.0)
		})

		Convey("When fields are missing or blank", func() {
			values.Del("new_cases")
			values.Set("rainfall", "")
			_, err := api.ParseForm(values)

			Convey("Then exactly those fields are reported in form order", func() {
				var iie *risk.InvalidInputError
				So(errors.As(err, &iie), ShouldBeTrue)
				So(iie.Missing, ShouldResemble, []string{"new_cases", "rainfall"})
				So(iie.Invalid, ShouldBeEmpty)
			})
		})

		Convey("When a field is not a number", func() {
			values.Set("humidity", "damp")
			values.Set("vaccination_rate", "most")
			_, err := api.ParseForm(values)

			Convey("Then it is reported as invalid", func() {
				var iie *risk.InvalidInputError
				So(errors.As(err, &iie), ShouldBeTrue)
				So(iie.Invalid, ShouldResemble, []string{"humidity", "vaccination_rate"})
				So(iie.Error(), ShouldContainSubstring, `"damp" is not a number`)
			})
		})
	})
}

func TestParseJSON(t *testing.T) {
	Convey("Given a decoded JSON object", t, func() {
		body := map[string]any{
			"new_cases":          json.Number("12"),
			"humidity":           40.0,
			"population_density": "300",
			"temperature":        nil,
			"rainfall":           true,
		}
		_, err := api.ParseJSON(body)

		Convey("Then nulls are missing and non-numeric types are invalid", func() {
			var iie *risk.InvalidInputError
			So(errors.As(err, &iie), ShouldBeTrue)
			So(iie.Missing, ShouldResemble, []string{"temperature"})
			So(iie.Invalid, ShouldResemble, []string{"rainfall"})
		})
	})
}

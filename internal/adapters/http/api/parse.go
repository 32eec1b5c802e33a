package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/outbreak/internal/domain/risk"
)

// fieldSpec binds a request field to its slot in risk.Input.
type fieldSpec struct {
	name     string
	required bool
	set      func(in *risk.Input, v float64)
}

// formFields lists the accepted fields in form order.
var formFields = []fieldSpec{
	{risk.FieldNewCases, true, func(in *risk.Input, v float64) { in.NewCases = v }},
	{risk.FieldHumidity, true, func(in *risk.Input, v float64) { in.Humidity = v }},
	{risk.FieldPopulationDensity, true, func(in *risk.Input, v float64) { in.PopulationDensity = v }},
	{risk.FieldTemperature, true, func(in *risk.Input, v float64) { in.Temperature = v }},
	{risk.FieldRainfall, true, func(in *risk.Input, v float64) { in.Rainfall = v }},
	{risk.FieldVaccinationRate, false, func(in *risk.Input, v float64) { in.VaccinationRate = risk.Float64(v) }},
}

// ParseForm builds an Input from submitted form values.
func ParseForm(values url.Values) (risk.Input, error) {
	return parse(func(name string) (any, bool) {
		if _, ok := values[name]; !ok {
			return nil, false
		}
		return values.Get(name), true
	})
}

// ParseJSON builds an Input from a decoded JSON object. Values may be
// numbers or numeric strings.
func ParseJSON(body map[string]any) (risk.Input, error) {
	return parse(func(name string) (any, bool) {
		v, ok := body[name]
		return v, ok
	})
}

func parse(lookup func(name string) (any, bool)) (risk.Input, error) {
	var (
		in      risk.Input
		missing []string
		invalid []string
		reasons []string
	)
	for _, f := range formFields {
		raw, ok := lookup(f.name)
		v, present, err := toFloat(raw)
		switch {
		case !ok || !present:
			if f.required {
				missing = append(missing, f.name)
			}
		case err != nil:
			invalid = append(invalid, f.name)
			reasons = append(reasons, fmt.Sprintf("%s: %v", f.name, err))
		default:
			f.set(&in, v)
		}
	}
	if len(missing) > 0 || len(invalid) > 0 {
		e := risk.Missing(missing...)
		e.Invalid = invalid
		e.Reason = strings.Join(reasons, "; ")
		return risk.Input{}, e
	}
	return in, nil
}

// toFloat converts a submitted value. Blank strings and nulls count as absent.
func toFloat(raw any) (v float64, present bool, err error) {
	switch t := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return t, true, nil
	case json.Number:
		v, err := t.Float64()
		return v, true, err
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, true, fmt.Errorf("%q is not a number", s)
		}
		return v, true, nil
	default:
		return 0, true, fmt.Errorf("unsupported value of type %T", raw)
	}
}

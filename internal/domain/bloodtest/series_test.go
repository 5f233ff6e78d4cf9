package bloodtest

import (
	"reflect"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestBuildSeries_SortsAscendingAndFillsZero(t *testing.T) {
	tests := []*BloodTest{
		{DatePerformed: day("2024-03-01"), Results: map[string]float64{"hemoglobin": 14.5, "glucose": 95}},
		{DatePerformed: day("2024-01-01"), Results: map[string]float64{"hemoglobin": 13.9}},
		{DatePerformed: day("2024-02-01"), Results: map[string]float64{"glucose": 101}},
	}

	series := BuildSeries(tests, []string{"glucose", "hemoglobin"})
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}

	var glucose []float64
	for _, p := range series[0].Points {
		glucose = append(glucose, p.Value)
	}
	if !reflect.DeepEqual(glucose, []float64{0, 101, 95}) {
		t.Errorf("unexpected glucose series %v", glucose)
	}
	if series[1].Metric != "hemoglobin" || series[1].Points[0].Value != 13.9 {
		t.Errorf("unexpected hemoglobin series %+v", series[1])
	}

	// Input order is untouched.
	if !tests[0].DatePerformed.Equal(day("2024-03-01")) {
		t.Error("BuildSeries must not reorder its input")
	}
}

func TestBuildSeries_StableForEqualDates(t *testing.T) {
	tests := []*BloodTest{
		{DatePerformed: day("2024-01-01"), Results: map[string]float64{"ldl": 1}},
		{DatePerformed: day("2024-01-01"), Results: map[string]float64{"ldl": 2}},
		{DatePerformed: day("2024-01-01"), Results: map[string]float64{"ldl": 3}},
	}
	points := BuildSeries(tests, []string{"ldl"})[0].Points
	for i, p := range points {
		if p.Value != float64(i+1) {
			t.Fatalf("expected input order preserved, got %+v", points)
		}
	}
}

func TestBuildSeries_Empty(t *testing.T) {
	series := BuildSeries(nil, []string{"glucose"})
	if len(series) != 1 || len(series[0].Points) != 0 {
		t.Errorf("expected one empty series, got %+v", series)
	}
}

func TestMetricNames(t *testing.T) {
	tests := []*BloodTest{
		{Results: map[string]float64{"glucose": 1, "ldl": 2}},
		{Results: map[string]float64{"hemoglobin": 3, "glucose": 4}},
	}
	got := MetricNames(tests)
	want := []string{"glucose", "hemoglobin", "ldl"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

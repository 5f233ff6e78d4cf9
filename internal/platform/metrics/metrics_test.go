package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUploadsTotal_Increments(t *testing.T) {
	before := testutil.ToFloat64(UploadsTotal.WithLabelValues("ok"))
	UploadsTotal.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(UploadsTotal.WithLabelValues("ok")); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

func TestAnalysesTotal_LabelsAreIndependent(t *testing.T) {
	model := testutil.ToFloat64(AnalysesTotal.WithLabelValues("model"))
	AnalysesTotal.WithLabelValues("cache").Inc()
	if got := testutil.ToFloat64(AnalysesTotal.WithLabelValues("model")); got != model {
		t.Errorf("model counter changed: %v -> %v", model, got)
	}
}

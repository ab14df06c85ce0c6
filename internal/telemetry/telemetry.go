package telemetry

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Point is one flattened metric value, ready to ship to a stats backend.
type Point struct {
	Name  string
	Value float64
	// Tags are "key:value" pairs sorted by key.
	Tags []string
}

// Telemetry owns the process MeterProvider. Metrics are pulled on demand
// through a manual reader; nothing is exported in the background.
type Telemetry struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
}

func New(serviceName string) *Telemetry {
	reader := sdkmetric.NewManualReader()
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return &Telemetry{
		provider: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(reader),
			sdkmetric.WithResource(res),
		),
		reader: reader,
	}
}

func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.provider
}

// Snapshot collects every instrument. Sums become one point per data point;
// histograms become "<name>.count" and "<name>.avg".
func (t *Telemetry) Snapshot(ctx context.Context) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}

	var points []Point
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Value: float64(dp.Value), Tags: tags(dp.Attributes)})
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Value: dp.Value, Tags: tags(dp.Attributes)})
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Value: float64(dp.Value), Tags: tags(dp.Attributes)})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					tagList := tags(dp.Attributes)
					points = append(points, Point{Name: m.Name + ".count", Value: float64(dp.Count), Tags: tagList})
					if dp.Count > 0 {
						points = append(points, Point{Name: m.Name + ".avg", Value: dp.Sum / float64(dp.Count), Tags: tagList})
					}
				}
			}
		}
	}
	return points, nil
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

func tags(set attribute.Set) []string {
	kvs := set.ToSlice()
	out := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, string(kv.Key)+":"+kv.Value.Emit())
	}
	sort.Strings(out)
	return out
}

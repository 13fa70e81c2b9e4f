// ABOUTME: Amplifier model catalog and feature matrix
// ABOUTME: The model is inferred from device status when not supplied up front
package vssl

// Feature is a per-model capability flag.
type Feature int

const (
	FeatureGrouping Feature = iota
	FeatureBluetooth
	FeaturePartyMode
	FeatureSubwooferCrossover
)

// Model describes one amplifier model.
type Model struct {
	Name     string
	ZoneQty  int
	features map[Feature]bool
}

// Supports reports whether the model carries the given feature.
func (m *Model) Supports(f Feature) bool {
	return m != nil && m.features[f]
}

// String returns the marketing name.
func (m *Model) String() string {
	if m == nil {
		return "unknown"
	}
	return m.Name
}

func features(fs ...Feature) map[Feature]bool {
	set := make(map[Feature]bool, len(fs))
	for _, f := range fs {
		set[f] = true
	}
	return set
}

// The original series lacks Bluetooth; the x-series adds it. Single zone
// models have nothing to group.
var (
	ModelA1 = &Model{Name: "A.1", ZoneQty: 1, features: features(
		FeatureSubwooferCrossover,
	)}
	ModelA3 = &Model{Name: "A.3", ZoneQty: 3, features: features(
		FeatureGrouping, FeaturePartyMode,
	)}
	ModelA6 = &Model{Name: "A.6", ZoneQty: 6, features: features(
		FeatureGrouping, FeaturePartyMode,
	)}
	ModelA1X = &Model{Name: "A.1x", ZoneQty: 1, features: features(
		FeatureBluetooth, FeatureSubwooferCrossover,
	)}
	ModelA3X = &Model{Name: "A.3x", ZoneQty: 3, features: features(
		FeatureGrouping, FeatureBluetooth, FeaturePartyMode,
	)}
	ModelA6X = &Model{Name: "A.6x", ZoneQty: 6, features: features(
		FeatureGrouping, FeatureBluetooth, FeaturePartyMode,
	)}
)

// Models is the full catalog.
var Models = []*Model{ModelA1, ModelA3, ModelA6, ModelA1X, ModelA3X, ModelA6X}

// ModelByName looks a model up by its marketing name, case sensitive.
func ModelByName(name string) *Model {
	for _, m := range Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// inferModel picks the x-series model matching a reported zone count. Devices
// only report their zone quantity, which cannot distinguish the original
// series from the x-series; the x-series is the common hardware in the field.
func inferModel(zoneQty int) *Model {
	switch zoneQty {
	case 1:
		return ModelA1X
	case 3:
		return ModelA3X
	case 6:
		return ModelA6X
	}
	return nil
}

package models

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is the area demo orders are scattered over.
type BoundingBox struct {
	MinLat float64 `mapstructure:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat"`
	MinLng float64 `mapstructure:"min_lng"`
	MaxLng float64 `mapstructure:"max_lng"`
}

func (b BoundingBox) Contains(loc Location) bool {
	return loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat &&
		loc.Lon >= b.MinLng && loc.Lon <= b.MaxLng
}

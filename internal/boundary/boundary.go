// Package boundary acquires and queries the administrative boundary
// polygons drawn under the incident map. The polygon set comes from a
// remote GeoJSON URL with a local-file fallback; when both fail the
// dashboard cannot start.
package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Region is one named administrative boundary polygon.
type Region struct {
	Name     string
	Polygons []*geom.Polygon
}

// Set is the full boundary polygon collection. GeoJSON holds the raw
// document when the set came from GeoJSON, for direct passthrough to the
// map client.
type Set struct {
	Regions []Region
	GeoJSON []byte
}

// Config locates the boundary data.
type Config struct {
	URL          string
	LocalPath    string
	NameProperty string        // GeoJSON property / DBF field carrying the region name
	Timeout      time.Duration // remote fetch timeout
}

// Load acquires the boundary set: remote fetch first, local copy on
// failure, hard error when both are unavailable. There is no silent
// empty-map fallback.
func Load(ctx context.Context, client *http.Client, cfg Config) (*Set, error) {
	log := zap.L().With(zap.String("component", "boundary"))

	if cfg.URL != "" {
		data, err := fetch(ctx, client, cfg.URL, cfg.Timeout)
		if err == nil {
			set, perr := parseGeoJSON(data, cfg.NameProperty)
			if perr == nil {
				log.Info("boundary polygons fetched", zap.String("url", cfg.URL),
					zap.Int("regions", len(set.Regions)))
				return set, nil
			}
			err = perr
		}
		log.Warn("boundary: remote fetch failed, trying local copy",
			zap.String("url", cfg.URL), zap.Error(err))
	}

	if cfg.LocalPath == "" {
		return nil, eris.New("boundary: remote fetch failed and no local copy configured")
	}

	set, err := loadLocal(cfg.LocalPath, cfg.NameProperty)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: local copy unavailable")
	}
	log.Info("boundary polygons loaded from local copy",
		zap.String("path", cfg.LocalPath), zap.Int("regions", len(set.Regions)))
	return set, nil
}

func fetch(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return data, nil
}

// loadLocal reads a boundary file from disk. GeoJSON and shapefile
// formats are supported, selected by extension.
func loadLocal(path, nameProp string) (*Set, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		regions, err := parseShapefile(path, nameProp)
		if err != nil {
			return nil, err
		}
		return &Set{Regions: regions}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read local boundary file")
	}
	return parseGeoJSON(data, nameProp)
}

// parseGeoJSON decodes a FeatureCollection into named regions. Features
// whose geometry is not polygonal are skipped.
func parseGeoJSON(data []byte, nameProp string) (*Set, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "boundary: decode GeoJSON")
	}
	if len(fc.Features) == 0 {
		return nil, eris.New("boundary: GeoJSON has no features")
	}

	var regions []Region
	for i, f := range fc.Features {
		name := featureName(f, nameProp, i)
		polys := polygonsOf(f.Geometry)
		if len(polys) == 0 {
			continue
		}
		regions = append(regions, Region{Name: name, Polygons: polys})
	}
	if len(regions) == 0 {
		return nil, eris.New("boundary: GeoJSON has no polygonal features")
	}
	return &Set{Regions: regions, GeoJSON: data}, nil
}

func featureName(f *geojson.Feature, nameProp string, idx int) string {
	if f.Properties != nil {
		if v, ok := f.Properties[nameProp]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("region-%d", idx)
}

// polygonsOf flattens a geometry into its polygon list.
func polygonsOf(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		polys := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			polys = append(polys, t.Polygon(i))
		}
		return polys
	default:
		return nil
	}
}

// Locate returns the name of the region containing the coordinate, or
// ok=false when no polygon contains it.
func (s *Set) Locate(lat, lon float64) (string, bool) {
	for i := range s.Regions {
		for _, p := range s.Regions[i].Polygons {
			if polygonContains(p, lat, lon) {
				return s.Regions[i].Name, true
			}
		}
	}
	return "", false
}

// polygonContains runs an even-odd ray cast across all rings, so interior
// holes exclude points correctly.
func polygonContains(p *geom.Polygon, lat, lon float64) bool {
	inside := false
	for r := 0; r < p.NumLinearRings(); r++ {
		ring := p.LinearRing(r)
		if ringContains(ring.FlatCoords(), ring.Stride(), lat, lon) {
			inside = !inside
		}
	}
	return inside
}

// ringContains is a standard even-odd crossing test. Coordinates are
// (x=longitude, y=latitude) per GeoJSON axis order.
func ringContains(flat []float64, stride int, lat, lon float64) bool {
	if stride < 2 {
		return false
	}
	n := len(flat) / stride
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := flat[i*stride], flat[i*stride+1]
		xj, yj := flat[j*stride], flat[j*stride+1]
		if (yi > lat) != (yj > lat) &&
			lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

package boundary

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// parseShapefile reads boundary polygons from a shapefile, taking the
// region name from the DBF field named by nameField (case-insensitive).
// Records without polygon geometry are skipped.
func parseShapefile(path, nameField string) ([]Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, nameField) {
			nameIdx = i
			break
		}
	}

	var regions []Region
	var skipped int
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		polys := shpPolygons(poly)
		if len(polys) == 0 {
			skipped++
			continue
		}

		name := ""
		if nameIdx >= 0 {
			name = strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		}
		if name == "" {
			name = fmt.Sprintf("region-%d", n)
		}
		regions = append(regions, Region{Name: name, Polygons: polys})
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	if len(regions) == 0 {
		return nil, eris.Errorf("boundary: shapefile %s has no polygon records", path)
	}
	return regions, nil
}

// shpPolygons converts a shapefile polygon record into go-geom polygons.
// Shapefile parts are rings in sequence; each part becomes one ring of a
// single polygon per exterior, matching how the source files are encoded.
func shpPolygons(p *shp.Polygon) []*geom.Polygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	var current *geom.Polygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		coords := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			coords = append(coords, geom.Coord{p.Points[j].X, p.Points[j].Y})
		}
		if len(coords) < 4 {
			continue
		}

		// Shapefile exterior rings wind clockwise, holes counter-clockwise.
		if ringIsClockwise(coords) || current == nil {
			current = geom.NewPolygon(geom.XY)
			polys = append(polys, current)
		}
		ring := geom.NewLinearRing(geom.XY)
		if _, err := ring.SetCoords(coords); err != nil {
			continue
		}
		if err := current.Push(ring); err != nil {
			continue
		}
	}
	return polys
}

// ringIsClockwise uses the signed shoelace area.
func ringIsClockwise(coords []geom.Coord) bool {
	var sum float64
	for i := 0; i < len(coords)-1; i++ {
		sum += (coords[i+1][0] - coords[i][0]) * (coords[i+1][1] + coords[i][1])
	}
	return sum > 0
}

package ugrid

import (
	"fmt"
	"strconv"
	"strings"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
)

const pcsVariable = "projected_coordinate_system"

// pcsCandidates are the variable names probed for a coordinate system, in
// order.
var pcsCandidates = []string{
	pcsVariable,
	pcsVariable + "_1",
	"wgs84",
	"crs",
}

// ProjectedCoordinateSystem describes the projection of a file's
// coordinates.
type ProjectedCoordinateSystem struct {
	EPSG                     int32
	LongitudeOfPrimeMeridian float64
	SemiMajorAxis            float64
	SemiMinorAxis            float64
	InverseFlattening        float64
	Name                     string
	GridMappingName          string
	Proj4Params              string
	EPSGCode                 string
	ProjectionName           string
	WKT                      string

	// Attributes holds every attribute as read, including unknown ones.
	Attributes map[string]string
}

type intAttr struct {
	name  string
	value int32
}

type doubleAttr struct {
	name  string
	value float64
}

type charAttr struct {
	name  string
	value string
}

func (p *ProjectedCoordinateSystem) intAttributes() []intAttr {
	return []intAttr{{"epsg", p.EPSG}}
}

func (p *ProjectedCoordinateSystem) doubleAttributes() []doubleAttr {
	return []doubleAttr{
		{"longitude_of_prime_meridian", p.LongitudeOfPrimeMeridian},
		{"semi_major_axis", p.SemiMajorAxis},
		{"semi_minor_axis", p.SemiMinorAxis},
		{"inverse_flattening", p.InverseFlattening},
	}
}

// charAttributes skips empty strings.
func (p *ProjectedCoordinateSystem) charAttributes() []charAttr {
	var out []charAttr
	for _, a := range []charAttr{
		{"name", p.Name},
		{"grid_mapping_name", p.GridMappingName},
		{"proj4_params", p.Proj4Params},
		{"EPSG_code", p.EPSGCode},
		{"projection_name", p.ProjectionName},
		{"wkt", p.WKT},
	} {
		if a.value != "" {
			out = append(out, a)
		}
	}
	return out
}

func parseProjectedCoordinateSystem(attrs map[string]string) (*ProjectedCoordinateSystem, error) {
	p := &ProjectedCoordinateSystem{
		Name:            attrs["name"],
		GridMappingName: attrs["grid_mapping_name"],
		Proj4Params:     attrs["proj4_params"],
		EPSGCode:        attrs["EPSG_code"],
		ProjectionName:  attrs["projection_name"],
		WKT:             attrs["wkt"],
		Attributes:      attrs,
	}
	if v, ok := attrs["epsg"]; ok && v != "" {
		n, err := strconv.ParseInt(firstField(v), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("epsg %q: %w", v, err)
		}
		p.EPSG = int32(n)
	}
	for key, dst := range map[string]*float64{
		"longitude_of_prime_meridian": &p.LongitudeOfPrimeMeridian,
		"semi_major_axis":             &p.SemiMajorAxis,
		"semi_minor_axis":             &p.SemiMinorAxis,
		"inverse_flattening":          &p.InverseFlattening,
	} {
		v, ok := attrs[key]
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(firstField(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", key, v, err)
		}
		*dst = f
	}
	return p, nil
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

// ProjectedCoordinateSystem returns the first coordinate system found among
// the known variable names. Candidates that cannot be read are skipped.
func (r *Reader) ProjectedCoordinateSystem() (*ProjectedCoordinateSystem, error) {
	const op = "ugrid.Reader.ProjectedCoordinateSystem"
	if err := r.checkOpen(op); err != nil {
		return nil, err
	}
	var last error
	for _, name := range pcsCandidates {
		attrs, err := r.variableAttributes(name, r.probe)
		if err != nil {
			r.logger.Debug().Str("variable", name).Err(err).Msg("coordinate system candidate skipped")
			last = err
			continue
		}
		return parseProjectedCoordinateSystem(attrs)
	}
	return nil, ugerrors.WrapNotFound(last, op,
		fmt.Sprintf("none of %s present", strings.Join(pcsCandidates, ", ")))
}

// EPSGCode returns the EPSG_code attribute of the coordinate system.
func (r *Reader) EPSGCode() (string, error) {
	pcs, err := r.ProjectedCoordinateSystem()
	if err != nil {
		return "", err
	}
	if pcs.EPSGCode == "" {
		return "", ugerrors.NewNotFound("ugrid.Reader.EPSGCode", "coordinate system has no EPSG_code")
	}
	return pcs.EPSGCode, nil
}

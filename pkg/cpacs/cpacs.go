// Package cpacs reads wing profile definitions from CPACS XML files.
//
// Only the profile library is read: every wingAirfoil element anywhere in
// the document yields one ProfileData, whose geometry is either a
// pointList or a cst2D child. The geometry child is decoded through a
// static table from element name to decoder.
package cpacs

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/profile"
)

// airfoilTag is the element holding one wing profile.
const airfoilTag = "wingAirfoil"

// ProfileData is one profile as read from the file, before any geometry
// is built.
type ProfileData struct {
	UID         string
	Name        string
	Description string
	Kind        profile.Kind
	Points      []v3.Vec
	CST         *profile.CST
}

// Build creates the profile described by d.
func (d ProfileData) Build(g kernel.Geometry, cfg config.Config, log logrus.FieldLogger) (*profile.Profile, error) {
	p := profile.New(g, d.UID,
		profile.WithConfig(cfg),
		profile.WithLogger(log),
		profile.WithName(d.Name),
	)
	var err error
	switch d.Kind {
	case profile.PointList:
		err = p.SetPoints(d.Points)
	case profile.CSTKind:
		if d.CST == nil {
			return nil, kernel.ValidationError{Field: "cst2D", Message: "profile " + d.UID + " has no CST parameters"}
		}
		err = p.SetCST(*d.CST)
	default:
		return nil, kernel.ValidationError{Field: airfoilTag, Message: "profile " + d.UID + " has no geometry"}
	}
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", d.UID, err)
	}
	return p, nil
}

// geometryDecoder fills d from the geometry element start.
type geometryDecoder func(dec *xml.Decoder, start *xml.StartElement, d *ProfileData) error

var geometryDecoders = map[string]geometryDecoder{
	"pointList": decodePointList,
	"cst2D":     decodeCST,
}

// Option configures ReadProfiles.
type Option func(*reader)

// WithLogger sets the logger for skipped elements.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *reader) {
		if log != nil {
			r.log = log
		}
	}
}

type reader struct {
	log logrus.FieldLogger
}

// ReadProfiles returns every wing profile in the document in file order.
func ReadProfiles(r io.Reader, opts ...Option) ([]ProfileData, error) {
	rd := &reader{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(rd)
	}
	dec := xml.NewDecoder(r)
	var out []ProfileData
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cpacs: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != airfoilTag {
			continue
		}
		d, err := rd.readAirfoil(dec, start)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}

func (rd *reader) readAirfoil(dec *xml.Decoder, start xml.StartElement) (ProfileData, error) {
	var d ProfileData
	for _, a := range start.Attr {
		if a.Name.Local == "uID" {
			d.UID = a.Value
		}
	}
	log := rd.log.WithField("profile", d.UID)
	for {
		tok, err := dec.Token()
		if err != nil {
			return d, fmt.Errorf("cpacs: profile %s: %w", d.UID, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if d.Kind == profile.Empty {
				return d, kernel.ValidationError{Field: airfoilTag, Message: "profile " + d.UID + " has neither pointList nor cst2D"}
			}
			return d, nil
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				err = dec.DecodeElement(&d.Name, &t)
			case "description":
				err = dec.DecodeElement(&d.Description, &t)
			default:
				decode, ok := geometryDecoders[t.Name.Local]
				if !ok {
					log.WithField("element", t.Name.Local).Debug("skipping unknown profile element")
					err = dec.Skip()
					break
				}
				err = decode(dec, &t, &d)
			}
			if err != nil {
				var verr kernel.ValidationError
				if errors.As(err, &verr) {
					verr.Message = "profile " + d.UID + ": " + verr.Message
					return d, verr
				}
				return d, fmt.Errorf("cpacs: profile %s: %w", d.UID, err)
			}
		}
	}
}

// vector is a CPACS semicolon separated list of numbers.
type vector string

func (v vector) floats(field string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(string(v), ";") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, kernel.ValidationError{Field: field, Message: fmt.Sprintf("bad number %q", f)}
		}
		out = append(out, x)
	}
	return out, nil
}

type pointListXML struct {
	X vector `xml:"x"`
	Y vector `xml:"y"`
	Z vector `xml:"z"`
}

func decodePointList(dec *xml.Decoder, start *xml.StartElement, d *ProfileData) error {
	var pl pointListXML
	if err := dec.DecodeElement(&pl, start); err != nil {
		return err
	}
	xs, err := pl.X.floats("x")
	if err != nil {
		return err
	}
	ys, err := pl.Y.floats("y")
	if err != nil {
		return err
	}
	zs, err := pl.Z.floats("z")
	if err != nil {
		return err
	}
	if len(xs) != len(ys) || len(xs) != len(zs) {
		return kernel.ValidationError{
			Field:   "pointList",
			Message: fmt.Sprintf("coordinate vectors differ in length: x %d, y %d, z %d", len(xs), len(ys), len(zs)),
		}
	}
	d.Points = make([]v3.Vec, len(xs))
	for i := range xs {
		d.Points[i] = v3.Vec{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	d.Kind = profile.PointList
	return nil
}

type cstXML struct {
	Psi         vector   `xml:"psi"`
	UpperN1     *float64 `xml:"upperN1"`
	UpperN2     *float64 `xml:"upperN2"`
	UpperB      vector   `xml:"upperB"`
	LowerN1     *float64 `xml:"lowerN1"`
	LowerN2     *float64 `xml:"lowerN2"`
	LowerB      vector   `xml:"lowerB"`
	TEThickness *float64 `xml:"trailingEdgeThickness"`
}

func decodeCST(dec *xml.Decoder, start *xml.StartElement, d *ProfileData) error {
	var c cstXML
	if err := dec.DecodeElement(&c, start); err != nil {
		return err
	}
	scalars := []struct {
		name string
		v    *float64
	}{
		{"upperN1", c.UpperN1}, {"upperN2", c.UpperN2},
		{"lowerN1", c.LowerN1}, {"lowerN2", c.LowerN2},
	}
	for _, s := range scalars {
		if s.v == nil {
			return kernel.ValidationError{Field: s.name, Message: "required element is missing"}
		}
	}
	psi, err := c.Psi.floats("psi")
	if err != nil {
		return err
	}
	for _, x := range psi {
		if x < 0 || x > 1 {
			return kernel.ValidationError{Field: "psi", Message: fmt.Sprintf("value %g outside [0, 1]", x)}
		}
	}
	upper, err := c.UpperB.floats("upperB")
	if err != nil {
		return err
	}
	lower, err := c.LowerB.floats("lowerB")
	if err != nil {
		return err
	}
	if len(upper) == 0 || len(lower) == 0 {
		return kernel.ValidationError{Field: "cst2D", Message: "upperB and lowerB are required"}
	}
	cst := &profile.CST{
		UpperN1: *c.UpperN1, UpperN2: *c.UpperN2, UpperB: upper,
		LowerN1: *c.LowerN1, LowerN2: *c.LowerN2, LowerB: lower,
		Psi: psi,
	}
	if c.TEThickness != nil {
		cst.TEThickness = *c.TEThickness
	}
	d.CST = cst
	d.Kind = profile.CSTKind
	return nil
}

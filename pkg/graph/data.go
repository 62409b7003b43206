package graph

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

// CSTData holds class/shape transformation coefficients.
type CSTData struct {
	UpperN1     float64   `json:"upper_n1"`
	UpperN2     float64   `json:"upper_n2"`
	UpperB      []float64 `json:"upper_b"`
	LowerN1     float64   `json:"lower_n1"`
	LowerN2     float64   `json:"lower_n2"`
	LowerB      []float64 `json:"lower_b"`
	Psi         []float64 `json:"psi,omitempty"`
	TEThickness float64   `json:"te_thickness,omitempty"`
}

// ProfileData is a wing profile given either as points in the xz plane or
// as CST coefficients. Exactly one of Points and CST is set.
type ProfileData struct {
	Points    []Vec3   `json:"points,omitempty"`
	CST       *CSTData `json:"cst,omitempty"`
	Algorithm string   `json:"algorithm,omitempty"` // "bspline" when empty
}

func (ProfileData) nodeData() {}

// ---------------------------------------------------------------------------
// Section
// ---------------------------------------------------------------------------

// SectionData places a profile: p' = Origin + Chord * RotY(Twist) * p.
// The profile is its only child.
type SectionData struct {
	Profile  NodeID  `json:"profile"`
	Origin   Vec3    `json:"origin"`
	Chord    float64 `json:"chord"`
	Twist    float64 `json:"twist,omitempty"`    // degrees about y
	Modifier string  `json:"modifier,omitempty"` // unmodified, sharp or blunt
}

func (SectionData) nodeData() {}

// ---------------------------------------------------------------------------
// Guide
// ---------------------------------------------------------------------------

// GuideData is a guide curve passing through the relative chord position
// Xsi on one side of every section of the network using it.
type GuideData struct {
	Xsi   float64 `json:"xsi"`
	Upper bool    `json:"upper"`
}

func (GuideData) nodeData() {}

// ---------------------------------------------------------------------------
// Network
// ---------------------------------------------------------------------------

// NetworkData fuses the sections (as profile curves) and guides into a
// patch network. Sections and guides are also the node's children.
type NetworkData struct {
	Sections []NodeID `json:"sections"`
	Guides   []NodeID `json:"guides"`
	Style    string   `json:"style,omitempty"` // coons, stretch or curved
	Sewing   *bool    `json:"sewing,omitempty"`
}

func (NetworkData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (wing, component).
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}

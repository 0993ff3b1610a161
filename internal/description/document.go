package description

import (
	"gopkg.in/yaml.v3"
)

const Version = 1

type Document struct {
	Version   int           `yaml:"version"`
	Databases []VariableDoc `yaml:"databases,omitempty"`
	Objects   []ObjectDoc   `yaml:"objects,omitempty"`
}

type ObjectDoc struct {
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type,omitempty"`
	UID       uint32        `yaml:"uid,omitempty"`
	Variables []VariableDoc `yaml:"variables,omitempty"`
	State     *StateDoc     `yaml:"state,omitempty"`
	Children  []ObjectDoc   `yaml:"children,omitempty"`

	Line int `yaml:"-"`
}

func (o *ObjectDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain ObjectDoc
	if err := n.Decode((*plain)(o)); err != nil {
		return err
	}
	o.Line = n.Line
	return nil
}

// StateDoc is expressed in the parent's frame. Time, orientation and angular
// velocity are only written for full-state saves.
type StateDoc struct {
	Time            *float64  `yaml:"time,omitempty"`
	Position        []float64 `yaml:"position,omitempty,flow"`
	Velocity        []float64 `yaml:"velocity,omitempty,flow"`
	Orientation     []float64 `yaml:"orientation,omitempty,flow"`
	AngularVelocity []float64 `yaml:"angular_velocity,omitempty,flow"`
}

type VariableDoc struct {
	Name string `yaml:"name"`
	// Type is only needed where the payload does not imply it, such as an
	// empty nested group.
	Type       string        `yaml:"type,omitempty"`
	Real       *float64      `yaml:"real,omitempty"`
	String     *string       `yaml:"string,omitempty"`
	Vector     []float64     `yaml:"vector,omitempty,flow"`
	Kind       string        `yaml:"kind,omitempty"`
	Quaternion []float64     `yaml:"quaternion,omitempty,flow"`
	Nested     []VariableDoc `yaml:"nested,omitempty"`
	Function   *FunctionDoc  `yaml:"function,omitempty"`
	Attributes []VariableDoc `yaml:"attributes,omitempty"`

	Line int `yaml:"-"`
}

func (v *VariableDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain VariableDoc
	if err := n.Decode((*plain)(v)); err != nil {
		return err
	}
	v.Line = n.Line
	return nil
}

// FunctionDoc holds samples as [x, value] pairs.
type FunctionDoc struct {
	Constant      float64      `yaml:"constant,omitempty"`
	Interpolation string       `yaml:"interpolation,omitempty"`
	Data1D        [][]float64  `yaml:"data1d,omitempty,flow"`
	Data2D        []CurveDoc   `yaml:"data2d,omitempty"`
	Data3D        []SurfaceDoc `yaml:"data3d,omitempty"`
}

type CurveDoc struct {
	Y    float64     `yaml:"y"`
	Data [][]float64 `yaml:"data,flow"`
}

type SurfaceDoc struct {
	Z      float64    `yaml:"z"`
	Data2D []CurveDoc `yaml:"data2d"`
}

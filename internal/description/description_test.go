package description

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/physics"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

const scene = `
version: 1
databases:
  - name: material
    nested:
      - name: aluminium
        nested:
          - {name: density, real: 2700}
          - name: conductivity
            function:
              interpolation: polynomial
              data1d: [[0, 200], [100, 237], [200, 240], [300, 250]]
            attributes:
              - {name: units, string: W/mK}
objects:
  - name: earth
    type: planet
    uid: 7
    variables:
      - {name: mu, real: 3.986004418e14}
      - {name: north, vector: [0, 0, 1], kind: direction}
      - {name: geometry, type: nested}
    children:
      - name: station
        type: point_mass
        state:
          position: [6.8e6, 0, 0]
          velocity: [0, 7656, 0]
        variables:
          - {name: attitude, quaternion: [1, 0, 0, 0]}
  - name: tank
    type: fuel_tank
    variables:
      - {name: fuel_mass, real: 100}
      - {name: flow_rate, real: 2}
      - {name: dry_mass, real: 10}
`

func newSystem(t *testing.T) *sim.System {
	t.Helper()
	sys := sim.New(sim.WithLogger(logging.Discard()))
	t.Cleanup(func() { sys.Close() })
	for _, s := range []sim.Solver{physics.NewPlanet(), physics.NewPointMass(), physics.NewFuelTank()} {
		require.NoError(t, sys.Register(s))
	}
	return sys
}

func TestLoadScene(t *testing.T) {
	sys := newSystem(t)
	var seen []string
	loaded, err := LoadString(sys, nil, scene, LoadOptions{
		Flags: BlockingInitialize,
		OnLoadObject: func(obj *sim.Object) error {
			name, _ := obj.Name()
			seen = append(seen, name)
			return nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, []string{"earth", "station", "tank"}, seen)
	require.NotNil(t, loaded.First)
	name, _ := loaded.First.Name()
	assert.Equal(t, "earth", name)
	assert.Len(t, loaded.Objects, 3)
	for _, o := range loaded.Objects {
		assert.True(t, o.IsInitialized())
	}

	earth, err := sys.ObjectByUID(7)
	require.NoError(t, err)
	assert.True(t, earth.Same(loaded.First))
	solver, _ := earth.Solver()
	require.NotNil(t, solver)
	assert.Equal(t, "planet", solver.Name())

	station, _, err := sys.QueryByReference(nil, "earth/station")
	require.NoError(t, err)
	st, err := station.State()
	require.NoError(t, err)
	assert.InDelta(t, 6.8e6, st.Position.X, 1e-6)
	assert.InDelta(t, 7656, st.Velocity.Y, 1e-9)

	density, err := sys.DatabaseEntry("material", "aluminium")
	require.NoError(t, err)
	d, err := density.Nested("density")
	require.NoError(t, err)
	x, _ := d.Real()
	assert.Equal(t, 2700.0, x)
	assert.Len(t, loaded.Databases, 1)
}

func TestSyntaxErrorsAreReportedPerElement(t *testing.T) {
	const doc = `version: 1
objects:
  - name: probe
    type: point_mass
    variables:
      - {name: twice, real: 1, string: "x"}
      - {name: short, vector: [1, 2]}
      - {name: odd, vector: [1, 2, 3], kind: sideways}
      - {name: fine, real: 2}
`
	sys := newSystem(t)
	var lines []int
	loaded, err := LoadString(sys, nil, doc, LoadOptions{
		Flags:         BlockingInitialize,
		OnSyntaxError: func(line int, msg string) { lines = append(lines, line) },
	})
	assert.ErrorIs(t, err, errcode.SyntaxError)
	assert.Equal(t, []int{6, 7, 8}, lines)

	require.NotNil(t, loaded.First)
	v, err := loaded.First.RealVariable("fine")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	_, err = loaded.First.Variable("twice")
	assert.ErrorIs(t, err, errcode.NotFound)
}

func TestMalformedYAML(t *testing.T) {
	sys := newSystem(t)
	var line int
	_, err := LoadString(sys, nil, "objects:\n  - name: [unclosed\n", LoadOptions{
		OnSyntaxError: func(l int, msg string) { line = l },
	})
	assert.ErrorIs(t, err, errcode.SyntaxError)
	assert.Positive(t, line)
	assert.Empty(t, sys.ObjectsByType("*"))
}

func TestLoadFlags(t *testing.T) {
	tests := []struct {
		name      string
		flags     LoadFlags
		objects   int
		databases int
	}{
		{"everything", BlockingInitialize, 3, 1},
		{"no objects", NoObjects, 0, 1},
		{"no databases", NoDatabases | BlockingInitialize, 3, 0},
		{"only first", OnlyFirst | BlockingInitialize, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newSystem(t)
			loaded, err := LoadString(sys, nil, scene, LoadOptions{Flags: tt.flags})
			require.NoError(t, err)
			assert.Len(t, loaded.Objects, tt.objects)
			assert.Len(t, sys.Databases(), tt.databases)
		})
	}
}

func TestDontInitialize(t *testing.T) {
	sys := newSystem(t)
	loaded, err := LoadString(sys, nil, scene, LoadOptions{Flags: DontInitialize})
	require.NoError(t, err)
	for _, o := range loaded.Objects {
		assert.Equal(t, sim.Created, o.Lifecycle())
		assert.True(t, o.Owns())
	}
	assert.Empty(t, sys.ObjectsByType("planet"))

	require.NoError(t, loaded.First.Initialize(true))
	assert.Len(t, sys.ObjectsByType("planet"), 1)
}

func TestMetadataObjects(t *testing.T) {
	const doc = `
objects:
  - {name: about, type: metadata, variables: [{name: author, string: ops}]}
  - {name: probe, type: point_mass}
`
	sys := newSystem(t)
	loaded, err := LoadString(sys, nil, doc, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)
	assert.Len(t, loaded.Objects, 1)

	sys = newSystem(t)
	loaded, err = LoadString(sys, nil, doc, LoadOptions{Flags: BlockingInitialize | LoadMetadata})
	require.NoError(t, err)
	assert.Len(t, loaded.Objects, 2)
	assert.Len(t, sys.ObjectsByType("metadata"), 1)
}

func TestOnLoadObjectAborts(t *testing.T) {
	sys := newSystem(t)
	_, err := LoadString(sys, nil, scene, LoadOptions{
		OnLoadObject: func(*sim.Object) error { return errcode.BadState },
	})
	assert.ErrorIs(t, err, errcode.BadState)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	sys := newSystem(t)
	_, err := LoadString(sys, nil, scene, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, SaveFile(path, sys.Root(), SaveOptions{Flags: SaveUIDs | SaveDatabases}))

	sys2 := newSystem(t)
	loaded, err := LoadFile(sys2, nil, path, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)
	assert.Len(t, loaded.Objects, 3)

	earth, err := sys2.ObjectByUID(7)
	require.NoError(t, err)
	mu, err := earth.RealVariable("mu")
	require.NoError(t, err)
	assert.Equal(t, 3.986004418e14, mu)

	north, err := earth.Variable("north")
	require.NoError(t, err)
	vec, err := north.Vector()
	require.NoError(t, err)
	assert.Equal(t, vecmath.Direction, vec.Kind)
	assert.Equal(t, 1.0, vec.Z)

	geometry, err := earth.Variable("geometry")
	require.NoError(t, err)
	assert.Equal(t, variable.Nested, geometry.Type())

	station, _, err := sys2.QueryByReference(nil, "earth/station")
	require.NoError(t, err)
	st, _ := station.State()
	assert.InDelta(t, 6.8e6, st.Position.X, 1e-6)
	attitude, err := station.Variable("attitude")
	require.NoError(t, err)
	assert.Equal(t, variable.Quaternion, attitude.Type())

	al, err := sys2.DatabaseEntry("material", "aluminium")
	require.NoError(t, err)
	k, err := al.Nested("conductivity")
	require.NoError(t, err)
	orig, _ := sys.DatabaseEntry("material", "aluminium")
	k0, _ := orig.Nested("conductivity")
	for _, x := range []float64{0, 50, 150, 275} {
		want, _ := k0.Evaluate(x, 0, 0)
		got, err := k.Evaluate(x, 0, 0)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "conductivity(%g)", x)
	}
	units, err := k.Attribute("units")
	require.NoError(t, err)
	s, _ := units.Text()
	assert.Equal(t, "W/mK", s)
}

func TestSaveWithoutUIDs(t *testing.T) {
	sys := newSystem(t)
	_, err := LoadString(sys, nil, scene, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)
	doc, err := Encode(sys.Root(), SaveOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Objects, 2)
	assert.Zero(t, doc.Objects[0].UID)
	assert.Empty(t, doc.Databases)
	assert.Nil(t, doc.Objects[1].State, "a resting tank has no state to write")
}

func TestFullState(t *testing.T) {
	sys := newSystem(t)
	_, err := LoadString(sys, nil, scene, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)
	tank, err := sys.ObjectByName(nil, "tank")
	require.NoError(t, err)
	require.NoError(t, tank.Solve(5))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, tank, SaveOptions{Flags: SaveFullState}))
	assert.Contains(t, buf.String(), "time:")
	assert.Contains(t, buf.String(), "orientation:")

	sys2 := newSystem(t)
	loaded, err := Load(sys2, nil, &buf, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)
	require.NoError(t, loaded.First.Solve(5))
	fuel, err := loaded.First.RealVariable("fuel_mass")
	require.NoError(t, err)
	assert.Equal(t, 80.0, fuel)
}

const patterned = `
objects:
  - name: rack
    type: modifier
    variables:
      - {name: count, real: 3}
      - {name: offset, vector: [10, 0, 0], kind: displacement}
    children:
      - name: box
        type: point_mass
        state: {position: [1, 0, 0]}
        variables:
          - {name: mass, real: 5}
`

func TestModifier(t *testing.T) {
	sys := newSystem(t)
	loaded, err := LoadString(sys, nil, patterned, LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)

	rack := loaded.First
	children, err := rack.Children()
	require.NoError(t, err)
	require.Len(t, children, 3)

	for i, want := range []struct {
		name string
		x    float64
	}{{"box", 1}, {"box.1", 11}, {"box.2", 21}} {
		name, _ := children[i].Name()
		assert.Equal(t, want.name, name)
		st, _ := children[i].State()
		assert.InDelta(t, want.x, st.Position.X, 1e-12, name)
		mass, err := children[i].RealVariable("mass")
		require.NoError(t, err)
		assert.Equal(t, 5.0, mass)
	}
	_, derived := children[2].Generated()
	assert.True(t, derived)

	doc, err := Encode(rack, SaveOptions{})
	require.NoError(t, err)
	assert.Len(t, doc.Objects[0].Children, 1)
	doc, err = Encode(rack, SaveOptions{Flags: SaveCopies})
	require.NoError(t, err)
	assert.Len(t, doc.Objects[0].Children, 3)
}

func TestSkipModifiers(t *testing.T) {
	sys := newSystem(t)
	loaded, err := LoadString(sys, nil, patterned, LoadOptions{Flags: BlockingInitialize | SkipModifiers})
	require.NoError(t, err)
	children, err := loaded.First.Children()
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

func TestLoadMissingFile(t *testing.T) {
	sys := newSystem(t)
	_, err := LoadFile(sys, nil, filepath.Join(t.TempDir(), "nope.yaml"), LoadOptions{})
	assert.ErrorIs(t, err, errcode.FileError)
}

func TestLoadUnderParent(t *testing.T) {
	sys := newSystem(t)
	host, err := sys.CreateNamed(nil, "", "host")
	require.NoError(t, err)
	require.NoError(t, host.Initialize(true))

	_, err = Load(sys, host, strings.NewReader(patterned), LoadOptions{Flags: BlockingInitialize})
	require.NoError(t, err)
	ref, err := sys.ObjectByName(host, "box.2")
	require.NoError(t, err)
	path, err := ref.Reference()
	require.NoError(t, err)
	assert.Equal(t, "host/rack/box.2", path)
}

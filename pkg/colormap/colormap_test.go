package colormap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imodkit/pkg/imod"
)

func TestDefaultCycles(t *testing.T) {
	c := Default()
	n := len(c.Colors)
	assert.Equal(t, c.Color(0), c.Color(n))
	assert.Equal(t, c.Color(n-1), c.Color(-1))
	assert.Equal(t, [3]float64{0, 255, 0}, c.Color(0))

	c.Colors[0] = [3]float64{1, 2, 3}
	assert.Equal(t, [3]float64{0, 255, 0}, Default().Color(0))
}

func TestParse(t *testing.T) {
	c, err := Parse("warm", strings.NewReader("255 0 0\n\n255 128 0\n"))
	require.NoError(t, err)
	assert.Equal(t, "warm", c.Name)
	assert.Len(t, c.Colors, 2)

	for _, bad := range []string{"", "1 2\n", "1 2 x\n", "1 2 300\n"} {
		_, err := Parse("bad", strings.NewReader(bad))
		assert.Error(t, err, bad)
	}
}

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.cmap")
	require.NoError(t, os.WriteFile(path, []byte("128 128 128\n"), 0644))

	c, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "gray", c.Name)

	c, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, c.Name)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.cmap"))
	require.Error(t, err)
}

func TestApplyAll(t *testing.T) {
	m := imod.NewModel()
	m.AddObject(imod.NewObject())
	m.AddObject(imod.NewObject())
	require.NoError(t, Default().ApplyAll(m))
	assert.Equal(t, [3]float32{0, 1, 0}, [3]float32{m.Objects[0].Red, m.Objects[0].Green, m.Objects[0].Blue})
	assert.Equal(t, [3]float32{0, 1, 1}, [3]float32{m.Objects[1].Red, m.Objects[1].Green, m.Objects[1].Blue})
}

func TestEmptyColormap(t *testing.T) {
	c := &Colormap{Name: "empty"}
	assert.Equal(t, [3]float64{}, c.Color(3))

	m := imod.NewModel()
	m.AddObject(imod.NewObject())
	require.Error(t, c.ApplyAll(m))
}

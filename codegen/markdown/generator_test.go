package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mavgen/binder"
	mavtest "github.com/teranos/mavgen/internal/testing"
)

func TestGenerateUnit(t *testing.T) {
	d := mavtest.Plan(t, mavtest.DefinitionsDir(t), "common.xml")
	unit, err := NewGenerator().GenerateUnit(d)
	require.NoError(t, err)
	assert.Equal(t, "common.md", unit.Path)
	assert.Equal(t, "common", unit.Dialect)

	src := string(unit.Content)
	assert.True(t, strings.HasPrefix(src, "<!-- Code generated by mavgen. DO NOT EDIT. -->\n"))
	assert.Contains(t, src, "# common\n")
	assert.Contains(t, src, "Source: `common.xml` · version 3 · dialect 0\n")
	assert.NotContains(t, src, "Includes:")

	assert.Contains(t, src, "### MAV_MODE_FLAG\n")
	assert.Contains(t, src, "Bitmask: values combine as flags.")
	assert.Contains(t, src, "| 12 | `MAV_AUTOPILOT_PX4` | PX4 Autopilot |\n")
	assert.Contains(t, src, "Param 1 (Arm): 0: disarm, 1: arm<br>Param 2 (Force)")

	assert.Contains(t, src, "### HEARTBEAT (0)\n")
	assert.Contains(t, src, "crc_extra `50` · payload 9 bytes\n")
	assert.Contains(t, src, "| 0 | `custom_mode` | `uint32_t` |")
	assert.Contains(t, src, "| 4 | `type` | `uint8_t` |  | `MAV_TYPE` |")
	assert.Contains(t, src, "crc_extra `83` · payload 51 to 54 bytes\n")
	assert.Contains(t, src, "| 51 | `id` (ext) | `uint16_t` |")
	assert.Contains(t, src, "| 4 | `roll` | `float` | rad |")
	assert.True(t, strings.HasSuffix(src, "|\n"), "single trailing newline")
}

func TestGenerateUnitIncludes(t *testing.T) {
	d := mavtest.Plan(t, mavtest.DefinitionsDir(t), "alpha.xml")
	unit, err := NewGenerator().GenerateUnit(d)
	require.NoError(t, err)
	assert.Contains(t, string(unit.Content), "Includes: `common.xml`\n")
}

func TestCellEscapesPipes(t *testing.T) {
	assert.Equal(t, `a \| b`, cell("a | b"))
}

func TestGenerateAggregate(t *testing.T) {
	agg, err := binder.Bind(mavtest.PlanAll(t))
	require.NoError(t, err)

	unit, err := NewGenerator().GenerateAggregate(agg)
	require.NoError(t, err)
	assert.Equal(t, "README.md", unit.Path)

	src := string(unit.Content)
	assert.Contains(t, src, "| [alpha](alpha.md) | `alpha.xml` |")
	assert.Contains(t, src, "| [common](common.md) | `common.xml` | 7 | 4 |\n")
	assert.Contains(t, src, "## Conflicting message ids\n")
	assert.Contains(t, src, "| 42 | alpha | `ALPHA_STATUS` |")
	assert.Contains(t, src, "| 42 | charlie | `CHARLIE_VECTOR` |")
	assert.NotContains(t, src, "| 0 | alpha | `HEARTBEAT`", "ids shared through an include do not conflict")
}

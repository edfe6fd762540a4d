// Package testing holds definition fixtures shared by the pipeline tests.
//
// The fixture set is a trimmed common.xml carrying real MAVLink messages
// (their crc_extra values are known) and two dialects that include it and
// both claim message id 42 for unrelated layouts.
package testing

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/model"
	"github.com/teranos/mavgen/schema"
)

// CommonXML is a subset of the upstream common dialect.
const CommonXML = `<?xml version="1.0"?>
<mavlink>
  <version>3</version>
  <dialect>0</dialect>
  <enums>
    <enum name="MAV_AUTOPILOT">
      <description>Micro air vehicle / autopilot classes.</description>
      <entry value="0" name="MAV_AUTOPILOT_GENERIC">
        <description>Generic autopilot, full support for everything</description>
      </entry>
      <entry value="3" name="MAV_AUTOPILOT_ARDUPILOTMEGA">
        <description>ArduPilot - Plane/Copter/Rover/Sub/Tracker</description>
      </entry>
      <entry value="12" name="MAV_AUTOPILOT_PX4">
        <description>PX4 Autopilot</description>
      </entry>
    </enum>
    <enum name="MAV_TYPE">
      <entry value="0" name="MAV_TYPE_GENERIC"/>
      <entry value="1" name="MAV_TYPE_FIXED_WING"/>
      <entry value="2" name="MAV_TYPE_QUADROTOR"/>
    </enum>
    <enum name="MAV_MODE_FLAG" bitmask="true">
      <description>These flags encode the MAV mode.</description>
      <entry value="1" name="MAV_MODE_FLAG_CUSTOM_MODE_ENABLED"/>
      <entry value="2**2" name="MAV_MODE_FLAG_AUTO_ENABLED"/>
      <entry value="128" name="MAV_MODE_FLAG_SAFETY_ARMED"/>
    </enum>
    <enum name="MAV_STATE">
      <entry value="0" name="MAV_STATE_UNINIT"/>
      <entry value="3" name="MAV_STATE_STANDBY"/>
      <entry value="4" name="MAV_STATE_ACTIVE"/>
    </enum>
    <enum name="MAV_SEVERITY">
      <entry value="0" name="MAV_SEVERITY_EMERGENCY"/>
      <entry value="6" name="MAV_SEVERITY_INFO"/>
    </enum>
    <enum name="MAV_PARAM_TYPE">
      <entry value="1" name="MAV_PARAM_TYPE_UINT8"/>
      <entry value="9" name="MAV_PARAM_TYPE_REAL32"/>
    </enum>
    <enum name="MAV_CMD">
      <entry value="400" name="MAV_CMD_COMPONENT_ARM_DISARM">
        <description>Arms / Disarms a component</description>
        <param index="1" label="Arm">0: disarm, 1: arm</param>
        <param index="2" label="Force">0: arm-disarm unless prevented by safety checks</param>
      </entry>
    </enum>
  </enums>
  <messages>
    <message id="0" name="HEARTBEAT">
      <description>The heartbeat message shows that a system or component is present and responding.</description>
      <field type="uint8_t" name="type" enum="MAV_TYPE">Vehicle or component type.</field>
      <field type="uint8_t" name="autopilot" enum="MAV_AUTOPILOT">Autopilot type / class.</field>
      <field type="uint8_t" name="base_mode" enum="MAV_MODE_FLAG" display="bitmask">System mode bitmap.</field>
      <field type="uint32_t" name="custom_mode">A bitfield for use for autopilot-specific flags</field>
      <field type="uint8_t" name="system_status" enum="MAV_STATE">System status flag.</field>
      <field type="uint8_t_mavlink_version" name="mavlink_version">MAVLink version, not writable by user</field>
    </message>
    <message id="22" name="PARAM_VALUE">
      <description>Emit the value of a onboard parameter.</description>
      <field type="char[16]" name="param_id">Onboard parameter id</field>
      <field type="float" name="param_value">Onboard parameter value</field>
      <field type="uint8_t" name="param_type" enum="MAV_PARAM_TYPE">Onboard parameter type.</field>
      <field type="uint16_t" name="param_count">Total number of onboard parameters</field>
      <field type="uint16_t" name="param_index">Index of this onboard parameter</field>
    </message>
    <message id="30" name="ATTITUDE">
      <description>The attitude in the aeronautical frame.</description>
      <field type="uint32_t" name="time_boot_ms" units="ms">Timestamp (time since system boot).</field>
      <field type="float" name="roll" units="rad">Roll angle (-pi..+pi)</field>
      <field type="float" name="pitch" units="rad">Pitch angle (-pi..+pi)</field>
      <field type="float" name="yaw" units="rad">Yaw angle (-pi..+pi)</field>
      <field type="float" name="rollspeed" units="rad/s">Roll angular speed</field>
      <field type="float" name="pitchspeed" units="rad/s">Pitch angular speed</field>
      <field type="float" name="yawspeed" units="rad/s">Yaw angular speed</field>
    </message>
    <message id="253" name="STATUSTEXT">
      <description>Status text message.</description>
      <field type="uint8_t" name="severity" enum="MAV_SEVERITY">Severity of status.</field>
      <field type="char[50]" name="text">Status text message, without null termination character</field>
      <extensions/>
      <field type="uint16_t" name="id">Unique (opaque) identifier for this statustext message.</field>
      <field type="uint8_t" name="chunk_seq">This chunk's sequence number; indexing is from zero.</field>
    </message>
  </messages>
</mavlink>
`

// AlphaXML includes common and defines id 42 as a status record, plus a
// message exercising every primitive kind.
const AlphaXML = `<?xml version="1.0"?>
<mavlink>
  <include>common.xml</include>
  <dialect>1</dialect>
  <enums>
    <enum name="ALPHA_MODE">
      <entry name="ALPHA_MODE_IDLE"/>
      <entry name="ALPHA_MODE_RUN"/>
      <entry value="0x10" name="ALPHA_MODE_FAULT"/>
    </enum>
    <enum name="MAV_STATE">
      <entry value="4" name="MAV_STATE_ACTIVE"/>
      <entry value="9" name="MAV_STATE_ALPHA_HOLD"/>
    </enum>
  </enums>
  <messages>
    <message id="42" name="ALPHA_STATUS">
      <description>Alpha status.</description>
      <field type="uint32_t" name="time_ms" units="ms">Time.</field>
      <field type="uint8_t" name="mode" enum="ALPHA_MODE">Mode.</field>
      <field type="uint8_t" name="state" enum="MAV_STATE">State.</field>
    </message>
    <message id="43" name="ALPHA_KINDS">
      <description>Every wire primitive.</description>
      <field type="int8_t" name="i8">i8</field>
      <field type="uint8_t" name="u8">u8</field>
      <field type="int16_t" name="i16">i16</field>
      <field type="uint16_t" name="u16">u16</field>
      <field type="int32_t" name="i32">i32</field>
      <field type="uint32_t" name="u32">u32</field>
      <field type="int64_t" name="i64">i64</field>
      <field type="uint64_t" name="u64">u64</field>
      <field type="float" name="f32">f32</field>
      <field type="double" name="f64">f64</field>
      <field type="char[8]" name="label">label</field>
      <field type="int16_t[3]" name="samples">samples</field>
      <field type="float[2]" name="pair">pair</field>
      <extensions/>
      <field type="uint8_t" name="ext_u8">ext_u8</field>
      <field type="double" name="ext_f64">ext_f64</field>
      <field type="uint32_t[2]" name="ext_words">ext_words</field>
      <field type="char[4]" name="ext_tag">ext_tag</field>
    </message>
  </messages>
</mavlink>
`

// CharlieXML includes common and defines id 42 as a vector sample.
const CharlieXML = `<?xml version="1.0"?>
<mavlink>
  <include>common.xml</include>
  <dialect>2</dialect>
  <messages>
    <message id="42" name="CHARLIE_VECTOR">
      <description>Charlie vector sample.</description>
      <field type="float" name="x">x</field>
      <field type="float" name="y">y</field>
      <field type="float" name="z">z</field>
      <field type="int16_t[4]" name="raw">raw</field>
      <extensions/>
      <field type="uint8_t" name="flags">flags</field>
    </message>
  </messages>
</mavlink>
`

// Fixtures returns the fixture definition files by file name.
func Fixtures() map[string]string {
	return map[string]string{
		"common.xml":  CommonXML,
		"alpha.xml":   AlphaXML,
		"charlie.xml": CharlieXML,
	}
}

// WriteDefinitions writes docs into dir, creating it if needed.
func WriteDefinitions(t *testing.T, dir string, docs map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, doc := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
	}
}

// DefinitionsDir writes the fixture set into a fresh temp dir.
func DefinitionsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteDefinitions(t, dir, Fixtures())
	return dir
}

// Plan resolves, builds and lays out the dialect rooted at dir/root.
func Plan(t *testing.T, dir, root string) *layout.Dialect {
	t.Helper()
	g, err := schema.ResolveIncludes(filepath.Join(dir, root), dir)
	require.NoError(t, err)
	set, err := model.Build(g)
	require.NoError(t, err)
	d, err := layout.Plan(set)
	require.NoError(t, err)
	return d
}

// PlanAll plans every fixture dialect, sorted by name.
func PlanAll(t *testing.T) []*layout.Dialect {
	t.Helper()
	dir := DefinitionsDir(t)
	names := make([]string, 0, len(Fixtures()))
	for name := range Fixtures() {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*layout.Dialect, 0, len(names))
	for _, name := range names {
		out = append(out, Plan(t, dir, name))
	}
	return out
}

package utils

import "sort"

// SignalDef describes one scaled quantity inside a frame payload. Raw bits
// map to physical units as raw*Factor + Offset; Min/Max bound the physical
// value before quantization.
type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string // only "little" supported
}

// FrameDef is one bus frame; Direction is "rx" or "tx" from the loop's point
// of view, and CycleMS paces the control loop for the tx command frame.
type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string
	CycleMS   int
	Signals   []SignalDef
}

type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Frame and signal names used by the lateral control loop.
const (
	FrameVehicleState   = "VEHICLE_STATE"
	FrameRoadPose       = "ROAD_POSE"
	FrameSteerTorqueCmd = "STEER_TORQUE_CMD"

	SigWheelSpeed  = "WHEEL_SPEED_MPS"
	SigAccel       = "ACCEL_MPS2"
	SigSteerAngle  = "STEER_ANGLE_DEG"
	SigSteerRate   = "STEER_RATE_DEG_S"
	SigRollRad     = "ROLL_RAD"
	SigPitchRad    = "PITCH_RAD"
	SigPoseValid   = "POSE_VALID"
	SigSteerTorque = "STEER_TORQUE"
	SigLKAActive   = "LKA_ACTIVE"
	SigCounter     = "COUNTER"
)

// DefaultLateralCANMap returns the built-in signal map for the lateral loop.
// A can_map.csv on the command line overrides it; the frame and signal names
// must then match the constants above.
func DefaultLateralCANMap() *CANMap {
	frames := []*FrameDef{
		{
			ID: 0x2A0, Name: FrameVehicleState, DLC: 8, Direction: "rx", CycleMS: 10,
			Signals: []SignalDef{
				{Name: SigWheelSpeed, StartBit: 0, BitLength: 16, Factor: 0.01, Min: 0, Max: 120, Unit: "m/s", Endianness: "little"},
				{Name: SigAccel, StartBit: 16, BitLength: 16, Signed: true, Factor: 0.001, Min: -20, Max: 20, Unit: "m/s^2", Endianness: "little"},
				{Name: SigSteerAngle, StartBit: 32, BitLength: 16, Signed: true, Factor: 0.02, Min: -600, Max: 600, Unit: "deg", Endianness: "little"},
				{Name: SigSteerRate, StartBit: 48, BitLength: 16, Signed: true, Factor: 0.05, Min: -1000, Max: 1000, Unit: "deg/s", Endianness: "little"},
			},
		},
		{
			ID: 0x2A8, Name: FrameRoadPose, DLC: 5, Direction: "rx", CycleMS: 20,
			Signals: []SignalDef{
				{Name: SigRollRad, StartBit: 0, BitLength: 16, Signed: true, Factor: 0.0001, Min: -0.5, Max: 0.5, Unit: "rad", Endianness: "little"},
				{Name: SigPitchRad, StartBit: 16, BitLength: 16, Signed: true, Factor: 0.0001, Min: -0.5, Max: 0.5, Unit: "rad", Endianness: "little"},
				{Name: SigPoseValid, StartBit: 32, BitLength: 1, Factor: 1, Max: 1, Endianness: "little"},
			},
		},
		{
			ID: 0x1A0, Name: FrameSteerTorqueCmd, DLC: 3, Direction: "tx", CycleMS: 10,
			Signals: []SignalDef{
				{Name: SigSteerTorque, StartBit: 0, BitLength: 16, Signed: true, Factor: 0.0001, Min: -3, Max: 3, Endianness: "little"},
				{Name: SigLKAActive, StartBit: 16, BitLength: 1, Factor: 1, Max: 1, Endianness: "little"},
				{Name: SigCounter, StartBit: 17, BitLength: 4, Factor: 1, Max: 15, Endianness: "little"},
			},
		},
	}

	m := &CANMap{
		ByID:   make(map[uint32]*FrameDef, len(frames)),
		ByName: make(map[string]*FrameDef, len(frames)),
	}
	for _, fd := range frames {
		m.ByID[fd.ID] = fd
		m.ByName[fd.Name] = fd
	}
	return m
}

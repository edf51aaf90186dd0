package main

import (
	"context"
	"fmt"
	"math"
	"time"

	control "lateral-torque-core/lateral_loop/lateral_control"
	"lateral-torque-core/nnff"
	"lateral-torque-core/recorder"
	"lateral-torque-core/telemetry"
	"lateral-torque-core/utils"
)

// Low speed shaping for the tracking pair. Below these speeds lateral
// acceleration vanishes, so a curvature term scaled by this factor squared
// takes over the error signal.
var (
	lowSpeedBP     = []float64{0.0, 10.0, 15.0, 30.0}
	lowSpeedModelV = []float64{12.0, 3.0, 1.0, 0.0}
	lowSpeedStockV = []float64{15.0, 13.0, 10.0, 5.0}
)

// telemetryEvery decimates cycle reports so a 100 Hz loop publishes at 10 Hz.
const telemetryEvery = 10

type RunnerConfig struct {
	Interface    string
	ParamsPath   string
	MapPath      string
	ScenarioPath string
	DBPath       string
	MQTTBroker   string
}

type Runner struct {
	cfg    RunnerConfig
	log    *utils.Logger
	params *utils.CarParams
	cmap   *utils.CANMap
	scen   Scenario
	writer utils.CANWriter
	reader utils.CANReader
	txFD   *utils.FrameDef

	stateID uint32
	poseID  uint32
	hasPose bool

	ctrl         *control.Controller
	vm           *control.BicycleModel
	pid          *control.LatTorqueController
	tparams      control.TorqueParams
	horizonTimes []float64
	lowSpeedV    []float64

	modelName  string
	modelScore float64
	rec        *recorder.Recorder
	pub        *telemetry.Publisher
}

// roadPose is one decoded ROAD_POSE frame.
type roadPose struct {
	RollRad  float64
	PitchRad float64
	Valid    bool
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	params, err := utils.LoadCarParams(cfg.ParamsPath)
	if err != nil {
		return nil, fmt.Errorf("load car params: %w", err)
	}

	cmap := utils.DefaultLateralCANMap()
	if cfg.MapPath != "" {
		cmap, err = utils.LoadCANMap(cfg.MapPath)
		if err != nil {
			return nil, fmt.Errorf("load can map: %w", err)
		}
	}

	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	txFD, err := cmap.FrameByName(utils.FrameSteerTorqueCmd)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	if txFD.CycleMS <= 0 {
		return nil, fmt.Errorf("frame %s has invalid cycle_ms %d", txFD.Name, txFD.CycleMS)
	}
	stateFD, err := cmap.FrameByName(utils.FrameVehicleState)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}

	r := &Runner{
		cfg:     cfg,
		log:     log,
		params:  params,
		cmap:    cmap,
		scen:    scen,
		txFD:    txFD,
		stateID: stateFD.ID,
	}
	if poseFD, err := cmap.FrameByName(utils.FrameRoadPose); err == nil {
		r.poseID = poseFD.ID
		r.hasPose = true
	} else {
		log.Warn("No %s frame in CAN map; road attitude comes from the scenario", utils.FrameRoadPose)
	}

	ctrlCfg := control.DefaultConfig()
	ctrlCfg.CycleDtS = float64(txFD.CycleMS) / 1000.0
	ctrlCfg.SteerActuatorDelayS = params.Steering.ActuatorDelayS
	ctrlCfg.UseLateralJerk = params.Capabilities.LateralJerk
	ctrlCfg.UseSteeringAngle = params.Steering.UseSteeringAngle

	var model control.TorqueModel
	if params.Capabilities.NeuralFeedforward {
		store := nnff.NewStore(params.Models.Dir)
		match, err := store.FindModel(params.Car.Fingerprint, params.Car.EPSFirmware)
		if err != nil {
			return nil, fmt.Errorf("model store: %w", err)
		}
		if match == nil {
			log.Warn("No torque model matches %s; using the analytic feedforward", params.Car.Fingerprint)
		} else {
			m, err := nnff.LoadModel(match.Path)
			if err != nil {
				return nil, fmt.Errorf("load torque model: %w", err)
			}
			featureLen := 4 + 2*(len(ctrlCfg.PastTimesS)+len(ctrlCfg.FutureTimesS))
			if m.InputSize() < featureLen {
				return nil, fmt.Errorf("torque model %s takes %d inputs, need %d", m.Name(), m.InputSize(), featureLen)
			}
			model = m
			ctrlCfg.UseTorqueModel = true
			ctrlCfg.ModelFrictionOverride = m.FrictionOverride()
			r.modelName = m.Name()
			r.modelScore = match.Similarity
			matchKind := "fuzzy"
			if match.Exact {
				matchKind = "exact"
			}
			log.Info("Torque model loaded: %s (match=%s score=%.3f friction_override=%v)",
				m.Name(), matchKind, match.Similarity, ctrlCfg.ModelFrictionOverride)
		}
	}

	r.tparams = control.TorqueParams{
		LatAccelFactor: params.Steering.LatAccelFactor,
		Friction:       params.Steering.Friction,
	}

	ctrl, err := control.NewController(ctrlCfg, model, r.tparams)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	r.ctrl = ctrl

	vm, err := control.NewBicycleModel(control.VehicleParams{
		MassKg:             params.Car.MassKg,
		WheelbaseM:         params.Car.WheelbaseM,
		CenterToFrontM:     params.Car.CenterToFrontM,
		SteerRatio:         params.Car.SteerRatio,
		TireStiffnessFront: params.Car.TireStiffnessFront,
		TireStiffnessRear:  params.Car.TireStiffnessRear,
	})
	if err != nil {
		return nil, fmt.Errorf("vehicle model: %w", err)
	}
	r.vm = vm

	r.pid = control.NewLatTorqueController(control.LatPIDConfig{
		Kp:            params.PID.Kp,
		Ki:            params.PID.Ki,
		Kd:            params.PID.Kd,
		MaxTorque:     params.Steering.MaxTorque,
		IntegralLimit: params.PID.IntegralLimit,
	})

	r.horizonTimes = control.HorizonTimes()
	r.lowSpeedV = lowSpeedStockV
	if ctrl.Mode() == control.ModeNeuralFeedforward {
		r.lowSpeedV = lowSpeedModelV
	}

	writer, err := utils.NewSocketCANWriter(ctx, cfg.Interface)
	if err != nil {
		return nil, err
	}
	r.writer = writer

	reader, err := utils.NewSocketCANReader(ctx, cfg.Interface)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.reader = reader

	if cfg.DBPath != "" {
		rec, err := recorder.Open(cfg.DBPath, params.Car.Name)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open recorder: %w", err)
		}
		r.rec = rec
		log.Info("Recording drive log to %s session=%s", cfg.DBPath, rec.SessionID())
	}

	if cfg.MQTTBroker != "" {
		pub, err := telemetry.Connect(cfg.MQTTBroker, "lateral-loop")
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		r.pub = pub
		status := telemetry.StatusReport{
			Car:        params.Car.Name,
			Mode:       ctrl.Mode().String(),
			Model:      r.modelName,
			ModelScore: r.modelScore,
		}
		if r.rec != nil {
			status.SessionID = r.rec.SessionID()
		}
		if err := pub.PublishStatus(status); err != nil {
			log.Warn("Publish status: %v", err)
		}
	}

	return r, nil
}

func (r *Runner) Close() {
	if r.pub != nil {
		r.pub.Close()
	}
	if r.rec != nil {
		if err := r.rec.Close(); err != nil {
			r.log.Error("Close recorder: %v", err)
		}
	}
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting control loop: frame=%s id=0x%X dlc=%d cycle_ms=%d iface=%s scenario=%s duration=%.2fs mode=%s",
		r.txFD.Name, r.txFD.ID, r.txFD.DLC, r.txFD.CycleMS, r.cfg.Interface,
		r.scen.Meta.Name, r.scen.Timing.DurationS, r.ctrl.Mode())

	start := time.Now()
	ticker := time.NewTicker(time.Duration(r.txFD.CycleMS) * time.Millisecond)
	defer ticker.Stop()

	endAfter := time.Duration(r.scen.Timing.DurationS * float64(time.Second))
	dt := float64(r.txFD.CycleMS) / 1000.0

	logEvery := uint64(1)
	if r.scen.Timing.LogHz > 0 {
		if n := uint64(1000.0 / (float64(r.txFD.CycleMS) * r.scen.Timing.LogHz)); n > 1 {
			logEvery = n
		}
	}

	var sent uint64
	var state control.VehicleState
	var lastPose roadPose
	lastStateAt := time.Now()
	var lastPoseAt time.Time

	stateChan := make(chan control.VehicleState, 100)
	poseChan := make(chan roadPose, 100)
	go r.receiveLoop(ctx, stateChan, poseChan)

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping control loop")
			r.log.Info("Completed control loop. frames_sent=%d", sent)
			return ctx.Err()

		case st := <-stateChan:
			state = st
			lastStateAt = time.Now()

		case p := <-poseChan:
			lastPose = p
			lastPoseAt = time.Now()

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > endAfter {
				r.log.Info("Completed control loop. frames_sent=%d", sent)
				return nil
			}
			t := elapsed.Seconds()

			if age := now.Sub(lastStateAt); age > 500*time.Millisecond && sent%logEvery == 0 {
				r.log.Warn("No vehicle state for %.0f ms; holding last sample", age.Seconds()*1000)
			}

			// Road attitude: measured pose when fresh, scenario profile otherwise.
			roll := r.scen.RollAt(t)
			calibrated := control.CalibratedPose{PitchRad: r.scen.PitchAt(t), Valid: true}
			if !lastPoseAt.IsZero() && now.Sub(lastPoseAt) < 500*time.Millisecond {
				roll = lastPose.RollRad
				calibrated = control.CalibratedPose{PitchRad: lastPose.PitchRad, Valid: lastPose.Valid}
			}

			desired := r.scen.LatAccelAt(t)
			r.ctrl.SetTrajectory(r.scen.SampleTrajectory(t, r.horizonTimes))
			r.ctrl.UpdateLateralJerk(state, r.vm, desired)

			v := state.VEgoMPS
			actualCurv := -r.vm.CalcCurvature(state.SteeringAngleDeg*math.Pi/180.0, v, roll)
			actualLatAccel := actualCurv * v * v
			desiredCurv := desired / math.Max(v*v, 1.0)
			lsf := control.Interp(v, lowSpeedBP, r.lowSpeedV)
			lsf *= lsf
			setpoint := desired + lsf*desiredCurv
			measurement := actualLatAccel + lsf*actualCurv
			deadzone := r.params.Steering.LatAccelDeadzone

			var tlog control.TorqueLog
			var ff float64
			if r.ctrl.Mode() == control.ModeNeuralFeedforward && r.ctrl.TrajectoryValid() {
				ff = r.ctrl.UpdateFeedforward(control.FeedforwardRequest{
					State:            state,
					RoadRollRad:      roll,
					Pose:             calibrated,
					DesiredLatAccel:  desired,
					Setpoint:         setpoint,
					Measurement:      measurement,
					LatAccelDeadzone: deadzone,
				}, &tlog)
			} else {
				frictionInput := setpoint - measurement
				if r.ctrl.Mode() == control.ModeLateralJerk {
					frictionInput = r.ctrl.StockLateralJerkFriction(setpoint - measurement)
				}
				rollComp := control.LateralAccelRollCompensation(roll)
				inputs := control.LatControlInputs{
					RollCompensation: rollComp,
					VEgoMPS:          v,
					AEgoMPS2:         state.AEgoMPS2,
				}

				inputs.LatAccelMPS2 = setpoint
				tlog.TorqueFromSetpoint = control.TorqueFromLateralAccelLinear(inputs, r.tparams, setpoint, deadzone, false, false)
				inputs.LatAccelMPS2 = measurement
				tlog.TorqueFromMeasurement = control.TorqueFromLateralAccelLinear(inputs, r.tparams, measurement, deadzone, false, false)
				tlog.Error = tlog.TorqueFromSetpoint - tlog.TorqueFromMeasurement

				inputs.LatAccelMPS2 = desired - rollComp
				ff = control.TorqueFromLateralAccelLinear(inputs, r.tparams, frictionInput, deadzone, true, true)
			}

			torque := r.pid.Update(tlog.Error, ff, dt)
			active := r.ctrl.TrajectoryValid()

			frame, err := r.cmap.TxFrame(utils.FrameSteerTorqueCmd, map[string]float64{
				utils.SigSteerTorque: torque,
				utils.SigLKAActive:   control.BoolToFloat(active),
				utils.SigCounter:     float64(sent % 16),
			})
			if err != nil {
				r.log.Error("Encode failed at t=%.3f: %v", t, err)
				return err
			}
			if err := r.writer.WriteFrame(ctx, frame); err != nil {
				r.log.Critical("Transmit failed at t=%.3f: %v", t, err)
				return err
			}
			sent++

			if r.rec != nil {
				if err := r.rec.Record(recorder.Sample{
					TMono:            t,
					VEgoMPS:          v,
					AEgoMPS2:         state.AEgoMPS2,
					SteeringAngleDeg: state.SteeringAngleDeg,
					RollRad:          roll,
					DesiredLatAccel:  desired,
					ActualLatAccel:   actualLatAccel,
					LookaheadJerk:    r.ctrl.Jerk().Lookahead,
					Feedforward:      ff,
					TorqueCmd:        torque,
					Saturated:        r.pid.Saturated(),
				}); err != nil {
					r.log.Error("Record sample: %v", err)
				}
			}

			if r.pub != nil && sent%telemetryEvery == 0 {
				if err := r.pub.PublishCycle(telemetry.CycleReport{
					TMono:           t,
					VEgoMPS:         v,
					Mode:            r.ctrl.Mode().String(),
					DesiredLatAccel: desired,
					ActualLatAccel:  actualLatAccel,
					LookaheadJerk:   r.ctrl.Jerk().Lookahead,
					Feedforward:     ff,
					TorqueCmd:       torque,
					Saturated:       r.pid.Saturated(),
				}); err != nil {
					r.log.Warn("Publish cycle: %v", err)
				}
			}

			if sent%logEvery == 0 {
				diag := r.ctrl.GetDiagnostics()
				r.log.Debug("t=%.2f v=%.2f desired=%.2f actual=%.2f jerk=%.2f ff=%.3f err=%.3f torque=%.3f sat=%v",
					t, v, desired, actualLatAccel, diag.LookaheadJerk, ff, tlog.Error, torque, r.pid.Saturated())
			}
			r.log.Trace("TX t=%.3f id=0x%X len=%d data=% X torque=%.4f", t, frame.ID, frame.Length, frame.Data[:frame.Length], torque)
		}
	}
}

// receiveLoop reads bus frames and feeds decoded vehicle state and road pose
// to the control loop. Channel sends never block; readings arriving faster
// than the loop drains them are dropped.
func (r *Runner) receiveLoop(ctx context.Context, states chan<- control.VehicleState, poses chan<- roadPose) {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Error("RX error: %v", err)
			continue
		}

		switch {
		case frame.ID == r.stateID:
			vals, err := r.cmap.DecodeFrame(frame.ID, frame.Data[:frame.Length])
			if err != nil {
				r.log.Error("RX decode 0x%X: %v", frame.ID, err)
				continue
			}
			st := control.VehicleState{
				VEgoMPS:          vals[utils.SigWheelSpeed],
				AEgoMPS2:         vals[utils.SigAccel],
				SteeringAngleDeg: vals[utils.SigSteerAngle],
				SteeringRateDegS: vals[utils.SigSteerRate],
			}
			select {
			case states <- st:
			default:
			}

		case r.hasPose && frame.ID == r.poseID:
			vals, err := r.cmap.DecodeFrame(frame.ID, frame.Data[:frame.Length])
			if err != nil {
				r.log.Error("RX decode 0x%X: %v", frame.ID, err)
				continue
			}
			p := roadPose{
				RollRad:  vals[utils.SigRollRad],
				PitchRad: vals[utils.SigPitchRad],
				Valid:    vals[utils.SigPoseValid] > 0.5,
			}
			select {
			case poses <- p:
			default:
			}
		}

		r.log.Trace("RX id=0x%X len=%d data=% X", frame.ID, frame.Length, frame.Data[:frame.Length])
	}
}

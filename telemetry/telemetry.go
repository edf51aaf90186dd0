// Package telemetry publishes lateral control diagnostics over MQTT for
// live tuning dashboards.
package telemetry

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	TopicCycle  = "lateral/cycle"
	TopicStatus = "lateral/status"
)

// CycleReport is the per-cycle diagnostics payload.
type CycleReport struct {
	TMono           float64 `json:"t_mono"`
	VEgoMPS         float64 `json:"v_ego_mps"`
	Mode            string  `json:"mode"`
	DesiredLatAccel float64 `json:"desired_lat_accel"`
	ActualLatAccel  float64 `json:"actual_lat_accel"`
	LookaheadJerk   float64 `json:"lookahead_jerk"`
	Feedforward     float64 `json:"feedforward"`
	TorqueCmd       float64 `json:"torque_cmd"`
	Saturated       bool    `json:"saturated"`
}

// StatusReport announces the session and the resolved torque model.
type StatusReport struct {
	Car        string  `json:"car"`
	Mode       string  `json:"mode"`
	Model      string  `json:"model,omitempty"`
	ModelScore float64 `json:"model_score,omitempty"`
	SessionID  string  `json:"session_id,omitempty"`
}

// Publisher wraps the MQTT client used for diagnostics.
type Publisher struct {
	client mqtt.Client
}

// Connect dials the broker and returns a ready publisher.
func Connect(broker, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{client: client}, nil
}

// PublishCycle sends one cycle report at QoS 0, unretained.
func (p *Publisher) PublishCycle(r CycleReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal cycle report: %w", err)
	}
	if token := p.client.Publish(TopicCycle, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish cycle: %w", token.Error())
	}
	return nil
}

// PublishStatus sends the retained session status.
func (p *Publisher) PublishStatus(r StatusReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal status report: %w", err)
	}
	if token := p.client.Publish(TopicStatus, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish status: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

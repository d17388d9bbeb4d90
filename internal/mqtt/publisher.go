package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nugget/lifeboard/internal/buildinfo"
	"github.com/nugget/lifeboard/internal/config"
	"github.com/nugget/lifeboard/internal/dashboard"
	"github.com/nugget/lifeboard/internal/events"
)

// TodaySource provides the day view the sensors report.
// *dashboard.Controller satisfies it.
type TodaySource interface {
	Today() dashboard.Today
}

// Publisher manages the MQTT connection, publishes HA discovery config
// messages on (re-)connect, and pushes sensor states periodically and
// on every document change.
type Publisher struct {
	cfg        config.MQTTConfig
	instanceID string
	device     DeviceInfo
	source     TodaySource
	bus        *events.Bus
	logger     *slog.Logger
	cm         *autopaho.ConnectionManager
}

// New creates a Publisher but does not connect. Call [Publisher.Start]
// to begin the connection and publish loop. bus may be nil, in which
// case states are only published on the interval.
func New(cfg config.MQTTConfig, instanceID string, source TodaySource, bus *events.Bus, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		cfg:        cfg,
		instanceID: instanceID,
		device:     NewDeviceInfo(instanceID, cfg.DeviceName),
		source:     source,
		bus:        bus,
		logger:     logger,
	}
}

// Start connects to the MQTT broker and runs the publish loop. It blocks
// until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(p.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: p.cfg.Username,
		ConnectPassword: []byte(p.cfg.Password),
		WillMessage: &paho.WillMessage{
			Topic:   p.availabilityTopic(),
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			p.logger.Info("mqtt connected to broker", "broker", p.cfg.Broker)
			p.publishDiscovery(ctx, cm)
			p.publishAvailability(ctx, cm, "online")
			p.publishStates(ctx, cm)
		},
		OnConnectError: func(err error) {
			p.logger.Warn("mqtt connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "lifeboard-" + p.cfg.DeviceName,
		},
	}

	// Enable TLS for mqtts:// or ssl:// schemes.
	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	p.cm = cm

	connCtx, connCancel := context.WithTimeout(ctx, 30*time.Second)
	defer connCancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying in the background.
		p.logger.Warn("mqtt initial connection timed out, will retry in background", "error", err)
	}

	p.runLoop(ctx)
	return nil
}

// Stop publishes "offline" and disconnects.
func (p *Publisher) Stop(ctx context.Context) error {
	if p.cm == nil {
		return nil
	}
	p.publishAvailability(ctx, p.cm, "offline")
	return p.cm.Disconnect(ctx)
}

// --- Topic helpers ---

func (p *Publisher) baseTopic() string {
	return "lifeboard/" + p.cfg.DeviceName
}

func (p *Publisher) availabilityTopic() string {
	return p.baseTopic() + "/availability"
}

func (p *Publisher) stateTopic(entity string) string {
	return p.baseTopic() + "/" + entity + "/state"
}

func (p *Publisher) discoveryTopic(component, entity string) string {
	return p.cfg.DiscoveryPrefix + "/" + component + "/" + p.cfg.DeviceName + "/" + entity + "/config"
}

// --- Discovery ---

type sensorDef struct {
	entitySuffix string
	config       SensorConfig
}

func (p *Publisher) sensor(entity, name, icon string) SensorConfig {
	return SensorConfig{
		Name:              name,
		ObjectID:          entity,
		HasEntityName:     true,
		UniqueID:          p.instanceID + "_" + entity,
		StateTopic:        p.stateTopic(entity),
		AvailabilityTopic: p.availabilityTopic(),
		Device:            p.device,
		Icon:              icon,
	}
}

func (p *Publisher) sensorDefinitions() []sensorDef {
	dayStatus := p.sensor("day_status", "Day Status", "mdi:traffic-light")
	dayStatus.DeviceClass = "enum"

	bills := p.sensor("bills_due_7d", "Bills Due 7d", "mdi:cash-clock")
	bills.UnitOfMeasurement = "USD"
	bills.DeviceClass = "monetary"
	bills.StateClass = "total"

	unread := p.sensor("unread_messages", "Unread Messages", "mdi:message-badge")
	unread.StateClass = "measurement"

	open := p.sensor("open_tasks", "Open Tasks", "mdi:clipboard-list")
	open.StateClass = "measurement"

	version := p.sensor("version", "Version", "mdi:tag")
	version.EntityCategory = "diagnostic"

	uptime := p.sensor("uptime", "Uptime", "mdi:clock-outline")
	uptime.EntityCategory = "diagnostic"

	return []sensorDef{
		{"day_status", dayStatus},
		{"bills_due_7d", bills},
		{"unread_messages", unread},
		{"open_tasks", open},
		{"version", version},
		{"uptime", uptime},
	}
}

func (p *Publisher) publishDiscovery(ctx context.Context, cm *autopaho.ConnectionManager) {
	for _, s := range p.sensorDefinitions() {
		topic := p.discoveryTopic("sensor", s.entitySuffix)
		payload, err := json.Marshal(s.config)
		if err != nil {
			p.logger.Error("mqtt marshal discovery payload",
				"entity", s.entitySuffix, "error", err)
			continue
		}

		if _, err := cm.Publish(ctx, &paho.Publish{
			Topic:   topic,
			Payload: payload,
			QoS:     1,
			Retain:  true,
		}); err != nil {
			p.logger.Warn("mqtt discovery publish failed",
				"entity", s.entitySuffix, "topic", topic, "error", err)
		} else {
			p.logger.Debug("mqtt discovery published",
				"entity", s.entitySuffix, "topic", topic)
		}
	}
}

func (p *Publisher) publishAvailability(ctx context.Context, cm *autopaho.ConnectionManager, status string) {
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   p.availabilityTopic(),
		Payload: []byte(status),
		QoS:     1,
		Retain:  true,
	}); err != nil {
		p.logger.Warn("mqtt availability publish failed",
			"status", status, "error", err)
	} else {
		p.logger.Info("mqtt availability published", "status", status)
	}
}

// --- State loop ---

func (p *Publisher) runLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PublishInterval)
	defer ticker.Stop()

	var changes <-chan events.Event
	if p.bus != nil {
		ch := p.bus.Subscribe(32)
		defer p.bus.Unsubscribe(ch)
		changes = ch
	}

	p.publishStates(ctx, p.cm)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishStates(ctx, p.cm)
		case e, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if e.Source == events.SourceDashboard && e.Kind != events.KindSaved && e.Kind != events.KindSaveFailed {
				p.publishStates(ctx, p.cm)
			}
		}
	}
}

// StateValues renders the sensor states of a day view.
func StateValues(t dashboard.Today) map[string]string {
	return map[string]string{
		"day_status":      string(t.Status),
		"bills_due_7d":    strconv.FormatFloat(t.DueSoon, 'f', 2, 64),
		"unread_messages": strconv.Itoa(t.Unread),
		"open_tasks":      strconv.Itoa(t.OpenTasks),
	}
}

func (p *Publisher) publishStates(ctx context.Context, cm *autopaho.ConnectionManager) {
	if cm == nil || p.source == nil {
		return
	}

	states := StateValues(p.source.Today())
	states["version"] = buildinfo.Version
	states["uptime"] = buildinfo.Uptime().String()

	for entity, value := range states {
		if _, err := cm.Publish(ctx, &paho.Publish{
			Topic:   p.stateTopic(entity),
			Payload: []byte(value),
			QoS:     0,
			Retain:  true,
		}); err != nil {
			p.logger.Debug("mqtt state publish failed",
				"entity", entity, "error", err)
		}
	}

	p.logger.Debug("mqtt sensor states published",
		"entities", len(states), "day_status", states["day_status"])
}

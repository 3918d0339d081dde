package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremqtt "github.com/kilianp07/rakeplan/core/mqtt"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/infra/logger"
)

// DefaultTopicPrefix is the first topic level of schedule messages.
const DefaultTopicPrefix = "rake"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool        `json:"enabled" yaml:"enabled"`
	Broker      string      `json:"broker" yaml:"broker"`
	ClientID    string      `json:"client_id" yaml:"client_id"`
	Username    string      `json:"username" yaml:"username"`
	Password    string      `json:"password" yaml:"password"`
	TopicPrefix string      `json:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte        `json:"qos" yaml:"qos"`
	Retain      bool        `json:"retain" yaml:"retain"`
	UseTLS      bool        `json:"use_tls" yaml:"use_tls"`
	ClientCert  string      `json:"client_cert" yaml:"client_cert"`
	ClientKey   string      `json:"client_key" yaml:"client_key"`
	CABundle    string      `json:"ca_bundle" yaml:"ca_bundle"`
	AuthMethod  string      `json:"auth_method" yaml:"auth_method"`
	LWTTopic    string      `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS      byte        `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain   bool        `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries  int         `json:"max_retries" yaml:"max_retries"`
	BackoffMS   int         `json:"backoff_ms" yaml:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-" yaml:"-"`
}

// Validate checks the settings needed to connect.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	if c.QoS > 2 || c.LWTQoS > 2 {
		return fmt.Errorf("mqtt: qos must be 0, 1 or 2")
	}
	return nil
}

// ScheduleMessage is the payload published for each assignment.
type ScheduleMessage struct {
	ScheduleID  string               `json:"schedule_id"`
	RakeID      string               `json:"rake_id"`
	RouteID     string               `json:"route_id"`
	Departure   time.Time            `json:"departure_time"`
	Arrival     time.Time            `json:"arrival_time"`
	Status      model.ScheduleStatus `json:"status"`
	Cargo       *model.Cargo         `json:"cargo,omitempty"`
	PublishedAt int64                `json:"published_at"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher publishes schedules on <prefix>/<rake id>/schedule using
// Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
	now        func() time.Time
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &PahoPublisher{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
		now:        time.Now,
	}
	if p.prefix == "" {
		p.prefix = DefaultTopicPrefix
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the topic schedules for rakeID are published on.
func (p *PahoPublisher) Topic(rakeID string) string {
	return fmt.Sprintf("%s/%s/schedule", p.prefix, rakeID)
}

// PublishSchedule sends s to its rake topic, retrying with exponential
// backoff. The error wraps coremqtt.ErrPublishFailed when all attempts fail.
func (p *PahoPublisher) PublishSchedule(s model.Schedule) error {
	payload, err := json.Marshal(ScheduleMessage{
		ScheduleID:  s.ID,
		RakeID:      s.RakeID,
		RouteID:     s.RouteID,
		Departure:   s.Departure,
		Arrival:     s.Arrival,
		Status:      s.Status,
		Cargo:       s.Cargo,
		PublishedAt: p.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	topic := p.Topic(s.RakeID)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published schedule %s to %s", s.ID, topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("%w: schedule %s on %s: %v", coremqtt.ErrPublishFailed, s.ID, topic, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

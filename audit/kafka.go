package audit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/metrics"
)

/* ========================================================================
 * Kafka Publisher - 审计事件 Kafka 发布器
 * ========================================================================
 * 职责: 将审计事件同步发布到 Kafka
 * 技术: IBM/sarama
 * 分区: 以 workshop_id 作为消息 key, 同一门店事件有序
 * ======================================================================== */

// DefaultTopic 默认审计主题
const DefaultTopic = "workshop.audit"

// SASLConfig Kafka SASL 配置
type SASLConfig struct {
	Enable    bool   `yaml:"enable" mapstructure:"enable"`
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism"` // PLAIN / SCRAM-SHA-256 / SCRAM-SHA-512
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`
}

// TLSConfig Kafka TLS 配置
type TLSConfig struct {
	Enable   bool   `yaml:"enable" mapstructure:"enable"`
	CAFile   string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// Config 审计发布配置
type Config struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Brokers      []string      `yaml:"brokers" mapstructure:"brokers"`
	Topic        string        `yaml:"topic" mapstructure:"topic"`
	Version      string        `yaml:"version" mapstructure:"version"`
	RequiredAcks string        `yaml:"required_acks" mapstructure:"required_acks"` // none / leader / all
	RetryMax     int           `yaml:"retry_max" mapstructure:"retry_max"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	SASL         SASLConfig    `yaml:"sasl" mapstructure:"sasl"`
	TLS          TLSConfig     `yaml:"tls" mapstructure:"tls"`
}

// KafkaPublisher Kafka 审计发布器
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
	closed   bool
	mu       sync.RWMutex
}

// NewKafkaPublisher 创建 Kafka 审计发布器
func NewKafkaPublisher(cfg Config, log *logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	saramaCfg, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sarama config: %w", err)
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka sync producer: %w", err)
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	log.Info("Kafka audit publisher started",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic),
	)

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}, nil
}

// Publish 同步发布审计事件
// 发布失败记录日志后返回 nil: 审计链路不阻断业务写入
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("audit publisher is closed")
	}
	p.mu.RUnlock()

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to marshal audit event", zap.Error(err))
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.WorkshopID),
		Value:     sarama.ByteEncoder(body),
		Timestamp: event.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("action"), Value: []byte(event.Action)},
			{Key: []byte("entity_type"), Value: []byte(event.EntityType)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		metrics.AuditPublishTotal.WithLabelValues("error").Inc()
		p.log.Error("failed to publish audit event",
			zap.String("workshop_id", event.WorkshopID),
			zap.String("action", event.Action),
			zap.Error(err),
		)
		return nil
	}

	metrics.AuditPublishTotal.WithLabelValues("ok").Inc()
	p.log.Debug("audit event published",
		zap.String("workshop_id", event.WorkshopID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}

// Close 关闭发布器
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if err := p.producer.Close(); err != nil {
		p.log.Error("failed to close audit publisher", zap.Error(err))
		return err
	}

	p.log.Info("Kafka audit publisher closed")
	return nil
}

// =============================================================================
// 辅助函数
// =============================================================================

func buildSaramaConfig(cfg Config) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()

	// 版本
	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version: %w", err)
		}
		saramaCfg.Version = version
	}

	// Producer 配置
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	if cfg.RetryMax > 0 {
		saramaCfg.Producer.Retry.Max = cfg.RetryMax
	}
	if cfg.Timeout > 0 {
		saramaCfg.Producer.Timeout = cfg.Timeout
	}

	// ACKs
	switch cfg.RequiredAcks {
	case "none":
		saramaCfg.Producer.RequiredAcks = sarama.NoResponse
	case "leader":
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	case "all":
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	default:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	}

	// SASL
	if cfg.SASL.Enable {
		saramaCfg.Net.SASL.Enable = true
		saramaCfg.Net.SASL.User = cfg.SASL.Username
		saramaCfg.Net.SASL.Password = cfg.SASL.Password

		switch cfg.SASL.Mechanism {
		case "SCRAM-SHA-256":
			saramaCfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &XDGSCRAMClient{HashGeneratorFcn: SHA256}
			}
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "SCRAM-SHA-512":
			saramaCfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &XDGSCRAMClient{HashGeneratorFcn: SHA512}
			}
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		default:
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}

	// TLS
	if cfg.TLS.Enable {
		tlsConfig, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		saramaCfg.Net.TLS.Enable = true
		saramaCfg.Net.TLS.Config = tlsConfig
	}

	return saramaCfg, nil
}

func buildTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCertPool := x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cert/key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

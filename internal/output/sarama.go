package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"go.uber.org/zap"
)

type SaramaProducer struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

// NewSaramaProducer connects a sync producer to the comma separated broker
// list.
func NewSaramaProducer(brokerList string, log *zap.Logger) (*SaramaProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokers := strings.Split(brokerList, ",")
	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log = logger.OrGlobal(log)
	log.Info("sarama producer created", zap.Strings("brokers", brokers))
	return NewSaramaProducerFrom(producer, log), nil
}

// NewSaramaProducerFrom wraps an existing producer.
func NewSaramaProducerFrom(producer sarama.SyncProducer, log *zap.Logger) *SaramaProducer {
	return &SaramaProducer{producer: producer, log: logger.OrGlobal(log)}
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	if s.producer == nil {
		return fmt.Errorf("sarama producer is not initialized")
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}
	s.log.Debug("message sent",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer == nil {
		return nil
	}
	err := s.producer.Close()
	s.producer = nil
	return err
}

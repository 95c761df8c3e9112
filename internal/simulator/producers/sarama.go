package producers

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/distsim/internal/models"
)

type SaramaProducer struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

func NewSaramaProducer(config *models.Config) (*SaramaProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	timeout := config.KafkaTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	saramaConfig.Net.DialTimeout = timeout
	saramaConfig.Net.ReadTimeout = timeout
	saramaConfig.Net.WriteTimeout = timeout

	brokerList := strings.Split(config.KafkaBrokerList, ",")

	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.Printf("Sarama producer created successfully with brokers %v", brokerList)
	return NewSaramaProducerFrom(producer, config.KafkaTopicPrefix), nil
}

// NewSaramaProducerFrom wraps an existing SyncProducer.
func NewSaramaProducerFrom(producer sarama.SyncProducer, topicPrefix string) *SaramaProducer {
	return &SaramaProducer{producer: producer, topicPrefix: topicPrefix}
}

// WriteMessage sends msg keyed by its runId so records of one run share a partition.
func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	var envelope struct {
		RunID string `json:"runId"`
	}
	_ = json.Unmarshal(msg, &envelope)
	return s.WriteKeyedMessage(topic, envelope.RunID, msg)
}

func (s *SaramaProducer) WriteKeyedMessage(topic, key string, msg []byte) error {
	if s.producer == nil {
		return fmt.Errorf("Sarama producer is not initialized")
	}

	message := &sarama.ProducerMessage{
		Topic: s.topicPrefix + topic,
		Value: sarama.ByteEncoder(msg),
	}
	if key != "" {
		message.Key = sarama.StringEncoder(key)
	}

	_, _, err := s.producer.SendMessage(message)
	if err != nil {
		log.Printf("Failed to send message to topic %s: %v", message.Topic, err)
		return err
	}

	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer != nil {
		err := s.producer.Close()
		s.producer = nil
		return err
	}
	return nil
}

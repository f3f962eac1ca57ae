package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/annel0/voxel-editor/internal/logging"
)

// NATSNotifier реализует ClientNotifier через NATS Pub/Sub.
// Команды публикуются в субъект editor.client.<worldID>.<sessionID>;
// шлюз клиентских соединений подписан на свои сессии и сообщает
// о живых каналах через субъект присутствия.
//
// Особенности:
// - Автоматическое переподключение при сбоях
// - Реестр живых каналов, обновляемый сообщениями присутствия
// - Метрики публикации
type NATSNotifier struct {
	conn          *nats.Conn
	subjectPrefix string

	// Реестр живых каналов: worldID/sessionID -> время последнего presence
	channels  map[string]time.Time
	channelMu sync.RWMutex

	presenceSub *nats.Subscription
	presenceTTL time.Duration

	// Метрики
	publishedCount int64
	errorsCount    int64

	log *logging.Logger
}

// NATSNotifierConfig содержит конфигурацию NATS notifier.
type NATSNotifierConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	PresenceTTL   time.Duration `yaml:"presence_ttl"`
}

// presenceMessage — сообщение присутствия от шлюза клиентских соединений.
type presenceMessage struct {
	WorldID   string `json:"world_id"`
	SessionID string `json:"session_id"`
	Online    bool   `json:"online"`
}

// clientCommand — команда, публикуемая клиенту.
type clientCommand struct {
	Command   string                 `json:"command"`
	Args      map[string]interface{} `json:"args,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewNATSNotifier подключается к NATS и запускает подписку на presence.
func NewNATSNotifier(cfg *NATSNotifierConfig) (*NATSNotifier, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "editor.client"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.PresenceTTL == 0 {
		cfg.PresenceTTL = 30 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	nn := &NATSNotifier{
		conn:          conn,
		subjectPrefix: cfg.SubjectPrefix,
		channels:      make(map[string]time.Time),
		presenceTTL:   cfg.PresenceTTL,
		log:           logging.GetTransportLogger(),
	}

	// Подписка на присутствие клиентов
	sub, err := conn.Subscribe(cfg.SubjectPrefix+".presence", nn.handlePresence)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to presence: %w", err)
	}
	nn.presenceSub = sub

	nn.log.Info("NATS notifier подключен: %s", cfg.URL)
	return nn, nil
}

// handlePresence обновляет реестр живых каналов
func (nn *NATSNotifier) handlePresence(msg *nats.Msg) {
	var p presenceMessage
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		nn.log.Warn("Некорректное presence-сообщение: %v", err)
		return
	}

	nn.channelMu.Lock()
	defer nn.channelMu.Unlock()

	k := p.WorldID + "/" + p.SessionID
	if p.Online {
		nn.channels[k] = time.Now()
	} else {
		delete(nn.channels, k)
	}
}

// HasChannel возвращает true, если presence сессии не истёк.
func (nn *NATSNotifier) HasChannel(worldID, sessionID string) bool {
	nn.channelMu.RLock()
	defer nn.channelMu.RUnlock()

	seen, exists := nn.channels[worldID+"/"+sessionID]
	if !exists {
		return false
	}
	return time.Since(seen) < nn.presenceTTL
}

// SendToClient публикует команду в субъект сессии (fire-and-forget).
func (nn *NATSNotifier) SendToClient(ctx context.Context, worldID, sessionID, command string, args map[string]interface{}) error {
	payload, err := json.Marshal(clientCommand{
		Command:   command,
		Args:      args,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		atomic.AddInt64(&nn.errorsCount, 1)
		return fmt.Errorf("failed to marshal client command: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", nn.subjectPrefix, worldID, sessionID)
	if err := nn.conn.Publish(subject, payload); err != nil {
		atomic.AddInt64(&nn.errorsCount, 1)
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	atomic.AddInt64(&nn.publishedCount, 1)
	return nil
}

// Stats возвращает счётчики публикаций и ошибок.
func (nn *NATSNotifier) Stats() (published, errors int64) {
	return atomic.LoadInt64(&nn.publishedCount), atomic.LoadInt64(&nn.errorsCount)
}

// Close останавливает подписку и закрывает соединение.
func (nn *NATSNotifier) Close() error {
	if nn.presenceSub != nil {
		if err := nn.presenceSub.Unsubscribe(); err != nil {
			nn.log.Warn("Ошибка отписки от presence: %v", err)
		}
	}
	nn.conn.Close()
	nn.log.Info("NATS notifier закрыт")
	return nil
}

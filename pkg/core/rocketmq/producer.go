package rocketmq

import (
	"context"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type MessageBuilder struct {
	manager  *RocketMQManager
	topic    string
	tag      string
	sharding string
	keys     []string
	message  interface{}
}

func (m *RocketMQManager) MessageBuilder(topic string) *MessageBuilder {
	return &MessageBuilder{manager: m, topic: topic}
}

// Tag 自动为 tag 添加环境前缀
func (b *MessageBuilder) Tag(tag string) *MessageBuilder {
	if b.manager.env != "" {
		tag = b.manager.env + "_" + tag
	}
	b.tag = tag
	return b
}

func (b *MessageBuilder) Message(message interface{}) *MessageBuilder {
	b.message = message
	return b
}

// Sharding 同一分区键的消息保持顺序
func (b *MessageBuilder) Sharding(sharding string) *MessageBuilder {
	b.sharding = sharding
	return b
}

func (b *MessageBuilder) Keys(keys ...string) *MessageBuilder {
	b.keys = keys
	return b
}

func (b *MessageBuilder) SendSync(ctx context.Context) error {
	m := b.manager
	if m.producer == nil {
		return e.New("Producer未启动", nil).Unavailable().WithTraceID(ctx)
	}

	body, err := encode(b.message)
	if err != nil {
		return e.New("MQ将消息json化失败", err).WithTraceID(ctx)
	}
	msg := primitive.NewMessage(b.topic, body)
	msg.WithTag(b.tag)
	if b.sharding != "" {
		msg.WithShardingKey(b.sharding)
	}
	if len(b.keys) > 0 {
		msg.WithKeys(b.keys)
	}

	result, err := m.producer.SendSync(ctx, msg)
	if err != nil {
		return e.New("发送消息失败", err).Third().WithTraceID(ctx)
	}
	log.WithField("topic", b.topic).
		WithField("tag", b.tag).
		WithField("keys", b.keys).
		WithField("msgID", result.MsgID).
		WithField("status", result.Status).Debug("发送消息")
	return nil
}

func encode(message interface{}) ([]byte, error) {
	switch v := message.(type) {
	case nil:
		return []byte(""), nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

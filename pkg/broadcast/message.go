package broadcast

import "time"

// Message 推送给订阅者的一条消息，心跳消息在队列满时允许被丢弃
type Message struct {
	Event     string
	Payload   interface{}
	Heartbeat bool
	At        time.Time
}

func NewEvent(event string, payload interface{}) Message {
	return Message{Event: event, Payload: payload, At: time.Now()}
}

func NewHeartbeat() Message {
	return Message{Event: "heartbeat", Heartbeat: true, At: time.Now()}
}

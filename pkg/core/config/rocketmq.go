package config

type RocketMQ struct {
	Enable     bool   `yaml:"enable" json:"enable"`
	NameServer string `yaml:"name-server" json:"name-server"`
	Group      string `yaml:"group" json:"group"`
	Topic      string `yaml:"topic" json:"topic"`
	Retry      int    `yaml:"retry" json:"retry"`
}

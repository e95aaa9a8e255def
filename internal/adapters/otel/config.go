package otel

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string `envconfig:"ENDPOINT"`
	Enabled  bool   `envconfig:"ENABLED"`
	Insecure bool   `envconfig:"INSECURE"`
}

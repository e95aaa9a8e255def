package prometheus

// Config holds Prometheus textfile exporter configuration.
type Config struct {
	Enabled bool `envconfig:"ENABLED"`
	// Textfile is the .prom file picked up by the node_exporter textfile collector.
	Textfile string `envconfig:"TEXTFILE"`
}

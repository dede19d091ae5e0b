package config

const (
	defaultBaseURL        = "http://localhost:8000/api/v1"
	defaultEndpoint       = "/images/enhance"
	defaultTimeoutSeconds = 300
	defaultMaxUploadMB    = 10
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Service: Service{
			BaseURL:        defaultBaseURL,
			Endpoint:       defaultEndpoint,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Intake: Intake{
			MaxUploadMB: defaultMaxUploadMB,
		},
		Output: Output{
			DownloadDir: "~/Pictures",
		},
	}
}

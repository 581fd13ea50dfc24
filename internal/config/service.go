package config

type ServiceConfig struct {
	Name        string       `yaml:"name"`
	Environment string       `yaml:"environment"`
	Version     string       `yaml:"version"`
	ClientURL   string       `yaml:"client_url"`
	Xendit      XenditConfig `yaml:"xendit"`
	// WebhookArchiveDir is where raw webhook deliveries are archived for
	// debugging. Relative paths resolve against the working directory.
	WebhookArchiveDir string `yaml:"webhook_archive_dir"`
}

type XenditConfig struct {
	APIKey string `yaml:"api_key"`
	// CallbackToken is the shared secret checked against the callback token
	// header on every webhook delivery.
	CallbackToken string `yaml:"callback_token"`
	// WebhookSecret enables HMAC-SHA256 verification of webhook bodies when
	// set. Empty disables signature verification.
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
}

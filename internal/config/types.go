package config

// Config is the top-level loom configuration, corresponding to .loom.yml.
type Config struct {
	CloneDir       string       `yaml:"clone_dir" koanf:"clone_dir"`
	GitHubOrg      string       `yaml:"github_org" koanf:"github_org"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	Exclude        []string     `yaml:"exclude" koanf:"exclude"`
	MaxConcurrency int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	CommandTimeout string       `yaml:"command_timeout" koanf:"command_timeout"`
	ReportPath     string       `yaml:"report_path" koanf:"report_path"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

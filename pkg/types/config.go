package types

// Config represents the gatehouse daemon configuration.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// Server settings
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Data directory override (defaults to the XDG data path)
	DataDir string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`

	// Permission arbitration settings
	Permission PermissionSettings `json:"permission,omitempty" yaml:"permission,omitempty"`

	// Logging settings
	Log LogSettings `json:"log,omitempty" yaml:"log,omitempty"`
}

// PermissionSettings tunes the arbitration flow.
type PermissionSettings struct {
	// TimeoutSeconds is how long a request may wait for a decision
	// before it is denied. Zero means the default (60s).
	TimeoutSeconds int `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
}

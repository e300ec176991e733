package models

// MConfig Structure
type MConfig struct {
	Name        string             `yaml:"name"`
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	LogLevel    string             `yaml:"log_level"`
	GrpcHost    string             `yaml:"grpc_host"`
	GrpcPort    int                `yaml:"grpc_port"`
	Storage     MStorageConfig     `yaml:"storage"`
	Aggregation MAggregationConfig `yaml:"aggregation"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "none", "sqlite" or "postgres"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"` // 0 keeps every run
}

type MAggregationConfig struct {
	MissingThroughput string `yaml:"missing_throughput"` // "exclude" or "zero"
	HistorySize       int    `yaml:"history_size"`
	// MaxUploadBytes caps an uploaded body, both as sent and once
	// decompressed. 0 disables the cap.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Missing throughput policies
const (
	MissingExclude = "exclude"
	MissingZero    = "zero"
)

// Storage backends
const (
	DBTypeNone     = "none"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

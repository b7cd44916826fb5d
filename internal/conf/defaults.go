// defaults.go default values for the viper settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the viper settings.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main settings
	viper.SetDefault("main.name", "FeatherFrame")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/featherframe.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10*1024*1024)

	// HTTP server settings
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.bodylimit", "64M")

	// Security settings
	viper.SetDefault("security.jwtsecret", "")
	viper.SetDefault("security.issuer", "")

	// Sighting database settings
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "featherframe.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "featherframe")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "featherframe")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Blob storage settings
	viper.SetDefault("storage.type", StorageFilesystem)
	viper.SetDefault("storage.filesystem.path", "uploads")
	viper.SetDefault("storage.s3.bucket", "")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.endpoint", "")
	viper.SetDefault("storage.s3.prefix", "uploads/")
	viper.SetDefault("storage.s3.accesskeyid", "")
	viper.SetDefault("storage.s3.secretaccesskey", "")

	// Classifier settings
	viper.SetDefault("classifier.timeout", 30*time.Second)

	// Ingestion settings
	viper.SetDefault("ingest.maxbatchsize", 10)
	viper.SetDefault("ingest.maxfilesize", 5*1024*1024)
}

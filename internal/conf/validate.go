// validate.go settings validation
package conf

import (
	"strconv"

	"github.com/featherframe/featherframe/internal/errors"
)

// ValidateSettings checks a loaded Settings struct for configurations that
// cannot work at runtime. It returns the first problem found.
func ValidateSettings(settings *Settings) error {
	if err := validateServerSettings(&settings.Server); err != nil {
		return err
	}
	if err := validateOutputSettings(&settings.Output); err != nil {
		return err
	}
	if err := validateStorageSettings(&settings.Storage); err != nil {
		return err
	}
	if err := validateIngestSettings(&settings.Ingest); err != nil {
		return err
	}
	return nil
}

func validateServerSettings(server *ServerSettings) error {
	port, err := strconv.Atoi(server.Port)
	if err != nil || port < 1 || port > 65535 {
		return errors.Newf("invalid server port: %s", server.Port).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

func validateOutputSettings(output *OutputSettings) error {
	if !output.SQLite.Enabled && !output.MySQL.Enabled {
		return errors.Newf("no sighting database enabled, enable either sqlite or mysql").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if output.SQLite.Enabled && output.MySQL.Enabled {
		return errors.Newf("both sqlite and mysql enabled, only one sighting database is supported").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if output.SQLite.Enabled && output.SQLite.Path == "" {
		return errors.Newf("sqlite enabled but no database path configured").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

func validateStorageSettings(storage *StorageSettings) error {
	switch storage.Type {
	case StorageFilesystem:
		if storage.Filesystem.Path == "" {
			return errors.Newf("filesystem storage requires storage.filesystem.path").
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	case StorageS3:
		if storage.S3.Bucket == "" {
			return errors.Newf("s3 storage requires storage.s3.bucket").
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	default:
		return errors.Newf("unknown storage type: %s", storage.Type).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

func validateIngestSettings(ingest *IngestSettings) error {
	if ingest.MaxBatchSize < 1 {
		return errors.Newf("ingest.maxbatchsize must be at least 1, got %d", ingest.MaxBatchSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if ingest.MaxFileSize < 1 {
		return errors.Newf("ingest.maxfilesize must be positive, got %d", ingest.MaxFileSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/foomo/jsonhtml/pkg/storage"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// supportedBlobSchemes lists the URL schemes of the linked blob drivers
var supportedBlobSchemes = []struct {
	scheme   string
	provider string
}{
	{scheme: "gs://", provider: "Google Cloud Storage"},
	{scheme: "mem://", provider: "In-Memory"},
}

func addStorageFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addStorageTypeFlag(flags, v)
	addOutputDirFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
}

// createStorage creates a storage backend based on the configuration
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (storage.Storage, error) {
	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)
	blobPrefix := storageBlobPrefixFlag(v)

	// Warn about ignored blob config
	if storageType != "blob" && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	l.Info("creating storage", zap.String("type", storageType))

	switch storageType {
	case "blob":
		if blobBucket == "" {
			return nil, fmt.Errorf("blob bucket URL is required when storage-type is 'blob' (supported schemes: %s)", blobSchemes())
		}
		provider, ok := blobProvider(blobBucket)
		if !ok {
			return nil, fmt.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s", blobBucket, blobSchemes())
		}
		l.Info("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", blobPrefix),
			zap.String("provider", provider),
		)
		return storage.NewBlobStorage(ctx, blobBucket, blobPrefix)
	case "filesystem", "":
		dir := outputDirFlag(v)
		l.Info("using filesystem storage", zap.String("dir", dir))
		return storage.NewFilesystemStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: filesystem, blob)", storageType)
	}
}

// blobProvider returns the provider name of a supported bucket URL
func blobProvider(bucketURL string) (string, bool) {
	for _, s := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, s.scheme) {
			return s.provider, true
		}
	}
	return "", false
}

func blobSchemes() string {
	schemes := make([]string, 0, len(supportedBlobSchemes))
	for _, s := range supportedBlobSchemes {
		schemes = append(schemes, s.scheme)
	}
	return strings.Join(schemes, ", ")
}

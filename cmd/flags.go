package cmd

import (
	"time"

	"github.com/foomo/jsonhtml/pkg/page"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func addConfigFlag(flags *pflag.FlagSet) {
	flags.String("config", "", "YAML config file, env JSONHTML_CONFIG")
}

// ------------------------------------------------------------------------------------------------
// ~ Conversion
// ------------------------------------------------------------------------------------------------

func selectFlag(v *viper.Viper) string {
	return v.GetString("select")
}

func addSelectFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("select", "", "Only convert the part of the json input at this path (e.g. data.items)")
	_ = v.BindPFlag("select", flags.Lookup("select"))
	_ = v.BindEnv("select", "JSONHTML_SELECT")
}

func formatFlag(v *viper.Viper) string {
	return v.GetString("format")
}

func addFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("format", "", "Input format json or yaml, guessed from the file extension if empty")
	_ = v.BindPFlag("format", flags.Lookup("format"))
	_ = v.BindEnv("format", "JSONHTML_FORMAT")
}

func fragmentFlag(v *viper.Viper) bool {
	return v.GetBool("fragment")
}

func addFragmentFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("fragment", false, "Write the html fragment only, without page")
	_ = v.BindPFlag("fragment", flags.Lookup("fragment"))
	_ = v.BindEnv("fragment", "JSONHTML_FRAGMENT")
}

func verifyFlag(v *viper.Viper) bool {
	return v.GetBool("verify")
}

func addVerifyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("verify", false, "Fail if the produced html has unbalanced tags")
	_ = v.BindPFlag("verify", flags.Lookup("verify"))
	_ = v.BindEnv("verify", "JSONHTML_VERIFY")
}

func markdownFlag(v *viper.Viper) bool {
	return v.GetBool("filter.markdown")
}

func addMarkdownFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("markdown", false, "Render line contents as markdown")
	_ = v.BindPFlag("filter.markdown", flags.Lookup("markdown"))
	_ = v.BindEnv("filter.markdown", "JSONHTML_MARKDOWN")
}

func sanitizeFlag(v *viper.Viper) bool {
	return v.GetBool("filter.sanitize")
}

func addSanitizeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("sanitize", false, "Strip unsafe markup from line contents")
	_ = v.BindPFlag("filter.sanitize", flags.Lookup("sanitize"))
	_ = v.BindEnv("filter.sanitize", "JSONHTML_SANITIZE")
}

func fetchTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("fetch.timeout")
}

func addFetchTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("fetch-timeout", 30*time.Second, "Timeout for fetching http(s) inputs")
	_ = v.BindPFlag("fetch.timeout", flags.Lookup("fetch-timeout"))
	_ = v.BindEnv("fetch.timeout", "JSONHTML_FETCH_TIMEOUT")
}

// addConversionFlags adds the flags shared by all converting commands
func addConversionFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addSelectFlag(flags, v)
	addVerifyFlag(flags, v)
	addMarkdownFlag(flags, v)
	addSanitizeFlag(flags, v)
	addPageFlags(flags, v)
}

// pageMetaFlag collects the page values from flags, env and config file
func pageMetaFlag(v *viper.Viper) page.Meta {
	return page.Meta{
		Lang:        v.GetString("page.lang"),
		Title:       v.GetString("page.title"),
		Keywords:    v.GetString("page.keywords"),
		Description: v.GetString("page.description"),
		Stylesheet:  v.GetString("page.stylesheet"),
		Heading:     v.GetString("page.heading"),
		Tagline:     v.GetString("page.tagline"),
		Footer:      v.GetString("page.footer"),
	}
}

func addPageFlags(flags *pflag.FlagSet, v *viper.Viper) {
	for _, f := range []struct {
		name  string
		usage string
	}{
		{"lang", "Page language"},
		{"title", "Page title"},
		{"keywords", "Page meta keywords"},
		{"description", "Page meta description"},
		{"stylesheet", "Stylesheet linked by the page"},
		{"heading", "Page heading, defaults to the title"},
		{"tagline", "Text below the page heading"},
		{"footer", "Page footer text"},
	} {
		flags.String("page-"+f.name, "", f.usage)
		_ = v.BindPFlag("page."+f.name, flags.Lookup("page-"+f.name))
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Storage
// ------------------------------------------------------------------------------------------------

func concurrencyFlag(v *viper.Viper) int {
	return v.GetInt("concurrency")
}

func addConcurrencyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("concurrency", 4, "Number of documents converted in parallel")
	_ = v.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = v.BindEnv("concurrency", "JSONHTML_CONCURRENCY")
}

func outputDirFlag(v *viper.Viper) string {
	return v.GetString("output.dir")
}

func addOutputDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("output-dir", "public", "Directory the pages are written to")
	_ = v.BindPFlag("output.dir", flags.Lookup("output-dir"))
	_ = v.BindEnv("output.dir", "JSONHTML_OUTPUT_DIR")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "Storage of the pages: filesystem or blob")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "JSONHTML_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Bucket url for blob storage (gs://bucket or mem://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "JSONHTML_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Key prefix of all pages in the bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "JSONHTML_STORAGE_BLOB_PREFIX")
}

// ------------------------------------------------------------------------------------------------
// ~ Server
// ------------------------------------------------------------------------------------------------

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "JSONHTML_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/jsonhtml", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "JSONHTML_BASE_PATH")
}

func maxBodySizeFlag(v *viper.Viper) int64 {
	return v.GetInt64("max_body_size")
}

func addMaxBodySizeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int64("max-body-size", 10<<20, "Maximum size in bytes of a posted document")
	_ = v.BindPFlag("max_body_size", flags.Lookup("max-body-size"))
	_ = v.BindEnv("max_body_size", "JSONHTML_MAX_BODY_SIZE")
}

func pollFlag(v *viper.Viper) bool {
	return v.GetBool("poll.enabled")
}

func addPollFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("poll", false, "If true, the source directory is republished whenever it changes")
	_ = v.BindPFlag("poll.enabled", flags.Lookup("poll"))
	_ = v.BindEnv("poll.enabled", "JSONHTML_POLL")
}

func pollIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("poll.interval")
}

func addPollIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("poll-interval", time.Minute, "Specifies the poll interval")
	_ = v.BindPFlag("poll.interval", flags.Lookup("poll-interval"))
	_ = v.BindEnv("poll.interval", "JSONHTML_POLL_INTERVAL")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of publish manifests to keep")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "JSONHTML_HISTORY_LIMIT")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Graceful period before shutting down")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "JSONHTML_GRACEFUL_PERIOD")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip_level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", 6, "Compression level of http responses")
	_ = v.BindPFlag("gzip_level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip_level", "JSONHTML_GZIP_LEVEL")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}
